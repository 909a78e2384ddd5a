package db

import (
	"database/sql"

	"github.com/tgienger/ganttchart/internal/models"
)

// insertInstances stores ranges in table, keyed by ownerCol. table and
// ownerCol are always one of the two fixed instance tables.
func insertInstances(tx *sql.Tx, table, ownerCol string, ownerID int64, ranges []models.DateRange) error {
	if len(ranges) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(`INSERT INTO ` + table + ` (` + ownerCol + `, start_ms, end_ms) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range ranges {
		if _, err := stmt.Exec(ownerID, r.Start.UnixMilli(), r.End.UnixMilli()); err != nil {
			return err
		}
	}
	return nil
}

// listInstances returns the stored ranges of one owner in insertion order
func (db *DB) listInstances(table, ownerCol string, ownerID int64) ([]models.DateRange, error) {
	rows, err := db.Query(`
		SELECT start_ms, end_ms
		FROM `+table+`
		WHERE `+ownerCol+` = ?
		ORDER BY id
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ranges []models.DateRange
	for rows.Next() {
		var start, end int64
		if err := rows.Scan(&start, &end); err != nil {
			return nil, err
		}
		ranges = append(ranges, models.DateRange{Start: models.FromMillis(start), End: models.FromMillis(end)})
	}
	return ranges, rows.Err()
}
