package poolfile

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tgienger/ganttchart/internal/models"
)

// Save writes pool to path. The previous file, if any, is kept as path.bak.
func Save(path string, pool *models.Pool) error {
	var buf bytes.Buffer
	if err := Encode(&buf, pool); err != nil {
		return err
	}
	return writeAtomic(path, buf.Bytes(), func(b []byte) error {
		var doc xmlPool
		return xml.Unmarshal(b, &doc)
	})
}

// Load reads path and replaces the contents of pool with it. On any error,
// including a version mismatch, pool is left as it was.
func Load(path string, pool *models.Pool) (*models.LoadReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pool file: %w", err)
	}
	defer f.Close()

	loaded, report, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	pool.ReplaceWith(loaded)
	return report, nil
}

// Open reads path into a new pool
func Open(path string) (*models.Pool, *models.LoadReport, error) {
	pool := models.NewPool("")
	report, err := Load(path, pool)
	if err != nil {
		return nil, nil, err
	}
	return pool, report, nil
}

// writeAtomic writes content to a temp file next to path, checks it with
// validate after reading it back, backs up the existing file and renames
// the temp file into place.
func writeAtomic(path string, content []byte, validate func([]byte) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".gantt-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	written, err := os.ReadFile(tmpName)
	if err != nil {
		return fmt.Errorf("read temp file: %w", err)
	}
	if err := validate(written); err != nil {
		return fmt.Errorf("validate temp file: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := copyFile(path, path+".bak"); err != nil {
			return fmt.Errorf("create backup: %w", err)
		}
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
