// Package poolfile reads and writes chart files.
//
// The on-disk format is the version 3 XML document:
//
//	<pool version="3" datestyle="2" detail="false" name="..." start="ms" end="ms">
//	  <task color="argb" name="...">
//	    <definitions>
//	      <subtaskdefinition name="..." color="argb">
//	        <subtask start="ms" end="ms"/>
//	        <attributes><attribute name="..."/></attributes>
//	      </subtaskdefinition>
//	    </definitions>
//	    <instances><instance start="ms" end="ms"/></instances>
//	  </task>
//	</pool>
package poolfile

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tgienger/ganttchart/internal/models"
)

// Version is the only document version Decode accepts
const Version = 3

// ErrVersionMismatch is returned when a document carries another version
var ErrVersionMismatch = errors.New("unsupported pool file version")

type xmlPool struct {
	XMLName   xml.Name  `xml:"pool"`
	Version   string    `xml:"version,attr"`
	DateStyle string    `xml:"datestyle,attr"`
	Detail    string    `xml:"detail,attr"`
	Name      string    `xml:"name,attr"`
	Start     string    `xml:"start,attr"`
	End       string    `xml:"end,attr"`
	Tasks     []xmlTask `xml:"task"`
}

type xmlTask struct {
	Color       int32          `xml:"color,attr"`
	Name        string         `xml:"name,attr"`
	Definitions xmlDefinitions `xml:"definitions"`
	Instances   xmlInstances   `xml:"instances"`
}

type xmlDefinitions struct {
	Items []xmlDefinition `xml:"subtaskdefinition"`
}

type xmlDefinition struct {
	Name       string        `xml:"name,attr"`
	Color      int32         `xml:"color,attr"`
	SubTasks   []xmlRange    `xml:"subtask"`
	Attributes xmlAttributes `xml:"attributes"`
}

type xmlAttributes struct {
	Items []xmlAttribute `xml:"attribute"`
}

type xmlAttribute struct {
	Name string `xml:"name,attr"`
}

type xmlInstances struct {
	Items []xmlRange `xml:"instance"`
}

type xmlRange struct {
	Start int64 `xml:"start,attr"`
	End   int64 `xml:"end,attr"`
}

func toXMLRange(r models.DateRange) xmlRange {
	return xmlRange{Start: r.Start.UnixMilli(), End: r.End.UnixMilli()}
}

func (r xmlRange) dateRange() models.DateRange {
	return models.DateRange{Start: models.FromMillis(r.Start), End: models.FromMillis(r.End)}
}

// Encode writes pool as an indented version 3 document
func Encode(w io.Writer, pool *models.Pool) error {
	d := pool.Snapshot()
	doc := xmlPool{
		Version:   strconv.Itoa(Version),
		DateStyle: strconv.Itoa(int(d.DateStyle)),
		Detail:    strconv.FormatBool(d.Detail),
		Name:      d.Name,
		Start:     strconv.FormatInt(d.Start.UnixMilli(), 10),
		End:       strconv.FormatInt(d.End.UnixMilli(), 10),
	}
	for _, td := range d.Tasks {
		xt := xmlTask{Color: td.Color.RGB(), Name: td.Name}
		for _, sd := range td.SubTasks {
			def := xmlDefinition{Name: sd.Name, Color: sd.Color.RGB()}
			for _, r := range sd.Instances {
				def.SubTasks = append(def.SubTasks, toXMLRange(r))
			}
			for _, a := range sd.Attributes {
				def.Attributes.Items = append(def.Attributes.Items, xmlAttribute{Name: a})
			}
			xt.Definitions.Items = append(xt.Definitions.Items, def)
		}
		for _, r := range td.Instances {
			xt.Instances.Items = append(xt.Instances.Items, toXMLRange(r))
		}
		doc.Tasks = append(doc.Tasks, xt)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode pool: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Decode reads a version 3 document into a new pool. Instances are
// re-inserted through the normal merge path; those absorbed by an earlier
// instance and colors missing from the palette are listed in the report.
func Decode(r io.Reader) (*models.Pool, *models.LoadReport, error) {
	var doc xmlPool
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, nil, fmt.Errorf("parse pool: %w", err)
	}

	version, err := strconv.Atoi(strings.TrimSpace(doc.Version))
	if err != nil {
		return nil, nil, fmt.Errorf("parse pool version %q: %w", doc.Version, err)
	}
	if version != Version {
		return nil, nil, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, version, Version)
	}

	d := models.PoolData{
		Name:      doc.Name,
		DateStyle: models.ByDay,
		Detail:    strings.EqualFold(doc.Detail, "true"),
	}
	if doc.DateStyle != "" {
		style, err := strconv.Atoi(doc.DateStyle)
		if err != nil {
			return nil, nil, fmt.Errorf("parse datestyle %q: %w", doc.DateStyle, err)
		}
		d.DateStyle = models.DateStyle(style)
	}
	if d.Start, err = parseMillis("start", doc.Start); err != nil {
		return nil, nil, err
	}
	if d.End, err = parseMillis("end", doc.End); err != nil {
		return nil, nil, err
	}

	for _, xt := range doc.Tasks {
		td := models.TaskData{Name: xt.Name, Color: models.ColorFromRGB(xt.Color), Folded: true}
		for _, def := range xt.Definitions.Items {
			sd := models.SubTaskData{Name: def.Name, Color: models.ColorFromRGB(def.Color)}
			for _, r := range def.SubTasks {
				sd.Instances = append(sd.Instances, r.dateRange())
			}
			for _, a := range def.Attributes.Items {
				sd.Attributes = append(sd.Attributes, a.Name)
			}
			td.SubTasks = append(td.SubTasks, sd)
		}
		for _, r := range xt.Instances.Items {
			td.Instances = append(td.Instances, r.dateRange())
		}
		d.Tasks = append(d.Tasks, td)
	}

	pool, report := models.Build(d)
	return pool, report, nil
}

// parseMillis returns the zero time for an empty attribute so the pool
// keeps its default bound
func parseMillis(attr, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s %q: %w", attr, v, err)
	}
	return models.FromMillis(ms), nil
}
