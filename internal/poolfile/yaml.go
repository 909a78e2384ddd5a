package poolfile

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/tgienger/ganttchart/internal/models"
)

const yamlDate = "2006-01-02"

type yamlPool struct {
	Name      string     `yaml:"name"`
	Start     string     `yaml:"start"`
	End       string     `yaml:"end"`
	DateStyle string     `yaml:"datestyle"`
	Detail    bool       `yaml:"detail"`
	Tasks     []yamlTask `yaml:"tasks"`
}

type yamlTask struct {
	Name      string        `yaml:"name"`
	Color     string        `yaml:"color"`
	Instances []yamlRange   `yaml:"instances,omitempty"`
	SubTasks  []yamlSubTask `yaml:"subtasks,omitempty"`
}

type yamlSubTask struct {
	Name       string      `yaml:"name"`
	Color      string      `yaml:"color"`
	Instances  []yamlRange `yaml:"instances,omitempty"`
	Attributes []string    `yaml:"attributes,omitempty"`
}

type yamlRange struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
	Days  int    `yaml:"days"`
}

func toYAMLRanges(rs []models.DateRange) []yamlRange {
	var out []yamlRange
	for _, r := range rs {
		out = append(out, yamlRange{Start: r.Start.Format(yamlDate), End: r.End.Format(yamlDate), Days: r.Days()})
	}
	return out
}

func dateStyleName(s models.DateStyle) string {
	if s == models.ByHour {
		return "hour"
	}
	return "day"
}

// EncodeYAML writes a read-only report of pool as YAML
func EncodeYAML(w io.Writer, pool *models.Pool) error {
	d := pool.Snapshot()
	doc := yamlPool{
		Name:      d.Name,
		Start:     d.Start.Format(yamlDate),
		End:       d.End.Format(yamlDate),
		DateStyle: dateStyleName(d.DateStyle),
		Detail:    d.Detail,
	}
	for _, td := range d.Tasks {
		yt := yamlTask{Name: td.Name, Color: td.Color.Hex(), Instances: toYAMLRanges(td.Instances)}
		for _, sd := range td.SubTasks {
			yt.SubTasks = append(yt.SubTasks, yamlSubTask{
				Name:       sd.Name,
				Color:      sd.Color.Hex(),
				Instances:  toYAMLRanges(sd.Instances),
				Attributes: sd.Attributes,
			})
		}
		doc.Tasks = append(doc.Tasks, yt)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// SaveYAML writes the YAML report to path atomically
func SaveYAML(path string, pool *models.Pool) error {
	var buf bytes.Buffer
	if err := EncodeYAML(&buf, pool); err != nil {
		return err
	}
	return writeAtomic(path, buf.Bytes(), func(b []byte) error {
		var v any
		return yaml.Unmarshal(b, &v)
	})
}
