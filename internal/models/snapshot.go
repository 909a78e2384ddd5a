package models

import "time"

// PoolData is a plain copy of a pool's persistent state, shared by the file
// codec and the project library
type PoolData struct {
	Name      string
	Start     time.Time
	End       time.Time
	DateStyle DateStyle
	Detail    bool
	Tasks     []TaskData
}

// TaskData is the persistent state of one task
type TaskData struct {
	Name      string
	Color     Color
	Folded    bool
	SubTasks  []SubTaskData
	Instances []DateRange
}

// SubTaskData is the persistent state of one subtask definition
type SubTaskData struct {
	Name       string
	Color      Color
	Instances  []DateRange
	Attributes []string
}

// Snapshot copies the persistent state of the pool
func (p *Pool) Snapshot() PoolData {
	d := PoolData{
		Name:      p.projectName,
		Start:     p.start,
		End:       p.end,
		DateStyle: p.dateStyle,
		Detail:    p.detail,
	}
	for _, t := range p.tasks {
		td := TaskData{Name: t.name, Color: t.color, Folded: t.folded}
		for _, st := range t.subTasks {
			sd := SubTaskData{Name: st.name, Color: st.color, Attributes: st.Attributes()}
			for _, si := range st.instances {
				sd.Instances = append(sd.Instances, si.r)
			}
			td.SubTasks = append(td.SubTasks, sd)
		}
		for _, ti := range t.instances {
			td.Instances = append(td.Instances, ti.r)
		}
		d.Tasks = append(d.Tasks, td)
	}
	return d
}

// Build creates a pool from stored state. Every instance goes through the
// regular AddInstance path, so overlapping stored instances are merged;
// task instances that could not be inserted on their own are listed in the
// report. Task colors and the subtask shades of them are claimed in the new
// pool's palette; colors found nowhere in the palette are reported.
func Build(d PoolData) (*Pool, *LoadReport) {
	p := NewPool(d.Name)
	p.SetDateStyle(d.DateStyle)
	p.detail = d.Detail
	if !d.Start.IsZero() {
		p.SetStartDate(d.Start)
	}
	if !d.End.IsZero() {
		p.SetEndDate(d.End)
	}

	report := &LoadReport{}
	for _, td := range d.Tasks {
		t := p.AddTask(td.Name)
		t.SetColor(td.Color)
		t.folded = td.Folded

		top := p.palette.Lookup(td.Color)
		if top == nil {
			report.UnknownColors = append(report.UnknownColors, UnknownColor{Task: td.Name, Color: td.Color})
		}
		p.palette.Claim(top)

		for _, sd := range td.SubTasks {
			st := t.AddSubTask(sd.Name, sd.Color)
			if sub := p.palette.LookupSub(top, sd.Color); sub != nil {
				p.palette.Claim(sub)
			} else if !p.palette.Known(sd.Color) {
				report.UnknownColors = append(report.UnknownColors, UnknownColor{Task: td.Name, SubTask: sd.Name, Color: sd.Color})
			}
			for _, r := range sd.Instances {
				st.AddInstance(r.Start, r.End)
			}
			for _, a := range sd.Attributes {
				st.AddAttribute(a)
			}
		}

		for _, r := range td.Instances {
			if !t.AddInstance(r.Start, r.End) {
				report.Failed = append(report.Failed, FailedInstance{Task: td.Name, Range: r})
			}
		}
	}
	return p, report
}
