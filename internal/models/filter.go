package models

import "strings"

// FilterLevel identifies one step of the degree -> department -> batch -> course cascade
type FilterLevel int

const (
	LevelDegree FilterLevel = iota
	LevelDepartment
	LevelBatch
	LevelCourse
	LevelFaculty
)

func (l FilterLevel) String() string {
	switch l {
	case LevelDegree:
		return "degree"
	case LevelDepartment:
		return "department"
	case LevelBatch:
		return "batch"
	case LevelCourse:
		return "course"
	case LevelFaculty:
		return "faculty"
	default:
		return "unknown"
	}
}

// Filter is the cascading cohort selection. Changing a level clears every level below it.
type Filter struct {
	Degree     string `json:"degree" form:"degree"`
	Department string `json:"dept" form:"dept"`
	Batch      string `json:"batch" form:"batch"`
	Course     string `json:"course" form:"course"`
}

func (f *Filter) SetDegree(v string) {
	f.Degree = strings.TrimSpace(v)
	f.Department = ""
	f.Batch = ""
	f.Course = ""
}

func (f *Filter) SetDepartment(v string) {
	f.Department = strings.TrimSpace(v)
	f.Batch = ""
	f.Course = ""
}

func (f *Filter) SetBatch(v string) {
	f.Batch = strings.TrimSpace(v)
	f.Course = ""
}

func (f *Filter) SetCourse(v string) {
	f.Course = strings.TrimSpace(v)
}

// Apply merges a fully posted selection into the receiver. The highest level
// that differs is set through its setter; lower levels from next are kept only
// when they are not below a changed level.
func (f *Filter) Apply(next Filter) {
	next = next.normalized()
	switch {
	case next.Degree != f.Degree:
		f.SetDegree(next.Degree)
	case next.Department != f.Department:
		f.SetDepartment(next.Department)
	case next.Batch != f.Batch:
		f.SetBatch(next.Batch)
	case next.Course != f.Course:
		f.SetCourse(next.Course)
	}
}

// Enabled reports whether options for the given level are meaningful yet
func (f Filter) Enabled(level FilterLevel) bool {
	switch level {
	case LevelDegree:
		return true
	case LevelDepartment:
		return f.Degree != ""
	case LevelBatch:
		return f.Degree != "" && f.Department != ""
	case LevelCourse:
		return f.Degree != "" && f.Department != "" && f.Batch != ""
	case LevelFaculty:
		return f.Complete()
	default:
		return false
	}
}

// Complete reports whether all four levels are selected
func (f Filter) Complete() bool {
	return f.Degree != "" && f.Department != "" && f.Batch != "" && f.Course != ""
}

func (f Filter) normalized() Filter {
	return Filter{
		Degree:     strings.TrimSpace(f.Degree),
		Department: strings.TrimSpace(f.Department),
		Batch:      strings.TrimSpace(f.Batch),
		Course:     strings.TrimSpace(f.Course),
	}
}

// Course is one entry of the course dropdown
type Course struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// FilterOptions holds the dropdown contents for each enabled level
type FilterOptions struct {
	Degrees     []string `json:"degrees"`
	Departments []string `json:"departments"`
	Batches     []string `json:"batches"`
	Courses     []Course `json:"courses"`
}
