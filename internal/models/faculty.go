package models

import (
	"encoding/json"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Faculty is a faculty record as returned by the backend. Fields the dashboard
// does not display are kept in Extra so the record round-trips unchanged into
// report payloads.
type Faculty struct {
	StaffID     string `json:"staff_id,omitempty"`
	LegacyID    string `json:"staffid,omitempty"`
	FacultyName string `json:"faculty_name,omitempty"`
	CourseCode  string `json:"course_code,omitempty"`
	CourseName  string `json:"course_name,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var facultyKnownFields = map[string]struct{}{
	"staff_id":     {},
	"staffid":      {},
	"faculty_name": {},
	"course_code":  {},
	"course_name":  {},
}

func (f *Faculty) UnmarshalJSON(data []byte) error {
	type plain Faculty
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key := range facultyKnownFields {
		delete(raw, key)
	}
	if len(raw) > 0 {
		p.Extra = raw
	}

	*f = Faculty(p)
	return nil
}

func (f Faculty) MarshalJSON() ([]byte, error) {
	type plain Faculty
	known, err := json.Marshal(plain(f))
	if err != nil {
		return nil, err
	}
	if len(f.Extra) == 0 {
		return known, nil
	}

	merged := make(map[string]json.RawMessage, len(f.Extra)+len(facultyKnownFields))
	for k, v := range f.Extra {
		merged[k] = v
	}
	var knownMap map[string]json.RawMessage
	if err := json.Unmarshal(known, &knownMap); err != nil {
		return nil, err
	}
	for k, v := range knownMap {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// ID returns staff_id, falling back to the legacy staffid field
func (f Faculty) ID() string {
	if f.StaffID != "" {
		return f.StaffID
	}
	return f.LegacyID
}

// Initials returns the uppercased first letters of the first and last name
// parts, or "?" when the name is empty.
func (f Faculty) Initials() string {
	parts := strings.FieldsFunc(f.FacultyName, unicode.IsSpace)
	if len(parts) == 0 {
		return "?"
	}

	first, _ := utf8.DecodeRuneInString(parts[0])
	initials := string(first)
	if len(parts) > 1 {
		last, _ := utf8.DecodeRuneInString(parts[len(parts)-1])
		initials += string(last)
	}

	initials = strings.ToUpper(initials)
	if initials == "" {
		return "?"
	}
	return initials
}
