package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labels(opts []Option) []string {
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = o.OptionLabel
	}
	return out
}

func TestQuestionForm_NewStartsWithOptionA(t *testing.T) {
	f := NewQuestionForm()
	assert.False(t, f.IsEditing())
	assert.Equal(t, []string{"A"}, labels(f.Options))
}

func TestQuestionForm_AddOption(t *testing.T) {
	f := NewQuestionForm()
	f.AddOption()
	f.AddOption()
	assert.Equal(t, []string{"A", "B", "C"}, labels(f.Options))
}

func TestQuestionForm_RemoveOptionRelabels(t *testing.T) {
	f := NewQuestionForm()
	f.Options = []Option{
		{OptionLabel: "A", OptionText: "Poor"},
		{OptionLabel: "B", OptionText: "Average"},
		{OptionLabel: "C", OptionText: "Good"},
	}

	f.RemoveOption(1)

	assert.Equal(t, []string{"A", "B"}, labels(f.Options))
	assert.Equal(t, "Poor", f.Options[0].OptionText)
	assert.Equal(t, "Good", f.Options[1].OptionText)
}

func TestQuestionForm_RemoveLastOptionIsIgnored(t *testing.T) {
	f := NewQuestionForm()
	f.RemoveOption(0)
	assert.Len(t, f.Options, 1)

	f.AddOption()
	f.RemoveOption(5)
	assert.Len(t, f.Options, 2)
}

func TestQuestionForm_EditAndCancel(t *testing.T) {
	f := NewQuestionForm()
	f.LoadForEdit(Question{
		ID:          7,
		SectionType: SectionTeachingEffectiveness,
		Question:    "Explains concepts clearly",
		ColumnName:  "qn3",
		Options: []Option{
			{ID: 11, QuestionID: 7, OptionLabel: "A", OptionText: "Disagree"},
			{ID: 12, QuestionID: 7, OptionLabel: "B", OptionText: "Agree"},
		},
	})

	assert.True(t, f.IsEditing())
	assert.Equal(t, "qn3", f.ColumnName)
	assert.Equal(t, 0, f.Options[0].ID, "option ids are not carried into the form")

	f.Reset()
	assert.False(t, f.IsEditing())
	assert.Empty(t, f.Question)
	assert.Equal(t, []string{"A"}, labels(f.Options))
}

func TestQuestionForm_OptionsFor(t *testing.T) {
	f := NewQuestionForm()
	f.Options[0].OptionText = "Yes"
	opts := f.OptionsFor(42)
	require.Len(t, opts, 1)
	assert.Equal(t, 42, opts[0].QuestionID)
	assert.Equal(t, "A", opts[0].OptionLabel)
}

func TestSectionType_Valid(t *testing.T) {
	assert.True(t, SectionAssessmentFeedback.Valid())
	assert.False(t, SectionType("LAB WORK").Valid())
}

func TestFaculty_IDAndInitials(t *testing.T) {
	tests := []struct {
		name     string
		faculty  Faculty
		id       string
		initials string
	}{
		{"full name", Faculty{StaffID: "S1", FacultyName: "anita  rao kumar"}, "S1", "AK"},
		{"single word", Faculty{LegacyID: "L9", FacultyName: "Ravi"}, "L9", "R"},
		{"empty name", Faculty{}, "", "?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.id, tt.faculty.ID())
			assert.Equal(t, tt.initials, tt.faculty.Initials())
		})
	}
}

func TestFaculty_KeepsUnknownFields(t *testing.T) {
	raw := `{"staff_id":"S1","faculty_name":"Anita Rao","section":"A","semester":5}`

	var f Faculty
	require.NoError(t, json.Unmarshal([]byte(raw), &f))
	assert.Equal(t, "S1", f.StaffID)
	assert.Contains(t, f.Extra, "section")

	out, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}
