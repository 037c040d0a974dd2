package models

import "strings"

type SectionType string

const (
	SectionTeachingEffectiveness SectionType = "TEACHING EFFECTIVENESS"
	SectionClassroomDynamics     SectionType = "CLASSROOM DYNAMICS AND ENGAGEMENT"
	SectionAssessmentFeedback    SectionType = "ASSESSMENT AND FEEDBACK"
)

// SectionTypes lists the fixed section set in display order
var SectionTypes = []SectionType{
	SectionTeachingEffectiveness,
	SectionClassroomDynamics,
	SectionAssessmentFeedback,
}

func (s SectionType) Valid() bool {
	for _, t := range SectionTypes {
		if t == s {
			return true
		}
	}
	return false
}

type Question struct {
	ID          int         `json:"id"`
	SectionType SectionType `json:"section_type"`
	Question    string      `json:"question"`
	ColumnName  string      `json:"column_name"`
	Options     []Option    `json:"options,omitempty"`
}

type Option struct {
	ID          int    `json:"id,omitempty"`
	QuestionID  int    `json:"question_id,omitempty"`
	OptionLabel string `json:"option_label" validate:"required"`
	OptionText  string `json:"option_text" validate:"required"`
}

// QuestionForm is the add/edit state of the question manager. EditingID is
// zero while adding a new question.
type QuestionForm struct {
	EditingID   int         `json:"editing_id,omitempty"`
	SectionType SectionType `json:"section_type" validate:"required,section_type"`
	Question    string      `json:"question" validate:"required"`
	ColumnName  string      `json:"column_name" validate:"required,column_name"`
	Options     []Option    `json:"options" validate:"min=1,dive"`
}

// NewQuestionForm returns the empty add-new form with a single option A
func NewQuestionForm() *QuestionForm {
	f := &QuestionForm{}
	f.Reset()
	return f
}

// IsEditing reports whether the form edits an existing question
func (f *QuestionForm) IsEditing() bool {
	return f.EditingID != 0
}

// Reset discards in-progress edits and returns to the add-new state
func (f *QuestionForm) Reset() {
	f.EditingID = 0
	f.SectionType = ""
	f.Question = ""
	f.ColumnName = ""
	f.Options = []Option{{OptionLabel: OptionLabel(0)}}
}

// LoadForEdit pre-fills the form from an existing record
func (f *QuestionForm) LoadForEdit(q Question) {
	f.EditingID = q.ID
	f.SectionType = q.SectionType
	f.Question = q.Question
	f.ColumnName = q.ColumnName

	f.Options = make([]Option, 0, len(q.Options))
	for _, opt := range q.Options {
		f.Options = append(f.Options, Option{
			OptionLabel: opt.OptionLabel,
			OptionText:  opt.OptionText,
		})
	}
	if len(f.Options) == 0 {
		f.Options = []Option{{OptionLabel: OptionLabel(0)}}
	}
}

// AddOption appends an empty option labelled with the next letter
func (f *QuestionForm) AddOption() {
	f.Options = append(f.Options, Option{OptionLabel: OptionLabel(len(f.Options))})
}

// RemoveOption drops the option at index and relabels the remainder from A.
// The last remaining option cannot be removed.
func (f *QuestionForm) RemoveOption(index int) {
	if len(f.Options) <= 1 || index < 0 || index >= len(f.Options) {
		return
	}
	f.Options = append(f.Options[:index:index], f.Options[index+1:]...)
	f.Relabel()
}

// Relabel re-derives contiguous labels starting at 'A'
func (f *QuestionForm) Relabel() {
	for i := range f.Options {
		f.Options[i].OptionLabel = OptionLabel(i)
	}
}

// Normalize trims user input in place
func (f *QuestionForm) Normalize() {
	f.SectionType = SectionType(strings.TrimSpace(string(f.SectionType)))
	f.Question = strings.TrimSpace(f.Question)
	f.ColumnName = strings.TrimSpace(f.ColumnName)
	for i := range f.Options {
		f.Options[i].OptionLabel = strings.TrimSpace(f.Options[i].OptionLabel)
		f.Options[i].OptionText = strings.TrimSpace(f.Options[i].OptionText)
	}
}

// OptionsFor returns the options stamped with the owning question id
func (f *QuestionForm) OptionsFor(questionID int) []Option {
	out := make([]Option, len(f.Options))
	for i, opt := range f.Options {
		out[i] = Option{
			QuestionID:  questionID,
			OptionLabel: opt.OptionLabel,
			OptionText:  opt.OptionText,
		}
	}
	return out
}

// OptionLabel maps a zero-based position to A, B, C, ...
func OptionLabel(index int) string {
	return string(rune('A' + index))
}
