package validator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/iqac-kare/feedback-dashboard/internal/errors"
	"github.com/iqac-kare/feedback-dashboard/internal/models"
)

// QuestionValidator handles question catalog form validation
type QuestionValidator struct {
	validate *validator.Validate
}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator(validate *validator.Validate) *QuestionValidator {
	return &QuestionValidator{validate: validate}
}

// ValidateForm checks a question form before submission. Error fields use the
// form's input names: section_type, question, column_name, option_label_<i>
// and option_text_<i>.
func (v *QuestionValidator) ValidateForm(form *models.QuestionForm) ValidationErrors {
	if form == nil {
		return ValidationErrors{*errors.NewValidationError("question", "form is required", nil)}
	}

	normalized := *form
	normalized.Options = append([]models.Option(nil), form.Options...)
	normalized.Normalize()

	err := v.validate.Struct(&normalized)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{*errors.NewValidationError("form", err.Error(), nil)}
	}

	var out ValidationErrors
	for _, fe := range fieldErrs {
		converted := ToValidationErrors(validator.ValidationErrors{fe})
		if len(converted) == 0 {
			continue
		}
		ve := converted[0]
		ve.Field = formFieldName(fe)
		out = append(out, ve)
	}
	return out
}

// formFieldName maps a validator namespace such as
// "QuestionForm.options[2].option_text" to "option_text_2".
func formFieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	open := strings.Index(ns, "[")
	closing := strings.Index(ns, "]")
	if !strings.Contains(ns, "options[") || open < 0 || closing < open {
		return fe.Field()
	}

	index, err := strconv.Atoi(ns[open+1 : closing])
	if err != nil {
		return fe.Field()
	}
	return fmt.Sprintf("%s_%d", fe.Field(), index)
}
