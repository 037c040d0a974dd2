package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/iqac-kare/feedback-dashboard/internal/models"
)

// columnNamePattern is the feedback sheet column naming scheme (qn1, qn2, ...)
var columnNamePattern = regexp.MustCompile(`^qn\d+$`)

// Validator is the main validator instance that combines all validation types
type Validator struct {
	structValidator   *validator.Validate
	businessValidator *BusinessValidator
	questionValidator *QuestionValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator:   structValidator,
		businessValidator: NewBusinessValidator(),
		questionValidator: NewQuestionValidator(structValidator),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate performs struct tag validation and converts failures to ValidationErrors
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		if errs := ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

// Question returns the question validator
func (v *Validator) Question() *QuestionValidator {
	return v.questionValidator
}

// Business returns the business validator
func (v *Validator) Business() *BusinessValidator {
	return v.businessValidator
}

// IsColumnName reports whether name follows the qn<integer> scheme
func IsColumnName(name string) bool {
	return columnNamePattern.MatchString(name)
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("section_type", validateSectionType)
	validate.RegisterValidation("column_name", validateColumnName)
	validate.RegisterValidation("report_kind", validateReportKind)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Custom validation functions
func validateSectionType(fl validator.FieldLevel) bool {
	return models.SectionType(fl.Field().String()).Valid()
}

func validateColumnName(fl validator.FieldLevel) bool {
	return IsColumnName(fl.Field().String())
}

func validateReportKind(fl validator.FieldLevel) bool {
	return models.ReportKind(fl.Field().String()).Valid()
}
