package validator

import (
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/brainmetric/quiz-service/internal/models"
)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateImportRow checks one bulk-import row before anything is written
func (bv *BusinessValidator) ValidateImportRow(row *models.ImportRow) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(row.Text) == "" {
		errs = append(errs, ValidationError{Field: "text", Message: "is required", Rule: "required"})
	}
	if strings.TrimSpace(row.CorrectAnswer) == "" {
		errs = append(errs, ValidationError{Field: "correct_answer", Message: "is required", Rule: "required"})
	}
	if row.Category != "" && !models.IsKnownCategory(row.Category) {
		errs = append(errs, ValidationError{Field: "category", Message: "is not a known category", Value: row.Category, Rule: "category"})
	}
	if row.ExposureTime < 0 {
		errs = append(errs, ValidationError{Field: "exposure_time", Message: "must not be negative", Value: row.ExposureTime, Rule: "min"})
	}
	if row.AnswerTime < 0 {
		errs = append(errs, ValidationError{Field: "answer_time", Message: "must not be negative", Value: row.AnswerTime, Rule: "min"})
	}

	return errs
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	bv.validate.RegisterValidation("nav_action", func(fl validator.FieldLevel) bool {
		switch models.NavAction(fl.Field().String()) {
		case models.NavNext, models.NavPrev, models.NavFinish:
			return true
		}
		return false
	})

	bv.validate.RegisterValidation("language", func(fl validator.FieldLevel) bool {
		return slices.Contains(models.SupportedLanguages, fl.Field().String())
	})

	// Categories the bot can train on
	bv.validate.RegisterValidation("bot_category", func(fl validator.FieldLevel) bool {
		c := fl.Field().String()
		return models.IsKnownCategory(c) && models.Category(c) != models.CategoryPsychology
	})

	bv.validate.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return models.IsKnownCategory(fl.Field().String())
	})

	bv.validate.RegisterValidation("plan", func(fl validator.FieldLevel) bool {
		switch models.Plan(fl.Field().String()) {
		case models.PlanFree, models.PlanPremium, models.PlanHR:
			return true
		}
		return false
	})
}
