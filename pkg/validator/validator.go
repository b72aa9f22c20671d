package validator

import (
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"go-stockcount-ws/internal/model"
)

// ErrorResponse describes one failed validation rule on one field.
type ErrorResponse struct {
	FailedField string
	Tag         string
	Value       string
}

var validate = validator.New()

func init() {
	// uuid_required rejects the zero UUID, which BodyParser happily
	// produces for a missing or malformed id field.
	validate.RegisterValidation("uuid_required", func(fl validator.FieldLevel) bool {
		if id, ok := fl.Field().Interface().(uuid.UUID); ok {
			return id != uuid.Nil
		}
		return false
	})

	// workflow accepts only the known counting workflow tags. Pair with
	// omitempty on fields where an absent tag falls back to unit_count.
	validate.RegisterValidation("workflow", func(fl validator.FieldLevel) bool {
		switch v := fl.Field().Interface().(type) {
		case model.CountingWorkflow:
			return v.Valid()
		case string:
			return model.CountingWorkflow(v).Valid()
		}
		return false
	})
}

// ValidateStruct runs the struct's validate tags and flattens the
// failures; an empty slice means the value passed.
func ValidateStruct(data interface{}) []*ErrorResponse {
	var errors []*ErrorResponse
	err := validate.Struct(data)
	if err != nil {
		for _, err := range err.(validator.ValidationErrors) {
			var element ErrorResponse
			element.FailedField = err.StructNamespace()
			element.Tag = err.Tag()
			element.Value = err.Param()
			errors = append(errors, &element)
		}
	}
	return errors
}
