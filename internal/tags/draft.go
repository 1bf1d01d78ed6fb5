package tags

import (
	"collabiora-client/internal/utils"

	"github.com/go-playground/validator/v10"
)

// ThreadDraft is a new-thread submission as entered by the user, validated
// before any network request is issued.
type ThreadDraft struct {
	Title         string   `json:"title" validate:"required,min=3,max=300"`
	Body          string   `json:"body" validate:"required"`
	Tags          []string `json:"tags" validate:"required,mandatorytag"`
	Conditions    []string `json:"conditions"`
	CommunityID   string   `json:"communityId"`
	SubcategoryID string   `json:"subcategoryId"`
}

var draftValidator = newDraftValidator()

func newDraftValidator() *validator.Validate {
	v := validator.New()
	// A thread must carry at least one tag from the platform's closed set.
	_ = v.RegisterValidation("mandatorytag", func(fl validator.FieldLevel) bool {
		threadTags, ok := fl.Field().Interface().([]string)
		if !ok {
			return false
		}
		return HasMandatoryTag(threadTags)
	})
	return v
}

// ValidateDraft runs the boundary invariant for new threads. The returned
// error is a ValidationFailure AppError suitable for surfacing directly.
func ValidateDraft(draft *ThreadDraft) error {
	if err := draftValidator.Struct(draft); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			for _, fieldErr := range errs {
				if fieldErr.Tag() == "mandatorytag" {
					return utils.NewValidationFailureError(
						"thread must include at least one platform tag (e.g. " + MandatoryVocabulary[0] + ")")
				}
			}
		}
		return utils.NewAppError(utils.ErrValidationFailure, "invalid thread draft", err)
	}
	return nil
}
