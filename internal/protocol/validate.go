package protocol

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/microcosm-cc/bluemonday"
)

// Validator: validation of stroke events and sanitization of room identifiers
type Validator struct {
	validate  *validator.Validate
	sanitizer *bluemonday.Policy
}

func NewValidator() *Validator {
	return &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		// removes all HTML/scripts
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// ValidateEvent checks a stroke event against the schema limits and verifies
// the color is a parseable hex color
func (v *Validator) ValidateEvent(ev *Event) error {
	if ev == nil {
		return fmt.Errorf("missing event data")
	}
	if err := v.validate.Struct(ev); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			return fmt.Errorf("invalid event: '%s' out of allowed range", fieldErrs[0].Field())
		}
		return fmt.Errorf("invalid event: %w", err)
	}
	if _, err := colorful.Hex(ev.Color); err != nil {
		return fmt.Errorf("invalid event: color must be a hex color")
	}
	return nil
}

// CleanRoomID sanitizes and case-normalizes a room identifier.
// Returns the empty string when nothing usable remains.
func (v *Validator) CleanRoomID(roomID string) string {
	cleaned := v.sanitizer.Sanitize(roomID)
	return strings.ToLower(strings.TrimSpace(cleaned))
}
