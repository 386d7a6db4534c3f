package request

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

var (
	// nameRegex bounds every caller-chosen identifier: client ids, user ids,
	// host accounts. Lowercase, starts with a letter, at most 63 characters.
	nameRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,62}$`)

	// fingerprintRegex matches the SHA-256 key fingerprints the generator
	// produces. Lookups run on the exact stored string, so anything else can
	// be rejected before touching the database.
	fingerprintRegex = regexp.MustCompile(`^SHA256:[A-Za-z0-9+/]{6,64}={0,2}$`)
)

func init() {
	validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return nameRegex.MatchString(fl.Field().String())
	})
	validate.RegisterValidation("fingerprint", func(fl validator.FieldLevel) bool {
		return fingerprintRegex.MatchString(fl.Field().String())
	})
}

// Decode unmarshals and validates a JSON request body.
func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	return nil
}

// RequireID rejects empty path parameters.
func RequireID(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("missing required ID")
	}
	return s, nil
}
