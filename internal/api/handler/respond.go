package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iconidentify/vidgrab/internal/domain"
	"github.com/iconidentify/vidgrab/pkg/threads"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// errorStatus maps service errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidURL),
		errors.Is(err, domain.ErrUnsupportedPlatform),
		errors.Is(err, domain.ErrInvalidQuality),
		errors.Is(err, domain.ErrInvalidFilename):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrJobNotFound),
		errors.Is(err, domain.ErrFileNotFound),
		errors.Is(err, domain.ErrNoMedia),
		errors.Is(err, threads.ErrPostUnavailable),
		errors.Is(err, threads.ErrNoTokens):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrQueueFull):
		return http.StatusServiceUnavailable
	case threads.IsTransient(err):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage returns the client-facing text for err. Unsupported platforms
// list the accepted hosts.
func errorMessage(err error) string {
	if errors.Is(err, domain.ErrUnsupportedPlatform) {
		return fmt.Sprintf("%s. Supported platforms: %s", err, strings.Join(domain.SupportedPlatforms, ", "))
	}
	return err.Error()
}

// newValidator returns a validator that reports JSON field names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON reads a JSON body into dst and validates it. The returned error
// text is safe to send to the client.
func decodeJSON(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return errors.New("invalid request body")
	}
	if err := v.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errors.New("invalid request body")
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", fe.Field())
	case "url", "http_url":
		return fmt.Errorf("%s must be a valid URL", fe.Field())
	case "oneof":
		return fmt.Errorf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "max":
		return fmt.Errorf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Errorf("%s is invalid", fe.Field())
	}
}

// attachment returns a Content-Disposition value offering name as a download.
func attachment(name string) string {
	name = strings.NewReplacer(`"`, "", "\r", "", "\n", "").Replace(name)
	return `attachment; filename="` + name + `"`
}
