package weather

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrMissingAPIKey     = errors.New("openweather api key is not configured")
	ErrEmptyCity         = errors.New("city name is empty")
	ErrCityNotFound      = errors.New("city not found")
	ErrMalformedResponse = errors.New("malformed weather response")
)

// ProviderError is a non-2xx answer from the weather provider.
type ProviderError struct {
	Status int
	// Message is the provider's own explanation, if it sent one.
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("provider returned status %d", e.Status)
	}
	return fmt.Sprintf("provider returned status %d: %s", e.Status, e.Message)
}

// Kind classifies a DisplayError.
type Kind int

const (
	KindConfig Kind = iota
	KindValidation
	KindNotFound
	KindProvider
	KindPermission
	KindTimeout
	KindLocation
	KindPersistence
	KindAlreadyExists
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindProvider:
		return "provider"
	case KindPermission:
		return "permission"
	case KindTimeout:
		return "timeout"
	case KindLocation:
		return "location"
	case KindPersistence:
		return "persistence"
	case KindAlreadyExists:
		return "already_exists"
	}
	return "unknown"
}

// DisplayError is the single user-facing form every operation failure is
// converted to. Error returns the message meant for the user; the cause is
// kept for logs and errors.Is.
type DisplayError struct {
	Kind    Kind
	Message string
	Err     error
}

func NewDisplayError(kind Kind, message string, cause error) *DisplayError {
	return &DisplayError{Kind: kind, Message: message, Err: cause}
}

func (e *DisplayError) Error() string { return e.Message }

func (e *DisplayError) Unwrap() error { return e.Err }

// AsDisplayError returns the DisplayError inside err, if any.
func AsDisplayError(err error) (*DisplayError, bool) {
	var de *DisplayError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// Message returns the text to show for err. Errors that never went through
// a boundary conversion get a generic message.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if de, ok := AsDisplayError(err); ok {
		return de.Message
	}
	return "An unexpected error occurred."
}

const (
	msgMissingKey = "OpenWeatherMap API key is missing."
	msgEmptyCity  = "Please enter a city name."
)

// DescribeFetchError converts a provider failure for loc into a DisplayError.
// A 404 only means "city not found" for lookups by name.
func DescribeFetchError(loc Location, err error) *DisplayError {
	if de, ok := AsDisplayError(err); ok {
		return de
	}
	if errors.Is(err, ErrMissingAPIKey) {
		return NewDisplayError(KindConfig, msgMissingKey, err)
	}
	if errors.Is(err, ErrEmptyCity) {
		return NewDisplayError(KindValidation, msgEmptyCity, err)
	}

	subject := "weather"
	if loc.Kind == KindCoords {
		subject = "location weather"
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		if loc.Kind == KindCity && pe.Status == http.StatusNotFound {
			return NewDisplayError(KindNotFound, fmt.Sprintf("City %q not found.", loc.City),
				fmt.Errorf("%w: %w", ErrCityNotFound, err))
		}
		detail := pe.Message
		if detail == "" {
			detail = "Unknown error"
		}
		return NewDisplayError(KindProvider, fmt.Sprintf("Error fetching %s: %s", subject, detail), err)
	}

	return NewDisplayError(KindProvider, fmt.Sprintf("An unexpected error occurred while fetching %s.", subject), err)
}
