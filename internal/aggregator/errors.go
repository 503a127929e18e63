package aggregator

import (
	"errors"

	"socmint/internal/profile"
)

// ErrorDocument maps an Aggregate error onto the caller-visible error shape.
func ErrorDocument(err error) profile.ErrorDocument {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return profile.ErrorDocument{Error: ErrUserNotFound.Error()}
	case errors.Is(err, ErrProfileFetch):
		return profile.ErrorDocument{Error: ErrProfileFetch.Error()}
	default:
		return profile.ErrorDocument{Error: err.Error()}
	}
}
