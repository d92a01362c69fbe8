package models

import (
	"fmt"
	"strings"

	apperrors "github.com/j-veylop/omni-quota/internal/errors"
)

// Validation failure codes.
const (
	InvalidEmptyName       = "empty_name"
	InvalidPlaceholderName = "placeholder_name"
	InvalidShortName       = "short_name"
	InvalidNoModels        = "no_models"
	InvalidNoValidModels   = "no_valid_models"
)

// placeholderNames are non-identifying display names, compared exactly after
// trimming and lower-casing.
var placeholderNames = map[string]struct{}{
	"undefined": {},
	"account":   {},
	"usuario":   {},
	"user":      {},
	"guest":     {},
	"unknown":   {},
}

// IsPlaceholderName reports whether name is a known placeholder.
func IsPlaceholderName(name string) bool {
	_, ok := placeholderNames[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Validate rejects placeholder or incomplete account data. It returns a
// *errors.ValidationError describing the first failed rule.
func Validate(rec *AccountRecord) error {
	name := strings.TrimSpace(rec.Name())
	switch {
	case name == "":
		return &apperrors.ValidationError{Code: InvalidEmptyName, Reason: "display name is empty"}
	case IsPlaceholderName(name):
		return &apperrors.ValidationError{
			Code:   InvalidPlaceholderName,
			Reason: fmt.Sprintf("placeholder display name %q", strings.ToLower(name)),
		}
	case len([]rune(name)) < 2:
		return &apperrors.ValidationError{
			Code:   InvalidShortName,
			Reason: fmt.Sprintf("display name %q too short", name),
		}
	case len(rec.Models) == 0:
		return &apperrors.ValidationError{Code: InvalidNoModels, Reason: "no models data"}
	}

	for _, m := range rec.Models {
		if strings.TrimSpace(m.Name) != "" && m.Percentage >= 0 && m.Percentage <= 100 {
			return nil
		}
	}
	return &apperrors.ValidationError{
		Code:   InvalidNoValidModels,
		Reason: "no model with a name and a percentage in 0-100",
	}
}
