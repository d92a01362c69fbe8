package models

import (
	"errors"
	"testing"

	apperrors "github.com/j-veylop/omni-quota/internal/errors"
)

func TestValidate(t *testing.T) {
	okModels := []ModelQuota{{Name: "Pro", Percentage: 42}}

	tests := []struct {
		name     string
		rec      AccountRecord
		wantCode string
	}{
		{"valid", AccountRecord{DisplayName: "Alice", Models: okModels}, ""},
		{"empty name", AccountRecord{DisplayName: "   ", Models: okModels}, InvalidEmptyName},
		{"placeholder", AccountRecord{DisplayName: "Usuario", Models: okModels}, InvalidPlaceholderName},
		{"placeholder padded", AccountRecord{DisplayName: "  GUEST ", Models: okModels}, InvalidPlaceholderName},
		{"placeholder substring is fine", AccountRecord{DisplayName: "Username", Models: okModels}, ""},
		{"short", AccountRecord{DisplayName: "A", Models: okModels}, InvalidShortName},
		{"no models", AccountRecord{DisplayName: "Alice"}, InvalidNoModels},
		{"placeholder beats no models", AccountRecord{DisplayName: "Usuario"}, InvalidPlaceholderName},
		{
			"no valid models",
			AccountRecord{DisplayName: "Alice", Models: []ModelQuota{{Name: "", Percentage: 10}, {Name: "X", Percentage: 101}}},
			InvalidNoValidModels,
		},
		{
			"one valid model is enough",
			AccountRecord{DisplayName: "Alice", Models: []ModelQuota{{Name: "", Percentage: 10}, {Name: "X", Percentage: 0}}},
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.rec)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}

			var verr *apperrors.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if verr.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", verr.Code, tt.wantCode)
			}
		})
	}
}

func TestIsPlaceholderName(t *testing.T) {
	for _, name := range []string{"undefined", "Account", " user ", "UNKNOWN"} {
		if !IsPlaceholderName(name) {
			t.Errorf("IsPlaceholderName(%q) = false, want true", name)
		}
	}
	if IsPlaceholderName("Alice") {
		t.Error("IsPlaceholderName(Alice) = true")
	}
}
