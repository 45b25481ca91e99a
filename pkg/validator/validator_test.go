package validator

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
)

type stakeholderInput struct {
	Name  string `validate:"required"`
	Email string `validate:"omitempty,email"`
	Role  string `validate:"required,stakeholder_role"`
}

type sessionInput struct {
	Type   string `validate:"required,session_type"`
	Status string `validate:"omitempty,session_status"`
}

func TestValidate_DomainTags(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		input   interface{}
		wantTag string
	}{
		{"known role", stakeholderInput{Name: "Ana", Role: "civil_society"}, ""},
		{"unknown role", stakeholderInput{Name: "Ana", Role: "lobbyist"}, "stakeholder_role"},
		{"bad email", stakeholderInput{Name: "Ana", Email: "nope", Role: "executive"}, "email"},
		{"known type", sessionInput{Type: "ai_adoption"}, ""},
		{"unknown type", sessionInput{Type: "sports"}, "session_type"},
		{"known status", sessionInput{Type: "climate", Status: "completed"}, ""},
		{"unknown status", sessionInput{Type: "climate", Status: "archived"}, "session_status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.input)
			if tt.wantTag == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) || len(verrs) != 1 {
				t.Fatalf("expected one validation error, got %v", err)
			}
			if verrs[0].Tag() != tt.wantTag {
				t.Errorf("tag = %q, want %q", verrs[0].Tag(), tt.wantTag)
			}
		})
	}
}

func TestMustRegister_PanicsOnBadTag(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a panic for an empty tag")
		}
	}()
	mustRegister(validator.New(), "", func(validator.FieldLevel) bool { return true })
}
