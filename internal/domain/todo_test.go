package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain", in: "buy milk", want: "buy milk"},
		{name: "trims surrounding whitespace", in: "  buy milk\n", want: "buy milk"},
		{name: "empty", in: "", wantErr: true},
		{name: "whitespace only", in: "   \t", wantErr: true},
		{name: "exactly max length", in: strings.Repeat("a", MaxTextLength), want: strings.Repeat("a", MaxTextLength)},
		{name: "one over max length", in: strings.Repeat("a", MaxTextLength+1), wantErr: true},
		{name: "contains NUL", in: "a\x00b", wantErr: true},
		{name: "only NUL", in: "\x00", wantErr: true},
		{name: "multibyte counted as characters", in: strings.Repeat("é", MaxTextLength), want: strings.Repeat("é", MaxTextLength)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeText(tt.in)
			if tt.wantErr {
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("NormalizeText(%q) error = %v, want ValidationError", tt.in, err)
				}
				if _, ok := ve.Fields["text"]; !ok {
					t.Errorf("expected error keyed by text, got %v", ve.Fields)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeText(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTodoPatchIsEmpty(t *testing.T) {
	done := true
	if !(TodoPatch{}).IsEmpty() {
		t.Error("zero patch should be empty")
	}
	if (TodoPatch{Completed: &done}).IsEmpty() {
		t.Error("patch with completed should not be empty")
	}
}

func TestValidationErrorMessageIsSorted(t *testing.T) {
	ve := NewValidationError("text", "bad text")
	ve.Add("completed", "bad flag")

	want := "validation failed: completed: bad flag; text: bad text"
	if ve.Error() != want {
		t.Errorf("Error() = %q, want %q", ve.Error(), want)
	}
	if !IsValidation(ve) {
		t.Error("IsValidation should recognise *ValidationError")
	}
	if IsValidation(ErrTodoNotFound) {
		t.Error("IsValidation should reject unrelated errors")
	}
}
