package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTextLength is the longest todo text accepted, counted in characters.
const MaxTextLength = 255

// Todo is a single item owned by exactly one user.
type Todo struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;index:idx_todos_user_created,priority:1"`
	Text      string    `gorm:"type:varchar(255);not null"`
	Completed bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"index:idx_todos_user_created,priority:2"`
	UpdatedAt time.Time
}

// TodoPatch carries the fields of a partial update. Nil fields are left untouched.
type TodoPatch struct {
	Text      *string
	Completed *bool
}

// IsEmpty reports whether the patch would change nothing.
func (p TodoPatch) IsEmpty() bool {
	return p.Text == nil && p.Completed == nil
}

// NormalizeText trims surrounding whitespace and checks the length bounds.
// NUL characters are rejected because PostgreSQL text columns cannot store them.
func NormalizeText(text string) (string, error) {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return "", NewValidationError("text", "The text field is required.")
	case strings.ContainsRune(text, 0):
		return "", NewValidationError("text", "The text field must not contain NUL characters.")
	case utf8.RuneCountInString(text) > MaxTextLength:
		return "", NewValidationError("text", "The text field must not be greater than 255 characters.")
	}
	return text, nil
}
