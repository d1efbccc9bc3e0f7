package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dvloznov/upi-tracker/internal/domain"
)

// ErrUnknownCategory is returned for a category that matches neither a key
// nor a label.
var ErrUnknownCategory = errors.New("unknown category")

// CategoryValidator maps the category column to category keys.
type CategoryValidator struct {
	byKey   map[string]string
	byLabel map[string]string
}

// NewCategoryValidator creates a validator for the given categories.
func NewCategoryValidator(list []domain.Category) *CategoryValidator {
	v := &CategoryValidator{
		byKey:   make(map[string]string, len(list)),
		byLabel: make(map[string]string, len(list)),
	}
	for _, c := range list {
		v.byKey[normalizeCategory(c.Key)] = c.Key
		// First label wins when two categories share one.
		if _, ok := v.byLabel[normalizeCategory(c.Label)]; !ok {
			v.byLabel[normalizeCategory(c.Label)] = c.Key
		}
	}
	return v
}

// ValidateCategory returns the key for name, matched first against keys and
// then against labels.
func (v *CategoryValidator) ValidateCategory(name string) (string, error) {
	norm := normalizeCategory(name)
	if key, ok := v.byKey[norm]; ok {
		return key, nil
	}
	if key, ok := v.byLabel[norm]; ok {
		return key, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, name)
}

// normalizeCategory lowercases, trims and collapses inner whitespace.
func normalizeCategory(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
