package catalog

import (
	"fmt"

	"github.com/tturner/cipwire/internal/cip/spec"
)

// ValidationError represents a catalog validation error.
type ValidationError struct {
	Key     string
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Key, e.Field, e.Message)
}

// Validate checks the catalog file for consistency and returns the first
// problem found.
func (f *File) Validate() error {
	if f.Version != 1 {
		return fmt.Errorf("unsupported catalog version: %d", f.Version)
	}
	if len(f.Classes) == 0 {
		return fmt.Errorf("catalog %q has no classes", f.Name)
	}

	classes := make(map[uint16]bool)
	for i, cls := range f.Classes {
		if cls == nil {
			return fmt.Errorf("class %d: empty entry", i)
		}
		key := fmt.Sprintf("class 0x%02X", cls.ID)
		if cls.ID == 0 {
			return ValidationError{Key: fmt.Sprintf("class %d", i), Field: "class", Message: "missing class id"}
		}
		if classes[cls.ID] {
			return ValidationError{Key: key, Field: "class", Message: "duplicate class id"}
		}
		classes[cls.ID] = true

		attrs := make(map[uint16]bool)
		for j, attr := range cls.Attributes {
			if attr == nil {
				return ValidationError{Key: key, Field: fmt.Sprintf("attributes[%d]", j), Message: "empty entry"}
			}
			if attrs[attr.ID] {
				return ValidationError{Key: key, Field: fmt.Sprintf("attribute 0x%02X", attr.ID), Message: "duplicate attribute id"}
			}
			attrs[attr.ID] = true
			if attr.Size <= 0 || attr.Size > 0xFFFF {
				return ValidationError{Key: key, Field: fmt.Sprintf("attribute 0x%02X", attr.ID), Message: fmt.Sprintf("invalid size %d", attr.Size)}
			}
		}
	}
	return nil
}

// Lint returns warnings for entries that are valid but suspicious: classes
// without a known name and classes without attributes.
func Lint(c *Catalog) []ValidationError {
	var warnings []ValidationError
	for _, cls := range c.Classes() {
		key := fmt.Sprintf("class 0x%02X", cls.ID)
		if !spec.IsKnownClass(cls.ID) {
			warnings = append(warnings, ValidationError{
				Key:     key,
				Field:   "class",
				Message: fmt.Sprintf("unknown class code 0x%02X", cls.ID),
			})
		} else if cls.Name == "" {
			warnings = append(warnings, ValidationError{
				Key:     key,
				Field:   "name",
				Message: fmt.Sprintf("missing name, known as %q", spec.ClassName(cls.ID)),
			})
		}
		if len(cls.Attributes) == 0 {
			warnings = append(warnings, ValidationError{
				Key:     key,
				Field:   "attributes",
				Message: "no attributes",
			})
		}
	}
	return warnings
}
