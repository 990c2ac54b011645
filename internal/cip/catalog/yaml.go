package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// classYAML is the YAML representation with string hex values.
type classYAML struct {
	Class      string       `yaml:"class"`
	Name       string       `yaml:"name"`
	Attributes []*Attribute `yaml:"attributes"`
}

type attributeYAML struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Size        int    `yaml:"size"`
	Description string `yaml:"description,omitempty"`
}

// UnmarshalYAML implements yaml.Unmarshaler for Class.
func (c *Class) UnmarshalYAML(value *yaml.Node) error {
	var raw classYAML
	if err := value.Decode(&raw); err != nil {
		return err
	}
	id, err := parseHexUint16(raw.Class)
	if err != nil {
		return fmt.Errorf("class: %w", err)
	}
	*c = Class{ID: id, Name: raw.Name, Attributes: raw.Attributes}
	return nil
}

// MarshalYAML implements yaml.Marshaler for Class.
func (c Class) MarshalYAML() (interface{}, error) {
	return classYAML{
		Class:      fmt.Sprintf("0x%02X", c.ID),
		Name:       c.Name,
		Attributes: c.Attributes,
	}, nil
}

// UnmarshalYAML implements yaml.Unmarshaler for Attribute.
func (a *Attribute) UnmarshalYAML(value *yaml.Node) error {
	var raw attributeYAML
	if err := value.Decode(&raw); err != nil {
		return err
	}
	id, err := parseHexUint16(raw.ID)
	if err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*a = Attribute{ID: id, Name: raw.Name, Size: raw.Size, Description: raw.Description}
	return nil
}

// MarshalYAML implements yaml.Marshaler for Attribute.
func (a Attribute) MarshalYAML() (interface{}, error) {
	return attributeYAML{
		ID:          fmt.Sprintf("0x%02X", a.ID),
		Name:        a.Name,
		Size:        a.Size,
		Description: a.Description,
	}, nil
}

// ParseID parses a class or attribute id written as hex ("0x01") or decimal.
func ParseID(s string) (uint16, error) {
	if strings.TrimSpace(s) == "" {
		return 0, fmt.Errorf("empty id")
	}
	return parseHexUint16(s)
}

func parseHexUint16(s string) (uint16, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	var base int
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	} else {
		base = 10
	}

	v, err := strconv.ParseUint(s, base, 16)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", s, err)
	}

	return uint16(v), nil
}
