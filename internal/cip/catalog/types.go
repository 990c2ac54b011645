// Package catalog provides the CIP attribute catalog: per-class attribute
// widths used as size hints when decoding attribute list replies.
package catalog

import (
	"fmt"
	"sort"
)

// Attribute describes one attribute of a class. Size is the fixed on-wire
// width of the value in bytes.
type Attribute struct {
	ID          uint16 `yaml:"id"`
	Name        string `yaml:"name"`
	Size        int    `yaml:"size"`
	Description string `yaml:"description,omitempty"`
}

// Class describes one object class and its fixed-width attributes.
type Class struct {
	ID         uint16       `yaml:"class"`
	Name       string       `yaml:"name"`
	Attributes []*Attribute `yaml:"attributes"`
}

// Attribute finds an attribute by id.
func (c *Class) Attribute(id uint16) (*Attribute, bool) {
	for _, a := range c.Attributes {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}

// IDs returns the attribute ids in catalog order.
func (c *Class) IDs() []uint16 {
	ids := make([]uint16, len(c.Attributes))
	for i, a := range c.Attributes {
		ids[i] = a.ID
	}
	return ids
}

// File represents a catalog YAML file.
type File struct {
	Version int      `yaml:"version"`
	Name    string   `yaml:"name"`
	Classes []*Class `yaml:"classes"`
}

// Catalog provides indexed access to a validated catalog file.
type Catalog struct {
	file    *File
	byClass map[uint16]*Class
}

// NewCatalog validates file and indexes it.
func NewCatalog(file *File) (*Catalog, error) {
	if err := file.Validate(); err != nil {
		return nil, err
	}
	c := &Catalog{file: file, byClass: make(map[uint16]*Class, len(file.Classes))}
	for _, cls := range file.Classes {
		c.byClass[cls.ID] = cls
	}
	return c, nil
}

// Name returns the catalog name.
func (c *Catalog) Name() string { return c.file.Name }

// Class finds a class by id.
func (c *Catalog) Class(id uint16) (*Class, bool) {
	cls, ok := c.byClass[id]
	return cls, ok
}

// Classes returns every class ordered by id.
func (c *Catalog) Classes() []*Class {
	out := make([]*Class, len(c.file.Classes))
	copy(out, c.file.Classes)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SizeHints returns the value width of each requested attribute, in request
// order. Every id must be cataloged for the class.
func (c *Catalog) SizeHints(class uint16, ids []uint16) ([]int, error) {
	cls, ok := c.byClass[class]
	if !ok {
		return nil, fmt.Errorf("class 0x%02X not in catalog %q", class, c.file.Name)
	}
	sizes := make([]int, len(ids))
	for i, id := range ids {
		attr, ok := cls.Attribute(id)
		if !ok {
			return nil, fmt.Errorf("attribute 0x%02X not in catalog for class 0x%02X (%s)", id, class, cls.Name)
		}
		sizes[i] = attr.Size
	}
	return sizes, nil
}

// File returns the underlying catalog file.
func (c *Catalog) File() *File {
	return c.file
}
