// Package category holds the ordered category table used to classify files
// by extension.
package category

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// Others is the fallback category for extensions no category claims.
const Others = "Others"

// ErrInvalidCategory is returned for category definitions that cannot be used.
var ErrInvalidCategory = errors.New("invalid category")

// Category is a named bucket of lowercase extensions, each with a leading dot.
type Category struct {
	Name       string
	Extensions []string
}

// Table is an ordered sequence of categories. Lookups scan it in order and the
// first category containing an extension wins.
type Table struct {
	categories []Category
}

// New creates a table from the given categories, applying Set for each one.
func New(categories ...Category) *Table {
	t := &Table{}
	for _, c := range categories {
		t.Set(c.Name, c.Extensions)
	}

	return t
}

// Default returns the built-in table.
func Default() *Table {
	return New(
		Category{Name: "Images", Extensions: []string{".jpg", ".jpeg", ".png", ".gif", ".bmp"}},
		Category{Name: "Videos", Extensions: []string{".mp4", ".mkv", ".avi", ".mov"}},
		Category{Name: "Documents", Extensions: []string{".pdf", ".docx", ".txt", ".pptx", ".xlsx"}},
		Category{Name: "Music", Extensions: []string{".mp3", ".wav", ".aac"}},
		Category{Name: "Archives", Extensions: []string{".zip", ".rar", ".tar", ".7z"}},
	)
}

// Set replaces the extensions of an existing category in place, keeping its
// position, or appends a new category at the end.
func (t *Table) Set(name string, extensions []string) {
	normalized := normalizeExtensions(extensions)

	for i := range t.categories {
		if t.categories[i].Name == name {
			t.categories[i].Extensions = normalized
			return
		}
	}

	t.categories = append(t.categories, Category{Name: name, Extensions: normalized})
}

// Merge applies Set for every category of other, in other's order.
func (t *Table) Merge(other *Table) {
	if other == nil {
		return
	}

	for _, c := range other.categories {
		t.Set(c.Name, c.Extensions)
	}
}

// Match returns the first category whose list contains ext, or Others.
func (t *Table) Match(ext string) string {
	ext = strings.ToLower(ext)

	for _, c := range t.categories {
		if slices.Contains(c.Extensions, ext) {
			return c.Name
		}
	}

	return Others
}

// Classify returns the category for a file name.
func (t *Table) Classify(filename string) string {
	return t.Match(ExtensionOf(filename))
}

// Categories returns a copy of the table contents in lookup order.
func (t *Table) Categories() []Category {
	out := make([]Category, len(t.categories))
	for i, c := range t.categories {
		out[i] = Category{Name: c.Name, Extensions: slices.Clone(c.Extensions)}
	}

	return out
}

// Names returns category names in lookup order.
func (t *Table) Names() []string {
	names := make([]string, len(t.categories))
	for i, c := range t.categories {
		names[i] = c.Name
	}

	return names
}

// Len returns the number of categories.
func (t *Table) Len() int {
	return len(t.categories)
}

// Clone returns an independent copy of the table.
func (t *Table) Clone() *Table {
	return &Table{categories: t.Categories()}
}

// ExtensionOf returns the lowercase final extension of filename, including
// the dot. Leading dots are part of the name, so ".gitignore" has none.
func ExtensionOf(filename string) string {
	base := filepath.Base(filename)
	trimmed := strings.TrimLeft(base, ".")

	return strings.ToLower(filepath.Ext(trimmed))
}

// ParseExtensions splits a comma-separated extension list. Tokens are trimmed
// and lowercased. Empty tokens are kept as "", which matches files without an
// extension, so "Code=.go," also claims Makefile. A leading dot is not
// enforced.
func ParseExtensions(csv string) []string {
	parts := strings.Split(csv, ",")

	return normalizeExtensions(parts)
}

// Parse reads a "Name=.ext1, .ext2" definition.
func Parse(definition string) (Category, error) {
	name, exts, ok := strings.Cut(definition, "=")
	if !ok {
		return Category{}, fmt.Errorf("%w: %q: expected Name=.ext1,.ext2", ErrInvalidCategory, definition)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, fmt.Errorf("%w: %q: empty name", ErrInvalidCategory, definition)
	}

	return Category{Name: name, Extensions: ParseExtensions(exts)}, nil
}

func normalizeExtensions(extensions []string) []string {
	out := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		out = append(out, strings.ToLower(strings.TrimSpace(ext)))
	}

	return out
}
