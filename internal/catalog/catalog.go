// Package catalog exposes the fixed category catalog the app ships with.
// Categories are compiled into the binary; the server treats the category
// field as an opaque string, so the catalog only drives selection and
// display.
package catalog

import (
	_ "embed"
	"fmt"

	"github.com/BurntSushi/toml"

	"saldo/internal/core"
)

//go:embed categories.toml
var categoriesTOML []byte

// Category is one selectable entry: value is the wire key, label the
// short display name, icon a material icon name, color a hex color for
// chart legends.
type Category struct {
	Value string `toml:"value"`
	Label string `toml:"label"`
	Icon  string `toml:"icon"`
	Color string `toml:"color"`
}

type catalogFile struct {
	Expense []Category `toml:"expense"`
	Income  []Category `toml:"income"`
}

var catalog catalogFile

func init() {
	if err := toml.Unmarshal(categoriesTOML, &catalog); err != nil {
		panic(fmt.Sprintf("catalog: invalid embedded categories.toml: %v", err))
	}
}

// ForType returns the catalog entries for a transaction type. The
// returned slice is a copy.
func ForType(typ core.TransactionType) []Category {
	switch typ {
	case core.Income:
		return append([]Category(nil), catalog.Income...)
	case core.Expense:
		return append([]Category(nil), catalog.Expense...)
	default:
		return nil
	}
}

// Lookup finds a catalog entry by its wire value.
func Lookup(typ core.TransactionType, value string) (Category, bool) {
	for _, c := range ForType(typ) {
		if c.Value == value {
			return c, true
		}
	}
	return Category{}, false
}
