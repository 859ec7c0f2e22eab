// Package item provides the equipment spawner types: weapons and armor.
// Both carry the "item" capability so slots bound to it accept either.
package item

import (
	"github.com/vk/contentspec/internal/spec"
)

// Capability tags every type of this package.
const Capability = "item"

// Type identifiers.
const (
	WeaponID = "item.weapon"
	ArmorID  = "item.armor"
)

// Item is what slots bound to Capability hold.
type Item interface {
	spec.Spawner
	Name() (string, error)
	Weight() (float64, error)
}

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the item types.
func (m *Module) Register(r *spec.Registry) {
	spec.RegisterSpawner(r, WeaponID, NewWeapon, Capability)
	spec.RegisterSpawner(r, ArmorID, NewArmor, Capability)
}

// Material is what an item is made of.
type Material int

const (
	Wood Material = iota
	Iron
	Steel
)

var materialNames = map[Material]string{Wood: "wood", Iron: "iron", Steel: "steel"}

func (m Material) String() string { return materialNames[m] }

func material(s *spec.Spec) spec.ScalarIndexer[Material] {
	return spec.Choice(s, []Material{Wood, Iron, Steel}, Material.String)
}

// common reads the keys every item shares.
type common struct {
	spec *spec.Spec
}

func (c common) Spec() *spec.Spec { return c.spec }

func (c common) Name() (string, error) { return c.spec.LimitedKeyword(32).Get("name") }

func (c common) Weight() (float64, error) {
	return c.spec.Interval('[', 0, 500, ']').GetOr("weight", 1)
}

func (c common) Material() (Material, error) { return material(c.spec).GetOr("material", Iron) }

// Lore is free text shown in descriptions.
func (c common) Lore() (string, error) { return c.spec.Text().GetOr("lore", "") }

// Icon is the logical path of the item's image.
func (c common) Icon() (string, error) { return c.spec.FilePath().GetOr("icon", "") }

func (c common) Tags() ([]string, error) { return c.spec.List().Keyword().GetOr("tags", nil) }

func (c common) check() error {
	if _, err := c.Name(); err != nil {
		return err
	}
	if _, err := c.Weight(); err != nil {
		return err
	}
	if _, err := c.Material(); err != nil {
		return err
	}
	if _, err := c.Lore(); err != nil {
		return err
	}
	if _, err := c.Icon(); err != nil {
		return err
	}
	_, err := c.Tags()
	return err
}
