// Package unit provides the creature spawner type. Units embed and reference
// items from the item package.
package unit

import (
	"errors"

	"github.com/vk/contentspec/internal/spec"
	"github.com/vk/contentspec/modules/item"
)

// Capability tags every type of this package.
const Capability = "unit"

// ID is the type identifier of Unit.
const ID = "unit"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the unit type.
func (m *Module) Register(r *spec.Registry) {
	spec.RegisterSpawner(r, ID, New, Capability)
}

// Unit is a creature on the map.
type Unit struct {
	spec *spec.Spec
}

// New is the factory of ID.
func New(s *spec.Spec) *Unit { return &Unit{spec: s} }

func (u *Unit) Spec() *spec.Spec { return u.spec }

func (u *Unit) Name() (string, error) { return u.spec.Keyword().Get("name") }

// HP is the unit's maximum health.
func (u *Unit) HP() (int, error) { return u.spec.Range('[', 1, 10000, ']').Get("hp") }

func (u *Unit) Speed() (float64, error) { return u.spec.Double().GetOr("speed", 1) }

// Spawn is the default map position.
func (u *Unit) Spawn() ([2]float64, error) { return u.spec.Double2().GetOr("spawn", [2]float64{}) }

func (u *Unit) Flying() (bool, error) { return u.spec.OnOff().GetOr("flying", false) }

// Stats groups the attribute scores.
func (u *Unit) Stats() *spec.Spec { return u.spec.SubSpec("stats") }

// Strength and the other attributes default to 10.
func (u *Unit) Strength() (int, error)  { return u.Stats().Int().GetOr("strength", 10) }
func (u *Unit) Dexterity() (int, error) { return u.Stats().Int().GetOr("dexterity", 10) }

// Weapon is the wielded item, a weapon unless the document says otherwise.
func (u *Unit) Weapon() (item.Item, error) {
	return spec.Interior[item.Item](u.spec, item.Capability, item.WeaponID).Get("weapon")
}

// Inventory lists carried items stored in their own documents.
func (u *Unit) Inventory() ([]item.Item, error) {
	return spec.ListExterior[item.Item](u.spec, item.Capability).GetOr("inventory", nil)
}

// Loadouts are alternative embedded items, keyed by name.
func (u *Unit) Loadouts() (spec.Entries[string, item.Item], error) {
	return spec.DictInterior[string, item.Item](u.spec.Dict().Keyword(), item.Capability, item.ArmorID).GetOr("loadouts", nil)
}

// Levels holds per-level overrides, e.g. levels/DictBody/2/hp.
func (u *Unit) Levels() (spec.Entries[int, *spec.Spec], error) {
	return u.spec.Dict().Range('[', 1, 100, ']').SubSpec().GetOr("levels", nil)
}

// Escort lists the units of a directory that travel with this one. A unit
// without an escort directory has none.
func (u *Unit) Escort() ([]*Unit, error) {
	units, err := spec.ExteriorDir[*Unit](u.spec, Capability).Get("escort")
	if errors.Is(err, spec.ErrKeyUndefined) {
		return nil, nil
	}
	return units, err
}

// Check reads every property of the unit.
func (u *Unit) Check() error {
	if _, err := u.Name(); err != nil {
		return err
	}
	if _, err := u.HP(); err != nil {
		return err
	}
	if _, err := u.Speed(); err != nil {
		return err
	}
	if _, err := u.Spawn(); err != nil {
		return err
	}
	if _, err := u.Flying(); err != nil {
		return err
	}
	if _, err := u.Strength(); err != nil {
		return err
	}
	if _, err := u.Dexterity(); err != nil {
		return err
	}
	if err := u.checkWeapon(); err != nil {
		return err
	}
	if err := u.checkInventory(); err != nil {
		return err
	}
	if err := u.checkLoadouts(); err != nil {
		return err
	}
	if err := u.checkLevels(); err != nil {
		return err
	}
	_, err := u.Escort()
	return err
}

// checkWeapon allows unarmed units.
func (u *Unit) checkWeapon() error {
	w, err := u.Weapon()
	if errors.Is(err, spec.ErrKeyUndefined) {
		return nil
	}
	if err != nil {
		return err
	}
	return check(w)
}

func (u *Unit) checkInventory() error {
	items, err := u.Inventory()
	if err != nil {
		return err
	}
	for _, it := range items {
		if _, err := it.Name(); err != nil {
			return err
		}
	}
	return nil
}

func (u *Unit) checkLoadouts() error {
	loadouts, err := u.Loadouts()
	if err != nil {
		return err
	}
	for _, it := range loadouts.All() {
		if err := check(it); err != nil {
			return err
		}
	}
	return nil
}

func (u *Unit) checkLevels() error {
	levels, err := u.Levels()
	if err != nil {
		return err
	}
	for _, level := range levels.All() {
		if _, err := level.Range('[', 1, 10000, ']').GetOr("hp", 1); err != nil {
			return err
		}
	}
	return nil
}

func check(v spec.Spawner) error {
	if c, ok := v.(spec.Checker); ok {
		return c.Check()
	}
	return nil
}
