package item

import (
	"github.com/vk/contentspec/internal/spec"
)

// Weapon is an item used to attack.
type Weapon struct {
	common
}

// NewWeapon is the factory of WeaponID.
func NewWeapon(s *spec.Spec) *Weapon { return &Weapon{common{spec: s}} }

// Damage is the base damage per hit.
func (w *Weapon) Damage() (int, error) { return w.spec.Range('[', 0, 1000, ']').Get("damage") }

// Reach is the attack distance in tiles.
func (w *Weapon) Reach() (float64, error) { return w.spec.Interval('(', 0, 10, ']').GetOr("reach", 1) }

func (w *Weapon) TwoHanded() (bool, error) { return w.spec.YesNo().GetOr("two_handed", false) }

// Bonuses maps a target kind to extra damage against it.
func (w *Weapon) Bonuses() (spec.Entries[string, int], error) {
	return w.spec.Dict().Keyword().Int().GetOr("bonuses", 0)
}

// Upgrade is the item this one can be improved into, if any.
func (w *Weapon) Upgrade() (Item, error) {
	return spec.Exterior[Item](w.spec, Capability).GetOr("upgrade", nil)
}

// Check reads every property of the weapon.
func (w *Weapon) Check() error {
	if err := w.check(); err != nil {
		return err
	}
	if _, err := w.Damage(); err != nil {
		return err
	}
	if _, err := w.Reach(); err != nil {
		return err
	}
	if _, err := w.TwoHanded(); err != nil {
		return err
	}
	if _, err := w.Bonuses(); err != nil {
		return err
	}
	_, err := w.Upgrade()
	return err
}
