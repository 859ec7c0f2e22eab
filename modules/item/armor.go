package item

import (
	"github.com/vk/contentspec/internal/spec"
)

// Resistances every armor reports, whether or not its document lists them.
var Resistances = []string{"cold", "fire", "poison"}

// Armor is an item worn for protection.
type Armor struct {
	common
}

// NewArmor is the factory of ArmorID.
func NewArmor(s *spec.Spec) *Armor { return &Armor{common{spec: s}} }

// Defense is the flat damage reduction.
func (a *Armor) Defense() (int, error) { return a.spec.RangeTo(100).Get("defense") }

// Coverage is the width and height of the protected area.
func (a *Armor) Coverage() ([2]int, error) { return a.spec.Int2().GetOrText("coverage", "1, 1") }

// Resistance maps each damage type to the fraction it absorbs.
func (a *Armor) Resistance() (spec.Entries[string, float64], error) {
	return spec.DictValues(spec.DictKeys(a.spec, spec.KeywordCodec()), spec.IntervalCodec('[', 0, 1, ']')).
		EnsureKeys(Resistances...).
		GetOr("resistance", 0)
}

// Check reads every property of the armor.
func (a *Armor) Check() error {
	if err := a.check(); err != nil {
		return err
	}
	if _, err := a.Defense(); err != nil {
		return err
	}
	if _, err := a.Coverage(); err != nil {
		return err
	}
	_, err := a.Resistance()
	return err
}
