package item_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/contentspec/internal/spec"
	"github.com/vk/contentspec/internal/testutil"
	"github.com/vk/contentspec/modules/item"
)

const swordDoc = `
spawner: item.weapon
properties:
  name: sword
  damage: 12
  material: steel
  two_handed: Yes
  tags: [blade, melee]
  bonuses:
    DictBody:
      undead: 4
  upgrade: greatsword.spec
  lore: |
    Forged in the north.
    [End Of Text]
`

const greatswordDoc = `
spawner: item.weapon
base: sword.spec
properties:
  name: greatsword
  damage: 20
  upgrade: __HIDDEN__
`

func TestWeapon_ReadsEveryProperty(t *testing.T) {
	// Arrange
	st, _ := testutil.NewStore(t, map[string]string{"items/sword.spec": swordDoc, "items/greatsword.spec": greatswordDoc}, &item.Module{})
	v, err := st.Activate(testutil.Fetch(t, st, "items/sword.spec"))
	require.NoError(t, err)
	sword := v.(*item.Weapon)

	// Act
	damage, damageErr := sword.Damage()
	mat, matErr := sword.Material()
	twoHanded, twoHandedErr := sword.TwoHanded()
	reach, reachErr := sword.Reach()
	lore, loreErr := sword.Lore()
	upgrade, upgradeErr := sword.Upgrade()

	// Assert
	require.NoError(t, errors.Join(damageErr, matErr, twoHandedErr, reachErr, loreErr, upgradeErr))
	assert.Equal(t, 12, damage)
	assert.Equal(t, item.Steel, mat)
	assert.True(t, twoHanded)
	assert.Equal(t, 1.0, reach)
	assert.Equal(t, "Forged in the north.", lore)
	require.NotNil(t, upgrade)
	assert.Equal(t, "items/greatsword.spec", upgrade.Spec().Path())
	assert.NoError(t, sword.Check())
}

func TestWeapon_InheritsFromBase(t *testing.T) {
	// Arrange
	st, _ := testutil.NewStore(t, map[string]string{"items/sword.spec": swordDoc, "items/greatsword.spec": greatswordDoc}, &item.Module{})
	v, err := st.Activate(testutil.Fetch(t, st, "items/greatsword.spec"))
	require.NoError(t, err)
	greatsword := v.(*item.Weapon)

	// Act
	name, nameErr := greatsword.Name()
	tags, tagsErr := greatsword.Tags()
	bonuses, bonusesErr := greatsword.Bonuses()
	upgrade, upgradeErr := greatsword.Upgrade()

	// Assert
	require.NoError(t, errors.Join(nameErr, tagsErr, bonusesErr, upgradeErr))
	assert.Equal(t, "greatsword", name)
	assert.Equal(t, []string{"blade", "melee"}, tags)
	assert.Equal(t, map[string]int{"undead": 4}, bonuses.Map())
	assert.Nil(t, upgrade, "a hidden upgrade falls back to the default")
}

func TestWeapon_CheckReportsInvalidValues(t *testing.T) {
	// Arrange
	st, _ := testutil.NewStore(t, map[string]string{
		"club.spec": "spawner: item.weapon\nproperties:\n  name: club\n  damage: 5000\n",
	}, &item.Module{})
	v, err := st.Activate(testutil.Fetch(t, st, "club.spec"))
	require.NoError(t, err)

	// Act
	err = v.(spec.Checker).Check()

	// Assert
	var access *spec.AccessError
	require.True(t, errors.As(err, &access))
	assert.Equal(t, "club.spec[properties][damage]", access.Path)
}

func TestArmor_EnsuredResistances(t *testing.T) {
	// Arrange
	st, _ := testutil.NewStore(t, map[string]string{
		"plate.spec": `
spawner: item.armor
properties:
  name: plate
  defense: 40
  resistance:
    DictBody:
      fire: 0.25
`,
	}, &item.Module{})
	v, err := st.Activate(testutil.Fetch(t, st, "plate.spec"))
	require.NoError(t, err)
	plate := v.(*item.Armor)

	// Act
	res, resErr := plate.Resistance()
	coverage, coverageErr := plate.Coverage()

	// Assert
	require.NoError(t, errors.Join(resErr, coverageErr))
	assert.Equal(t, []string{"cold", "fire", "poison"}, res.Keys())
	assert.Equal(t, map[string]float64{"cold": 0, "fire": 0.25, "poison": 0}, res.Map())
	assert.Equal(t, [2]int{1, 1}, coverage)
	assert.NoError(t, plate.Check())
}

func TestItems_MoldTemplates(t *testing.T) {
	// Arrange
	st, _ := testutil.NewStore(t, nil, &item.Module{})

	// Act
	weapon, weaponErr := st.Mold(item.WeaponID)
	armor, armorErr := st.Mold(item.ArmorID)

	// Assert
	require.NoError(t, errors.Join(weaponErr, armorErr))
	weaponProps, ok := weapon.Mapping(spec.KeyProperties)
	require.True(t, ok)
	damage, _ := weaponProps.Scalar("damage")
	assert.Equal(t, "Range, [, 0, 1000, ]", damage)
	material, _ := weaponProps.Scalar("material")
	assert.Equal(t, "Choice, 3, wood, iron, steel, iron", material)
	armorProps, ok := armor.Mapping(spec.KeyProperties)
	require.True(t, ok)
	resistance, ok := armorProps.Mapping("resistance")
	require.True(t, ok)
	body, ok := resistance.Mapping("DictBody")
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"cold", "fire", "poison"}, body.Keys())
}
