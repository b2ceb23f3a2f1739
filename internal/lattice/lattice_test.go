package lattice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnionSimplifyCollapsesMixed(t *testing.T) {
	u := NewUnion(TMixed{}, TInteger{Domain: LiteralInt(1)}, TString{})
	assert.Len(t, u.Atomics, 1)
	assert.Equal(t, "mixed", u.String())
}

func TestUnionSimplifyDropsNeverAlongsideOthers(t *testing.T) {
	u := NewUnion(TNever{}, TBool{})
	require.False(t, u.IsNever())
	assert.Equal(t, "bool", u.String())
}

func TestUnionSimplifyNeverAlone(t *testing.T) {
	u := NewUnion(TNever{})
	assert.True(t, u.IsNever())
}

func TestJoinIntLiteralsProducesRange(t *testing.T) {
	a := NewUnion(TInteger{Domain: LiteralInt(1)})
	b := NewUnion(TInteger{Domain: LiteralInt(5)})
	j := Join(a, b)
	require.Len(t, j.Atomics, 1)
	ti, ok := j.Atomics[0].(TInteger)
	require.True(t, ok)
	assert.Equal(t, IntRange, ti.Domain.Kind)
	assert.Equal(t, int64(1), *ti.Domain.From)
	assert.Equal(t, int64(5), *ti.Domain.To)
}

func TestJoinStringPropsKeepsSharedFlags(t *testing.T) {
	a := NewUnion(TString{Props: StringProps{IsNonEmpty: true, IsNumeric: true}})
	b := NewUnion(TString{Props: StringProps{IsNonEmpty: true}})
	j := Join(a, b)
	require.Len(t, j.Atomics, 1)
	ts, ok := j.Atomics[0].(TString)
	require.True(t, ok)
	assert.True(t, ts.Props.IsNonEmpty)
	assert.False(t, ts.Props.IsNumeric)
}

func TestIsContainedByLiteralInRange(t *testing.T) {
	lo, hi := int64(0), int64(10)
	a := TInteger{Domain: LiteralInt(5)}
	b := TInteger{Domain: RangeInt(&lo, &hi)}
	assert.True(t, IsContainedBy(a, b, NullHierarchy{}, nil))

	outside := TInteger{Domain: LiteralInt(20)}
	assert.False(t, IsContainedBy(outside, b, NullHierarchy{}, nil))
}

func TestIsContainedByMixedAbsorbsEverything(t *testing.T) {
	assert.True(t, IsContainedBy(TString{}, TMixed{}, NullHierarchy{}, nil))
	assert.True(t, IsContainedBy(TObjectNamed{Name: "Foo"}, TMixed{}, NullHierarchy{}, nil))
}

type fakeHierarchy struct {
	subclasses map[string]string // child -> parent
}

func (f fakeHierarchy) IsSubclassOf(child, parent string) bool {
	if child == parent {
		return true
	}
	return f.subclasses[child] == parent
}
func (f fakeHierarchy) Variance(string, int) Variance            { return VarianceInvariant }
func (f fakeHierarchy) DeclaresMember(string, string, bool) bool { return false }

func TestIsContainedByNamedClassHierarchy(t *testing.T) {
	h := fakeHierarchy{subclasses: map[string]string{"Dog": "Animal"}}
	dog := TObjectNamed{Name: "Dog"}
	animal := TObjectNamed{Name: "Animal"}
	assert.True(t, IsContainedBy(dog, animal, h, nil))
	assert.False(t, IsContainedBy(animal, dog, h, nil))
}

func TestIntersectEmptyIsNever(t *testing.T) {
	a := NewUnion(TBool{})
	b := NewUnion(TInteger{Domain: UnspecifiedInt()})
	result, ok := Intersect(a, b, NullHierarchy{})
	assert.False(t, ok)
	assert.True(t, result.IsNever())
}

func TestIntersectNarrowsIntRange(t *testing.T) {
	lo1, hi1 := int64(0), int64(10)
	lo2, hi2 := int64(5), int64(20)
	a := NewUnion(TInteger{Domain: RangeInt(&lo1, &hi1)})
	b := NewUnion(TInteger{Domain: RangeInt(&lo2, &hi2)})
	result, ok := Intersect(a, b, NullHierarchy{})
	require.True(t, ok)
	require.Len(t, result.Atomics, 1)
	ti := result.Atomics[0].(TInteger)
	assert.Equal(t, int64(5), *ti.Domain.From)
	assert.Equal(t, int64(10), *ti.Domain.To)
}

func TestKeyedWidensToListWhenAllIntegerKeys(t *testing.T) {
	keyed := TKeyed{
		KnownItems: map[ArrayKey]KnownItem{
			{IntKey: 0}: {Value: IntAny()},
			{IntKey: 1}: {Value: IntAny()},
		},
	}
	list := TList{Element: IntAny()}
	assert.True(t, IsContainedBy(keyed, list, NullHierarchy{}, nil))
}

func TestKeyedWithStringKeyDoesNotWidenToList(t *testing.T) {
	keyed := TKeyed{
		KnownItems: map[ArrayKey]KnownItem{
			{IsString: true, StrKey: "x"}: {Value: IntAny()},
		},
	}
	list := TList{Element: IntAny()}
	assert.False(t, IsContainedBy(keyed, list, NullHierarchy{}, nil))
}

func TestEnumCaseContainedByNamedEnum(t *testing.T) {
	ec := TEnumCase{Enum: "Suit", Case: "Hearts"}
	named := TObjectNamed{Name: "Suit"}
	assert.True(t, IsContainedBy(ec, named, NullHierarchy{}, nil))
}
