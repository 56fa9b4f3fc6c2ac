package enum

import (
	"errors"
	"hash/maphash"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// byteDef: {Zero=0}，无默认枚举项
type byteDef struct{}

var byteCases = []Case[uint8]{C[uint8]("Zero", 0)}

func (byteDef) Cases() []Case[uint8] { return byteCases }

type Byte = Enum[byteDef, uint8]

// flagDef: {False=0, True=1}，默认 False
type flagDef struct{}

var flagCases = []Case[int8]{C[int8]("False", 0), C[int8]("True", 1)}

func (flagDef) Cases() []Case[int8] { return flagCases }
func (flagDef) DefaultCase() string { return "False" }

type Flag = Enum[flagDef, int8]

// fruitDef: 字符串表示，空字符串是合法的已命名枚举项
type fruitDef struct{}

var fruitCases = []Case[string]{
	C("Apple", "Apple"),
	C("Banana", "Banana"),
	C("Empty", ""),
}

func (fruitDef) Cases() []Case[string] { return fruitCases }
func (fruitDef) UnknownCase() string   { return "Other" }

type Fruit = Enum[fruitDef, string]

// ratioDef: 浮点表示
type ratioDef struct{}

var ratioCases = []Case[float64]{C("Default", 0.0), C("Pi", 3.14)}

func (ratioDef) Cases() []Case[float64] { return ratioCases }
func (ratioDef) DefaultCase() string    { return "Default" }

type Ratio = Enum[ratioDef, float64]

func TestFromIntegerDomain(t *testing.T) {
	zero := From[byteDef](uint8(0))
	assert.True(t, zero.Is("Zero"))
	assert.False(t, zero.IsUnknown())
	assert.Equal(t, "Zero", zero.Name())

	other := From[byteDef](uint8(123))
	assert.True(t, other.IsUnknown())
	assert.Equal(t, "Unknown", other.Name())
	assert.Equal(t, uint8(123), other.ToRepr())

	raw, ok := other.Unknown()
	assert.True(t, ok)
	assert.Equal(t, uint8(123), raw)

	_, ok = zero.Unknown()
	assert.False(t, ok)
}

func TestRoundTripAllBytes(t *testing.T) {
	for i := 0; i <= 255; i++ {
		v := uint8(i)
		e := From[byteDef](v)
		require.Equal(t, v, e.ToRepr(), "i=%d", i)
		if v != 0 {
			require.True(t, e.IsUnknown(), "i=%d", i)
		}
	}
}

func TestRoundTripAllInt8(t *testing.T) {
	for i := -128; i <= 127; i++ {
		v := int8(i)
		e := From[flagDef](v)
		require.Equal(t, v, e.ToRepr(), "i=%d", i)
		require.Equal(t, v != 0 && v != 1, e.IsUnknown(), "i=%d", i)
	}
}

func TestClassificationStability(t *testing.T) {
	for _, e := range Values[flagDef, int8]() {
		assert.Equal(t, e, From[flagDef](e.ToRepr()))
	}
	for _, e := range Values[fruitDef, string]() {
		assert.Equal(t, e, From[fruitDef](e.ToRepr()))
	}
}

func TestStringDomain(t *testing.T) {
	empty := From[fruitDef]("")
	assert.True(t, empty.Is("Empty"))
	assert.False(t, empty.IsUnknown())

	apple := From[fruitDef]("Apple")
	assert.True(t, apple.Is("Apple"))

	// 精确匹配，不做大小写折叠
	lower := From[fruitDef]("apple")
	assert.True(t, lower.IsUnknown())
	assert.Equal(t, "apple", lower.ToRepr())
	assert.Equal(t, "Other", lower.Name())
	assert.Equal(t, `Other("apple")`, lower.String())
}

func TestFloatDomain(t *testing.T) {
	pi := From[ratioDef](3.14)
	assert.True(t, pi.Is("Pi"))

	e := From[ratioDef](2.71)
	assert.True(t, e.IsUnknown())
	assert.Equal(t, 2.71, e.ToRepr())
	assert.Equal(t, "Unknown(2.71)", e.String())
}

func TestZeroValue(t *testing.T) {
	var f Flag
	assert.True(t, f.Is("False"))
	assert.Equal(t, From[flagDef](int8(0)), f)

	var r Ratio
	assert.True(t, r.Is("Default"))
	assert.Equal(t, 0.0, r.ToRepr())

	// 未声明默认枚举项时零值为 Unknown(0)，与 From(0) 不相等
	var b Byte
	assert.True(t, b.IsUnknown())
	assert.Equal(t, uint8(0), b.ToRepr())
	assert.False(t, b.Equal(From[byteDef](uint8(0))))
}

func TestNamed(t *testing.T) {
	e, ok := Named[fruitDef, string]("Banana")
	require.True(t, ok)
	assert.Equal(t, "Banana", e.ToRepr())

	_, ok = Named[fruitDef, string]("Durian")
	assert.False(t, ok)
}

func TestEqualTagBeforePayload(t *testing.T) {
	assert.True(t, From[byteDef](uint8(7)).Equal(From[byteDef](uint8(7))))
	assert.False(t, From[byteDef](uint8(7)).Equal(From[byteDef](uint8(8))))
	assert.False(t, From[byteDef](uint8(0)).Equal(From[byteDef](uint8(7))))
}

func TestCompare(t *testing.T) {
	values := []Fruit{
		From[fruitDef]("zzz"),
		From[fruitDef](""),
		From[fruitDef]("aaa"),
		From[fruitDef]("Banana"),
		From[fruitDef]("Apple"),
	}
	slices.SortFunc(values, Fruit.Compare)

	var names []string
	for _, v := range values {
		names = append(names, v.String())
	}
	assert.Equal(t, []string{"Apple", "Banana", "Empty", `Other("aaa")`, `Other("zzz")`}, names)
}

func TestHash(t *testing.T) {
	seed := maphash.MakeSeed()
	sum := func(e Fruit) uint64 {
		var h maphash.Hash
		h.SetSeed(seed)
		e.Hash(&h)
		return h.Sum64()
	}
	assert.Equal(t, sum(From[fruitDef]("Durian")), sum(From[fruitDef]("Durian")))
	assert.Equal(t, sum(From[fruitDef]("Apple")), sum(From[fruitDef]("Apple")))
	assert.NotEqual(t, sum(From[fruitDef]("Apple")), sum(From[fruitDef]("Banana")))
}

func TestNarrow(t *testing.T) {
	targets := map[string]bool{"False": false, "True": true}

	v, err := Narrow(From[flagDef](int8(1)), targets)
	require.NoError(t, err)
	assert.True(t, v)

	v, err = Narrow(From[flagDef](int8(0)), targets)
	require.NoError(t, err)
	assert.False(t, v)

	for i := -128; i <= 127; i++ {
		if i == 0 || i == 1 {
			continue
		}
		_, err := Narrow(From[flagDef](int8(i)), targets)
		require.Error(t, err, "i=%d", i)
		assert.True(t, errors.Is(err, ErrUnrepresentable))
		var target UnrepresentableValueError
		assert.True(t, errors.As(err, &target))
	}

	// 目标表缺失的枚举项同样无法表示
	_, err = Narrow(From[flagDef](int8(1)), map[string]bool{"False": false})
	assert.ErrorIs(t, err, ErrUnrepresentable)
}

type dupDef struct{}

func (dupDef) Cases() []Case[int] {
	return []Case[int]{C("A", 1), C("B", 1), C("A", 2), C("Unknown", 3)}
}
func (dupDef) DefaultCase() string { return "Missing" }

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate[flagDef, int8]())
	assert.NoError(t, Validate[fruitDef, string]())

	err := Validate[dupDef, int]()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "表示值相同")
	assert.Contains(t, msg, "名称 A 重复")
	assert.Contains(t, msg, "Missing")
	assert.Contains(t, msg, "兜底枚举项名称 Unknown")

	// 表示值重复时第一个枚举项胜出
	assert.Equal(t, "A", From[dupDef](1).Name())
}
