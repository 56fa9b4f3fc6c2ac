package enum

import (
	"cmp"
	"errors"
	"fmt"
	"hash/maphash"
)

// DefaultUnknownName 兜底枚举项的默认名称
const DefaultUnknownName = "Unknown"

// Case 一个已命名枚举项及其表示值
type Case[R Repr] struct {
	Name  string
	Value R
}

// C 构造 Case
func C[R Repr](name string, value R) Case[R] {
	return Case[R]{Name: name, Value: value}
}

// Definition 开放枚举的定义
// Cases 按声明顺序返回所有已命名枚举项，实现通常返回一个包级变量
type Definition[R Repr] interface {
	Cases() []Case[R]
}

// Defaulter 可由 Definition 实现，声明零值对应的枚举项
type Defaulter interface {
	DefaultCase() string
}

// Unknowner 可由 Definition 实现，自定义兜底枚举项名称
type Unknowner interface {
	UnknownCase() string
}

// Enum 泛型开放枚举
//
// tag 对枚举项位置做了旋转编码，使零值正好对应默认枚举项；
// 未声明默认枚举项时零值为 Unknown(零值)。
// 已命名枚举项的 raw 恒为零值，因此 == 与 Equal 语义一致：先比较枚举项，再比较兜底值。
type Enum[D Definition[R], R Repr] struct {
	tag int
	raw R
}

// table 枚举项表的解析结果
type table[R Repr] struct {
	cases   []Case[R]
	def     int // 默认枚举项位置，len(cases) 表示兜底枚举项
	unknown string
}

func tableOf[D Definition[R], R Repr]() table[R] {
	var d D
	t := table[R]{
		cases:   d.Cases(),
		unknown: DefaultUnknownName,
	}
	t.def = len(t.cases)
	if x, ok := any(d).(Defaulter); ok {
		if i := t.index(x.DefaultCase()); i >= 0 {
			t.def = i
		}
	}
	if x, ok := any(d).(Unknowner); ok && x.UnknownCase() != "" {
		t.unknown = x.UnknownCase()
	}
	return t
}

func (t table[R]) index(name string) int {
	for i, c := range t.cases {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func (t table[R]) tagOf(pos int) int {
	n := len(t.cases) + 1
	return (pos - t.def + n) % n
}

func (t table[R]) posOf(tag int) int {
	n := len(t.cases) + 1
	return (tag + t.def) % n
}

// From 将表示值转换为枚举
// 按声明顺序匹配，第一个相等的枚举项胜出；都不匹配时返回包装原值的兜底枚举项
func From[D Definition[R], R Repr](v R) Enum[D, R] {
	t := tableOf[D, R]()
	for i, c := range t.cases {
		if c.Value == v {
			return Enum[D, R]{tag: t.tagOf(i)}
		}
	}
	return Enum[D, R]{tag: t.tagOf(len(t.cases)), raw: v}
}

// Named 按名称查找已命名枚举项
func Named[D Definition[R], R Repr](name string) (Enum[D, R], bool) {
	t := tableOf[D, R]()
	if i := t.index(name); i >= 0 {
		return Enum[D, R]{tag: t.tagOf(i)}, true
	}
	return Enum[D, R]{}, false
}

// Values 按声明顺序返回所有已命名枚举项
func Values[D Definition[R], R Repr]() []Enum[D, R] {
	t := tableOf[D, R]()
	values := make([]Enum[D, R], 0, len(t.cases))
	for i := range t.cases {
		values = append(values, Enum[D, R]{tag: t.tagOf(i)})
	}
	return values
}

// Validate 检查枚举定义
// 名称和表示值都必须唯一，默认枚举项必须存在，兜底名称不能与已命名枚举项冲突
func Validate[D Definition[R], R Repr]() error {
	var d D
	t := tableOf[D, R]()

	var errs []error
	names := make(map[string]int, len(t.cases))
	for i, c := range t.cases {
		if c.Name == "" {
			errs = append(errs, fmt.Errorf("第 %d 个枚举项名称为空", i))
			continue
		}
		if j, ok := names[c.Name]; ok {
			errs = append(errs, fmt.Errorf("枚举项名称 %s 重复（位置 %d 和 %d）", c.Name, j, i))
			continue
		}
		names[c.Name] = i
		for j := 0; j < i; j++ {
			if t.cases[j].Value == c.Value {
				errs = append(errs, fmt.Errorf("枚举项 %s 与 %s 的表示值相同，%s 永远不会被匹配", t.cases[j].Name, c.Name, c.Name))
				break
			}
		}
	}
	if x, ok := any(d).(Defaulter); ok && t.index(x.DefaultCase()) < 0 {
		errs = append(errs, fmt.Errorf("默认枚举项 %q 不存在", x.DefaultCase()))
	}
	if _, ok := names[t.unknown]; ok {
		errs = append(errs, fmt.Errorf("兜底枚举项名称 %s 与已命名枚举项冲突", t.unknown))
	}
	return errors.Join(errs...)
}

// ToRepr 返回表示值：已命名枚举项返回声明的值，兜底枚举项原样返回保存的值
func (e Enum[D, R]) ToRepr() R {
	t := tableOf[D, R]()
	if p := t.posOf(e.tag); p < len(t.cases) {
		return t.cases[p].Value
	}
	return e.raw
}

// Name 返回枚举项名称，兜底枚举项返回兜底名称
func (e Enum[D, R]) Name() string {
	t := tableOf[D, R]()
	if p := t.posOf(e.tag); p < len(t.cases) {
		return t.cases[p].Name
	}
	return t.unknown
}

// Is 判断是否为指定名称的已命名枚举项
func (e Enum[D, R]) Is(name string) bool {
	t := tableOf[D, R]()
	p := t.posOf(e.tag)
	return p < len(t.cases) && t.cases[p].Name == name
}

// IsUnknown 判断是否为兜底枚举项
func (e Enum[D, R]) IsUnknown() bool {
	t := tableOf[D, R]()
	return t.posOf(e.tag) == len(t.cases)
}

// Unknown 返回兜底枚举项保存的值
func (e Enum[D, R]) Unknown() (R, bool) {
	if e.IsUnknown() {
		return e.raw, true
	}
	var zero R
	return zero, false
}

// Equal 先比较枚举项，再比较兜底值
func (e Enum[D, R]) Equal(o Enum[D, R]) bool {
	return e == o
}

// Compare 已命名枚举项按声明顺序排列，兜底枚举项排在最后，兜底枚举项之间按表示值排列
func (e Enum[D, R]) Compare(o Enum[D, R]) int {
	t := tableOf[D, R]()
	if c := cmp.Compare(t.posOf(e.tag), t.posOf(o.tag)); c != 0 {
		return c
	}
	return cmp.Compare(e.raw, o.raw)
}

// Hash 依次写入枚举项和兜底值，相等的值得到相同的哈希
func (e Enum[D, R]) Hash(h *maphash.Hash) {
	t := tableOf[D, R]()
	maphash.WriteComparable(h, t.posOf(e.tag))
	maphash.WriteComparable(h, e.raw)
}

// String 返回枚举项名称，兜底枚举项格式为 Unknown(值)
func (e Enum[D, R]) String() string {
	if v, ok := e.Unknown(); ok {
		return FormatUnknown(e.Name(), v)
	}
	return e.Name()
}
