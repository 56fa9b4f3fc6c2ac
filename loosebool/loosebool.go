// Package loosebool 宽松布尔值。
//
// 以任意整数类型保存，0 为 False，1 为 True，其他值原样保存在 Unknown 中，
// 读写数据库或 JSON 时不会因为脏数据失败；需要真正的 bool 时调用 Bool 显式窄化。
package loosebool

import (
	"github.com/donutnomad/openenum/enum"
	"golang.org/x/exp/constraints"
)

//go:generate go run github.com/donutnomad/openenum gen .

// LooseBool 宽松布尔值
// @OpenEnum(name=LooseBool, default=False, derive=compare|hash|string, codec=json|yaml|text|sql)
type looseBoolCases[T constraints.Integer] struct {
	False T `enum:"0"`
	True  T `enum:"1"`
}

// FromBool 由 bool 构造
func FromBool[T constraints.Integer](b bool) LooseBool[T] {
	if b {
		return LooseBoolTrue[T]()
	}
	return LooseBoolFalse[T]()
}

// Bool 窄化为 bool，Unknown 返回 enum.UnrepresentableValueError
func (e LooseBool[T]) Bool() (bool, error) {
	switch e.tag {
	case _LooseBoolTagFalse:
		return false, nil
	case _LooseBoolTagTrue:
		return true, nil
	}
	return false, enum.UnrepresentableValueError{}
}

// IsTrue 是否为 True，Unknown 返回 false
func (e LooseBool[T]) IsTrue() bool {
	return e.tag == _LooseBoolTagTrue
}

// IsFalse 是否为 False，Unknown 返回 false
func (e LooseBool[T]) IsFalse() bool {
	return e.tag == _LooseBoolTagFalse
}
