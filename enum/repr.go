package enum

import (
	"reflect"

	"golang.org/x/exp/constraints"
)

// Repr 开放枚举支持的表示类型
type Repr interface {
	~string | constraints.Integer | constraints.Float
}

// reprKind 返回表示类型的底层种类
func reprKind[R Repr]() reflect.Kind {
	var r R
	return reflect.TypeOf(r).Kind()
}

func isStringKind(k reflect.Kind) bool {
	return k == reflect.String
}

func isIntKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUintKind(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isFloatKind(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}
