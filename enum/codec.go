package enum

import (
	"bytes"
	"database/sql/driver"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm/schema"
)

// 以下辅助函数同时被 Enum 和生成代码使用。
// 约定：序列化输出的永远是表示值本身（裸值，不是对象），
// 反序列化只在外部数据无法解码为表示类型时失败。

// MarshalJSON 将表示值编码为 JSON
func MarshalJSON[R Repr](v R) ([]byte, error) {
	return sonic.Marshal(v)
}

// UnmarshalJSON 将 JSON 解码为表示值
func UnmarshalJSON[R Repr](data []byte) (R, error) {
	var v R
	if err := sonic.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("openenum: 无法将 JSON %s 解码为 %T: %w", truncate(data), v, err)
	}
	return v, nil
}

// IsJSONNull 判断 JSON 是否为 null，按 encoding/json 约定 null 不修改目标值
func IsJSONNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

// DecodeYAML 将 YAML 节点解码为表示值
func DecodeYAML[R Repr](node *yaml.Node) (R, error) {
	var v R
	if err := node.Decode(&v); err != nil {
		return v, fmt.Errorf("openenum: 无法将 YAML 节点解码为 %T: %w", v, err)
	}
	return v, nil
}

// MarshalText 将表示值编码为文本，浮点数使用最短的可无损往返格式
func MarshalText[R Repr](v R) ([]byte, error) {
	rv := reflect.ValueOf(v)
	switch k := rv.Kind(); {
	case isStringKind(k):
		return []byte(rv.String()), nil
	case isIntKind(k):
		return strconv.AppendInt(nil, rv.Int(), 10), nil
	case isUintKind(k):
		return strconv.AppendUint(nil, rv.Uint(), 10), nil
	case isFloatKind(k):
		return strconv.AppendFloat(nil, rv.Float(), 'g', -1, rv.Type().Bits()), nil
	}
	return nil, fmt.Errorf("openenum: 不支持的表示类型 %T", v)
}

// UnmarshalText 将文本解码为表示值
func UnmarshalText[R Repr](text []byte) (R, error) {
	var v R
	rv := reflect.ValueOf(&v).Elem()
	s := string(text)
	switch k := rv.Kind(); {
	case isStringKind(k):
		rv.SetString(s)
	case isIntKind(k):
		n, err := strconv.ParseInt(s, 10, rv.Type().Bits())
		if err != nil {
			return v, fmt.Errorf("openenum: 无法将 %q 解码为 %T: %w", s, v, err)
		}
		rv.SetInt(n)
	case isUintKind(k):
		n, err := strconv.ParseUint(s, 10, rv.Type().Bits())
		if err != nil {
			return v, fmt.Errorf("openenum: 无法将 %q 解码为 %T: %w", s, v, err)
		}
		rv.SetUint(n)
	case isFloatKind(k):
		f, err := strconv.ParseFloat(s, rv.Type().Bits())
		if err != nil {
			return v, fmt.Errorf("openenum: 无法将 %q 解码为 %T: %w", s, v, err)
		}
		rv.SetFloat(f)
	default:
		return v, fmt.Errorf("openenum: 不支持的表示类型 %T", v)
	}
	return v, nil
}

// DriverValue 将表示值转换为 database/sql 驱动值
func DriverValue[R Repr](v R) (driver.Value, error) {
	rv := reflect.ValueOf(v)
	switch k := rv.Kind(); {
	case isStringKind(k):
		return rv.String(), nil
	case isIntKind(k):
		return rv.Int(), nil
	case isUintKind(k):
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, fmt.Errorf("openenum: 表示值 %d 超出 int64 范围", u)
		}
		return int64(u), nil
	case isFloatKind(k):
		return rv.Float(), nil
	}
	return nil, fmt.Errorf("openenum: 不支持的表示类型 %T", v)
}

// Scan 将数据库读出的值转换为表示值，NULL 视为零值
// 文本形式的数值与 UnmarshalText 一致，只接受十进制
func Scan[R Repr](src any) (R, error) {
	var v R
	if src == nil {
		return v, nil
	}
	if b, ok := src.([]byte); ok {
		src = string(b)
	}

	rv := reflect.ValueOf(&v).Elem()
	k := rv.Kind()
	if s, ok := src.(string); ok && !isStringKind(k) {
		parsed, err := UnmarshalText[R]([]byte(s))
		if err != nil {
			return v, scanError(src, v, err)
		}
		return parsed, nil
	}

	switch {
	case isStringKind(k):
		s, err := cast.ToStringE(src)
		if err != nil {
			return v, scanError(src, v, err)
		}
		rv.SetString(s)
	case isIntKind(k):
		if err := checkWholeFloat(src, false); err != nil {
			return v, scanError(src, v, err)
		}
		n, err := cast.ToInt64E(src)
		if err != nil {
			return v, scanError(src, v, err)
		}
		if rv.OverflowInt(n) {
			return v, scanError(src, v, fmt.Errorf("数值溢出"))
		}
		rv.SetInt(n)
	case isUintKind(k):
		if err := checkWholeFloat(src, true); err != nil {
			return v, scanError(src, v, err)
		}
		n, err := cast.ToUint64E(src)
		if err != nil {
			return v, scanError(src, v, err)
		}
		if rv.OverflowUint(n) {
			return v, scanError(src, v, fmt.Errorf("数值溢出"))
		}
		rv.SetUint(n)
	case isFloatKind(k):
		f, err := cast.ToFloat64E(src)
		if err != nil {
			return v, scanError(src, v, err)
		}
		rv.SetFloat(f)
	default:
		return v, fmt.Errorf("openenum: 不支持的表示类型 %T", v)
	}
	return v, nil
}

// checkWholeFloat 驱动返回浮点数时，整数表示只接受能无损转换的值
func checkWholeFloat(src any, unsigned bool) error {
	var f float64
	switch x := src.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	default:
		return nil
	}
	lo, hi := float64(math.MinInt64), float64(math.MaxInt64)
	if unsigned {
		lo, hi = 0, float64(math.MaxUint64)
	}
	// hi 为 2^63 或 2^64，本身不可表示
	if f != math.Trunc(f) || f < lo || f >= hi {
		return fmt.Errorf("%v 不是可表示的整数", f)
	}
	return nil
}

func scanError(src any, target any, err error) error {
	return fmt.Errorf("openenum: 无法将 %T(%v) 扫描为 %T: %w", src, src, target, err)
}

// GormDataType 返回表示类型对应的 GORM 通用数据类型
func GormDataType[R Repr]() string {
	switch k := reprKind[R](); {
	case isStringKind(k):
		return string(schema.String)
	case isIntKind(k):
		return string(schema.Int)
	case isUintKind(k):
		return string(schema.Uint)
	case isFloatKind(k):
		return string(schema.Float)
	}
	return ""
}

// FormatUnknown 格式化兜底枚举项，字符串值带引号
func FormatUnknown[R Repr](name string, v R) string {
	rv := reflect.ValueOf(v)
	if isStringKind(rv.Kind()) {
		return name + "(" + strconv.Quote(rv.String()) + ")"
	}
	text, err := MarshalText(v)
	if err != nil {
		return name + "(?)"
	}
	return name + "(" + string(text) + ")"
}

func truncate(data []byte) string {
	const limit = 64
	if len(data) > limit {
		return string(data[:limit]) + "..."
	}
	return string(data)
}

// MarshalJSON 实现 json.Marshaler
func (e Enum[D, R]) MarshalJSON() ([]byte, error) {
	return MarshalJSON(e.ToRepr())
}

// UnmarshalJSON 实现 json.Unmarshaler
func (e *Enum[D, R]) UnmarshalJSON(data []byte) error {
	if IsJSONNull(data) {
		return nil
	}
	v, err := UnmarshalJSON[R](data)
	if err != nil {
		return err
	}
	*e = From[D](v)
	return nil
}

// MarshalYAML 实现 yaml.Marshaler
func (e Enum[D, R]) MarshalYAML() (any, error) {
	return e.ToRepr(), nil
}

// UnmarshalYAML 实现 yaml.Unmarshaler
func (e *Enum[D, R]) UnmarshalYAML(node *yaml.Node) error {
	v, err := DecodeYAML[R](node)
	if err != nil {
		return err
	}
	*e = From[D](v)
	return nil
}

// MarshalText 实现 encoding.TextMarshaler
func (e Enum[D, R]) MarshalText() ([]byte, error) {
	return MarshalText(e.ToRepr())
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (e *Enum[D, R]) UnmarshalText(text []byte) error {
	v, err := UnmarshalText[R](text)
	if err != nil {
		return err
	}
	*e = From[D](v)
	return nil
}

// Value 实现 driver.Valuer
func (e Enum[D, R]) Value() (driver.Value, error) {
	return DriverValue(e.ToRepr())
}

// Scan 实现 sql.Scanner
func (e *Enum[D, R]) Scan(src any) error {
	v, err := Scan[R](src)
	if err != nil {
		return err
	}
	*e = From[D](v)
	return nil
}

// GormDataType 实现 GORM 的 schema.GormDataTypeInterface
func (Enum[D, R]) GormDataType() string {
	return GormDataType[R]()
}
