package openenumgen

import (
	"errors"
	"fmt"
	"go/constant"
	"go/token"
	"math"
	"strconv"
	"strings"

	"github.com/donutnomad/openenum/internal/utils"
)

// ReprKind 表示类型的分类
type ReprKind int

const (
	KindString ReprKind = iota + 1
	KindInt
	KindUint
	KindFloat
)

func (k ReprKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	default:
		return "unknown"
	}
}

// reprInfo 表示类型的分类与位宽
type reprInfo struct {
	kind ReprKind
	bits int
}

// basicReprs 支持的内置表示类型
var basicReprs = map[string]reprInfo{
	"string":  {KindString, 0},
	"int":     {KindInt, 64},
	"int8":    {KindInt, 8},
	"int16":   {KindInt, 16},
	"int32":   {KindInt, 32},
	"rune":    {KindInt, 32},
	"int64":   {KindInt, 64},
	"uint":    {KindUint, 64},
	"uint8":   {KindUint, 8},
	"byte":    {KindUint, 8},
	"uint16":  {KindUint, 16},
	"uint32":  {KindUint, 32},
	"uint64":  {KindUint, 64},
	"float32": {KindFloat, 32},
	"float64": {KindFloat, 64},
}

// Import 生成代码需要的导入
type Import struct {
	Alias string
	Path  string
}

// TypeParam 泛型表示类型的类型参数
type TypeParam struct {
	Name       string   // 如 T
	Constraint string   // 约束的源码，如 constraints.Integer
	Imports    []Import // 约束引用的包
}

// Case 一个已命名枚举项
type Case struct {
	Name  string         // 字段名，即枚举项名称
	Doc   []string       // 字段注释
	Expr  string         // 生成代码中使用的字面量
	Value constant.Value // 常量值，用于检查重复
	Pos   token.Position
}

// EnumModel 一个开放枚举的完整描述
type EnumModel struct {
	Name    string // 生成的类型名
	Source  string // 声明用的结构体名
	Package string
	Doc     []string

	Repr      string // 表示类型的源码，泛型时为类型参数名
	Kind      ReprKind
	Bits      int        // 表示类型位宽，0 表示不限（字符串或未知约束）
	TypeParam *TypeParam // 非 nil 表示泛型

	Cases   []*Case
	Default int // 默认枚举项位置，-1 表示未声明
	Unknown string

	Compare bool
	Hash    bool
	String  bool

	JSON bool
	YAML bool
	Text bool
	SQL  bool
}

// Generic 是否为泛型枚举
func (m *EnumModel) Generic() bool {
	return m.TypeParam != nil
}

// TypeRef 类型引用，如 Fruit 或 LooseBool[T]
func (m *EnumModel) TypeRef() string {
	if m.Generic() {
		return m.Name + "[" + m.TypeParam.Name + "]"
	}
	return m.Name
}

// TypeParams 类型参数声明，如 [T constraints.Integer]，非泛型为空
func (m *EnumModel) TypeParams() string {
	if m.Generic() {
		return "[" + m.TypeParam.Name + " " + m.TypeParam.Constraint + "]"
	}
	return ""
}

// TypeArgs 类型实参，如 [T]，非泛型为空
func (m *EnumModel) TypeArgs() string {
	if m.Generic() {
		return "[" + m.TypeParam.Name + "]"
	}
	return ""
}

// defPos 默认枚举项位置，未声明时为兜底枚举项的位置
func (m *EnumModel) defPos() int {
	if m.Default >= 0 {
		return m.Default
	}
	return len(m.Cases)
}

// TagOf 返回位置 pos（兜底枚举项为 len(Cases)）对应的 tag
// 编码保证默认枚举项的 tag 为 0，使 Go 零值即默认枚举项
func (m *EnumModel) TagOf(pos int) int {
	n := len(m.Cases) + 1
	return (pos - m.defPos() + n) % n
}

// UnknownTag 兜底枚举项的 tag
func (m *EnumModel) UnknownTag() int {
	return m.TagOf(len(m.Cases))
}

// TagType tag 字段使用的整数类型
func (m *EnumModel) TagType() string {
	switch n := len(m.Cases) + 1; {
	case n <= 1<<8:
		return "uint8"
	case n <= 1<<16:
		return "uint16"
	default:
		return "uint32"
	}
}

// TagConst tag 常量名
func (m *EnumModel) TagConst(name string) string {
	return "_" + m.Name + "Tag" + utils.UpperFirst(name)
}

// CaseIdent 枚举项变量名（泛型时为构造函数名）
func (m *EnumModel) CaseIdent(c *Case) string {
	return m.Name + utils.UpperFirst(c.Name)
}

// CaseValue 引用枚举项的表达式
func (m *EnumModel) CaseValue(c *Case) string {
	if m.Generic() {
		return m.CaseIdent(c) + m.TypeArgs() + "()"
	}
	return m.CaseIdent(c)
}

// ZeroCase 返回表示值为零值的枚举项，没有则返回 nil
func (m *EnumModel) ZeroCase() *Case {
	for _, c := range m.Cases {
		if isZero(c.Value) {
			return c
		}
	}
	return nil
}

func isZero(v constant.Value) bool {
	switch v.Kind() {
	case constant.String:
		return constant.StringVal(v) == ""
	case constant.Int, constant.Float:
		return constant.Sign(v) == 0
	}
	return false
}

// reservedMethods 生成代码中已占用的方法名，兜底枚举项的取值方法不能与之重名
var reservedMethods = map[string]bool{
	"ToRepr": true, "Name": true, "IsUnknown": true, "Equal": true,
	"Compare": true, "Hash": true, "String": true, "ordinal": true,
	"MarshalJSON": true, "UnmarshalJSON": true, "MarshalYAML": true, "UnmarshalYAML": true,
	"MarshalText": true, "UnmarshalText": true, "Value": true, "Scan": true, "GormDataType": true,
	"tag": true, "raw": true,
}

// Validate 检查模型，返回所有发现的问题
func (m *EnumModel) Validate() error {
	var errs []error

	if !token.IsIdentifier(m.Name) || !token.IsExported(m.Name) {
		errs = append(errs, fmt.Errorf("类型名 %q 不是合法的导出标识符", m.Name))
	}
	if m.Name == m.Source {
		errs = append(errs, fmt.Errorf("生成的类型名 %s 与声明结构体同名，请通过 name 参数指定", m.Name))
	}
	if !token.IsIdentifier(m.Unknown) {
		errs = append(errs, fmt.Errorf("兜底枚举项名称 %q 不是合法标识符", m.Unknown))
	} else if reservedMethods[m.Unknown] {
		errs = append(errs, fmt.Errorf("兜底枚举项名称 %s 与生成的方法或字段同名", m.Unknown))
	}

	// 生成代码在包级声明的标识符 -> 来源
	decls := map[string]string{
		m.Name:                "类型 " + m.Name,
		m.Name + "Values":     m.Name + "Values",
		m.Name + "FromRepr":   m.Name + "FromRepr",
		m.Name + "FromName":   m.Name + "FromName",
		m.Name + "Enums":      m.Name + "Enums",
		m.TagConst(m.Unknown): "兜底枚举项 " + m.Unknown,
	}
	if _, ok := decls[m.Source]; !ok {
		decls[m.Source] = "声明结构体 " + m.Source
	}
	declare := func(c *Case, ident string) {
		if owner, ok := decls[ident]; ok {
			errs = append(errs, fmt.Errorf("%s: 枚举项 %s 生成的标识符 %s 与 %s 冲突", c.Pos, c.Name, ident, owner))
			return
		}
		decls[ident] = "枚举项 " + c.Name
	}

	names := make(map[string]*Case, len(m.Cases))
	values := make(map[string]*Case, len(m.Cases))
	for _, c := range m.Cases {
		if prev, ok := names[c.Name]; ok {
			errs = append(errs, fmt.Errorf("%s: 枚举项名称 %s 重复，首次声明于 %s", c.Pos, c.Name, prev.Pos))
			continue
		}
		names[c.Name] = c

		// 与兜底枚举项同名的情况在下面单独报告
		if c.Name != m.Unknown {
			declare(c, m.CaseIdent(c))
			declare(c, m.TagConst(c.Name))
		}

		if c.Value == nil {
			continue
		}
		key := m.valueKey(c.Value)
		if prev, ok := values[key]; ok {
			errs = append(errs, fmt.Errorf("%s: 枚举项 %s 的值 %s 与 %s 重复", c.Pos, c.Name, c.Expr, prev.Name))
			continue
		}
		values[key] = c
	}

	if c, ok := names[m.Unknown]; ok {
		errs = append(errs, fmt.Errorf("%s: 兜底枚举项名称 %s 与已命名枚举项冲突，请通过 unknown 参数改名", c.Pos, m.Unknown))
	}

	return errors.Join(errs...)
}

// valueKey 将常量按表示类型归一化，用于检查重复
// float32 下不同字面量可能舍入为同一个值
func (m *EnumModel) valueKey(v constant.Value) string {
	switch m.Kind {
	case KindFloat:
		if m.Bits == 32 {
			f, _ := constant.Float32Val(v)
			return strconv.FormatFloat(float64(f), 'g', -1, 32)
		}
		f, _ := constant.Float64Val(v)
		return strconv.FormatFloat(f, 'g', -1, 64)
	case KindString:
		return strconv.Quote(constant.StringVal(v))
	default:
		return v.ExactString()
	}
}

// intRange 返回整数表示类型的取值范围
func intRange(kind ReprKind, bits int) (lo, hi constant.Value) {
	if kind == KindUint {
		u := uint64(math.MaxUint64)
		if bits < 64 {
			u = 1<<bits - 1
		}
		return constant.MakeInt64(0), constant.MakeUint64(u)
	}
	return constant.MakeInt64(-1 << (bits - 1)), constant.MakeInt64(math.MaxInt64 >> (64 - bits))
}

// checkValue 检查常量能否表示为目标类型，返回转换后的常量
func checkValue(v constant.Value, kind ReprKind, bits int) (constant.Value, error) {
	switch kind {
	case KindInt, KindUint:
		iv := constant.ToInt(v)
		if iv.Kind() != constant.Int {
			return nil, fmt.Errorf("%s 不是整数常量", v)
		}
		if bits == 0 {
			return iv, nil
		}
		lo, hi := intRange(kind, bits)
		if constant.Compare(iv, token.LSS, lo) || constant.Compare(iv, token.GTR, hi) {
			return nil, fmt.Errorf("%s 超出表示类型范围 [%s, %s]", iv, lo, hi)
		}
		return iv, nil
	case KindFloat:
		fv := constant.ToFloat(v)
		if fv.Kind() != constant.Float && fv.Kind() != constant.Int {
			return nil, fmt.Errorf("%s 不是浮点常量", v)
		}
		var inf bool
		if bits == 32 {
			f, _ := constant.Float32Val(fv)
			inf = math.IsInf(float64(f), 0)
		} else {
			f, _ := constant.Float64Val(fv)
			inf = math.IsInf(f, 0)
		}
		if inf {
			return nil, fmt.Errorf("%s 超出 float%d 范围", v, bits)
		}
		return fv, nil
	case KindString:
		if v.Kind() != constant.String {
			return nil, fmt.Errorf("%s 不是字符串常量", v)
		}
		return v, nil
	}
	return nil, fmt.Errorf("不支持的表示类型")
}

// docLines 提取注释中除注解之外的行
func docLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "@") {
			continue
		}
		lines = append(lines, line)
	}
	// 去掉首尾空行
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
