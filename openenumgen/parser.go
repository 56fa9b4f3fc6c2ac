package openenumgen

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/constant"
	"go/printer"
	"go/token"
	"go/types"
	"reflect"
	"strconv"
	"strings"

	"github.com/donutnomad/openenum/internal/utils"
	"github.com/donutnomad/openenum/plugin"
	"github.com/samber/lo"
)

// TagKey 枚举项值所在的 struct tag 键
const TagKey = "enum"

// constraintKinds x/exp/constraints 中各约束对应的取值检查
// 泛型字面量必须能表示为约束类型集中的每一个类型
var constraintKinds = map[string][]reprInfo{
	"Integer":  {{KindInt, 8}, {KindUint, 8}},
	"Signed":   {{KindInt, 8}},
	"Unsigned": {{KindUint, 8}},
	"Float":    {{KindFloat, 32}},
}

// ParseTarget 将 @OpenEnum 标注的结构体解析为模型
// 返回的模型尚未校验，调用方需要调用 Validate
func ParseTarget(target *plugin.Target, params OpenEnumParams) (*EnumModel, error) {
	spec := target.Node
	if spec == nil {
		return nil, fmt.Errorf("缺少 %s 的语法树", target.Name)
	}
	st, ok := spec.Type.(*ast.StructType)
	if !ok {
		return nil, fmt.Errorf("%s 不是结构体", target.Name)
	}

	m := &EnumModel{
		Name:    params.Name,
		Source:  target.Name,
		Package: target.PackageName,
		Default: -1,
		Unknown: params.Unknown,
	}
	if m.Name == "" {
		m.Name = deriveName(target.Name)
	}
	if m.Unknown == "" {
		m.Unknown = "Unknown"
	}
	if target.Doc != nil {
		m.Doc = docLines(target.Doc.Text())
	}

	var errs []error
	if err := applyOptions(m, params); err != nil {
		errs = append(errs, err)
	}

	var checks []reprInfo
	if spec.TypeParams != nil {
		tp, err := parseTypeParam(target, spec.TypeParams)
		if err != nil {
			return nil, err
		}
		checks, err = constraintChecks(tp, spec.TypeParams.List[0].Type)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", target.Pos(), err)
		}
		m.TypeParam = tp
		m.Repr = tp.Name
		m.Kind, m.Bits = genericKind(checks)
	}

	for _, field := range st.Fields.List {
		c, typ, err := parseField(target, field)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if m.Repr == "" {
			info, ok := basicReprs[typ]
			if !ok {
				return nil, fmt.Errorf("%s: 不支持的表示类型 %s，仅支持 string、整数、浮点数或类型参数", c.Pos, typ)
			}
			m.Repr, m.Kind, m.Bits = typ, info.kind, info.bits
			checks = append(checks, info)
		} else if typ != m.Repr {
			errs = append(errs, fmt.Errorf("%s: 枚举项 %s 的类型 %s 与 %s 不一致", c.Pos, c.Name, typ, m.Repr))
			continue
		}

		if err := evalCase(c, m.Kind, checks); err != nil {
			errs = append(errs, fmt.Errorf("%s: 枚举项 %s: %w", c.Pos, c.Name, err))
		}
		m.Cases = append(m.Cases, c)
	}

	if m.Repr == "" {
		if len(errs) > 0 {
			return nil, errors.Join(errs...)
		}
		return nil, fmt.Errorf("%s 没有声明任何枚举项，无法确定表示类型", target.Name)
	}

	if params.Default != "" {
		m.Default = lo.IndexOf(lo.Map(m.Cases, func(c *Case, _ int) string { return c.Name }), params.Default)
		if m.Default < 0 {
			errs = append(errs, fmt.Errorf("默认枚举项 %s 不存在", params.Default))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

// deriveName 由结构体名推导类型名：去掉 Cases/Def 后缀并转为大驼峰
func deriveName(source string) string {
	name := source
	for _, suffix := range []string{"Cases", "Def"} {
		if trimmed := strings.TrimSuffix(name, suffix); trimmed != name && trimmed != "" {
			name = trimmed
			break
		}
	}
	return utils.UpperCamelCase(name)
}

// applyOptions 解析 derive 与 codec 选项
func applyOptions(m *EnumModel, params OpenEnumParams) error {
	var errs []error

	derive, err := optionSet("derive", params.Derive, "compare", "hash", "string")
	if err != nil {
		errs = append(errs, err)
	}
	m.Compare, m.Hash, m.String = derive["compare"], derive["hash"], derive["string"]

	codec, err := optionSet("codec", params.Codec, "json", "yaml", "text", "sql")
	if err != nil {
		errs = append(errs, err)
	}
	m.JSON, m.YAML, m.Text, m.SQL = codec["json"], codec["yaml"], codec["text"], codec["sql"]

	return errors.Join(errs...)
}

// optionSet 校验列表参数，none 表示空集且不能与其他选项同时出现
func optionSet(param string, values []string, allowed ...string) (map[string]bool, error) {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.ToLower(v)
		if v != "none" && !lo.Contains(allowed, v) {
			return nil, fmt.Errorf("%s 不支持选项 %q，可选: %s", param, v, strings.Join(append(allowed, "none"), "|"))
		}
		set[v] = true
	}
	if set["none"] {
		if len(set) > 1 {
			return nil, fmt.Errorf("%s=none 不能与其他选项同时使用", param)
		}
		return nil, nil
	}
	return set, nil
}

// parseTypeParam 解析唯一的类型参数及其约束引用的包
func parseTypeParam(target *plugin.Target, list *ast.FieldList) (*TypeParam, error) {
	if list.NumFields() != 1 {
		return nil, fmt.Errorf("%s: 开放枚举最多只能有一个类型参数", target.Pos())
	}
	field := list.List[0]

	tp := &TypeParam{
		Name:       field.Names[0].Name,
		Constraint: nodeString(target.Fset, field.Type),
	}

	// 收集约束中引用的包
	used := make(map[string]bool)
	ast.Inspect(field.Type, func(n ast.Node) bool {
		if sel, ok := n.(*ast.SelectorExpr); ok {
			if id, ok := sel.X.(*ast.Ident); ok {
				used[id.Name] = true
			}
		}
		return true
	})
	if target.File != nil {
		for _, imp := range target.File.Imports {
			path, _ := strconv.Unquote(imp.Path.Value)
			name := importName(imp, path)
			if used[name] {
				tp.Imports = append(tp.Imports, Import{Alias: name, Path: path})
			}
		}
	}
	return tp, nil
}

// constraintChecks 解析类型参数的约束，返回字面量需要通过的取值检查
// 支持 x/exp/constraints 的 Integer、Signed、Unsigned、Float，以及由数值类型组成的联合（~int8 | ~int16）
func constraintChecks(tp *TypeParam, expr ast.Expr) ([]reprInfo, error) {
	switch x := expr.(type) {
	case *ast.ParenExpr:
		return constraintChecks(tp, x.X)
	case *ast.SelectorExpr:
		pkg, ok := x.X.(*ast.Ident)
		if !ok {
			break
		}
		for _, imp := range tp.Imports {
			if imp.Alias == pkg.Name && strings.HasSuffix(imp.Path, "/constraints") {
				if checks, ok := constraintKinds[x.Sel.Name]; ok {
					return checks, nil
				}
			}
		}
	case *ast.Ident:
		if info, ok := basicReprs[x.Name]; ok && info.kind != KindString {
			return []reprInfo{info}, nil
		}
	case *ast.UnaryExpr:
		if x.Op == token.TILDE {
			return constraintChecks(tp, x.X)
		}
	case *ast.BinaryExpr:
		if x.Op == token.OR {
			left, err := constraintChecks(tp, x.X)
			if err != nil {
				return nil, err
			}
			right, err := constraintChecks(tp, x.Y)
			if err != nil {
				return nil, err
			}
			return append(left, right...), nil
		}
	case *ast.InterfaceType:
		if x.Methods != nil && len(x.Methods.List) == 1 && len(x.Methods.List[0].Names) == 0 {
			return constraintChecks(tp, x.Methods.List[0].Type)
		}
	}
	return nil, fmt.Errorf("不支持的类型约束 %s，仅支持 constraints.Integer/Signed/Unsigned/Float 或数值类型的联合", tp.Constraint)
}

// genericKind 泛型表示的分类：含整数项时按整数处理，位宽取最窄的一项
func genericKind(checks []reprInfo) (ReprKind, int) {
	kind, bits := KindFloat, 0
	for _, c := range checks {
		if c.kind != KindFloat && kind == KindFloat {
			kind, bits = c.kind, c.bits
			continue
		}
		if (c.kind == KindFloat) == (kind == KindFloat) && (bits == 0 || c.bits < bits) {
			bits = c.bits
		}
	}
	return kind, bits
}

// importName 返回导入在文件中使用的名称
func importName(imp *ast.ImportSpec, path string) string {
	if imp.Name != nil {
		return imp.Name.Name
	}
	name := path[strings.LastIndex(path, "/")+1:]
	// gopkg.in/yaml.v3 之类的版本后缀
	if i := strings.Index(name, "."); i > 0 {
		name = name[:i]
	}
	return name
}

// parseField 解析一个字段，返回枚举项和字段类型源码
func parseField(target *plugin.Target, field *ast.Field) (*Case, string, error) {
	pos := target.Fset.Position(field.Pos())
	switch len(field.Names) {
	case 0:
		return nil, "", fmt.Errorf("%s: 不支持嵌入字段", pos)
	case 1:
	default:
		return nil, "", fmt.Errorf("%s: 每个字段只能声明一个枚举项", pos)
	}

	c := &Case{
		Name: field.Names[0].Name,
		Pos:  pos,
	}
	if c.Name == "_" {
		return nil, "", fmt.Errorf("%s: 枚举项名称不能为 _", pos)
	}
	if field.Doc != nil {
		c.Doc = docLines(field.Doc.Text())
	}

	if field.Tag == nil {
		return nil, "", fmt.Errorf("%s: 枚举项 %s 缺少 `%s:\"...\"` 标签", pos, c.Name, TagKey)
	}
	raw, err := strconv.Unquote(field.Tag.Value)
	if err != nil {
		return nil, "", fmt.Errorf("%s: 枚举项 %s 的标签无法解析: %w", pos, c.Name, err)
	}
	value, ok := reflect.StructTag(raw).Lookup(TagKey)
	if !ok {
		return nil, "", fmt.Errorf("%s: 枚举项 %s 缺少 `%s:\"...\"` 标签", pos, c.Name, TagKey)
	}
	c.Expr = value

	return c, nodeString(target.Fset, field.Type), nil
}

// evalCase 计算枚举项的常量值
// 字符串表示直接使用标签内容，其他表示将标签内容作为 Go 常量表达式求值
func evalCase(c *Case, kind ReprKind, checks []reprInfo) error {
	if kind == KindString {
		c.Value = constant.MakeString(c.Expr)
		c.Expr = strconv.Quote(c.Expr)
		return nil
	}

	expr := strings.TrimSpace(c.Expr)
	if expr == "" {
		return fmt.Errorf("值不能为空")
	}
	tv, err := types.Eval(token.NewFileSet(), nil, token.NoPos, expr)
	if err != nil {
		return fmt.Errorf("无法求值 %q: %w", expr, err)
	}
	if tv.Value == nil {
		return fmt.Errorf("%q 不是常量表达式", expr)
	}

	v := tv.Value
	for _, check := range checks {
		if v, err = checkValue(v, check.kind, check.bits); err != nil {
			return err
		}
	}
	c.Value = v
	c.Expr = expr
	if v.Kind() == constant.Int {
		c.Expr = v.ExactString()
	}
	return nil
}

func nodeString(fset *token.FileSet, node ast.Node) string {
	var buf bytes.Buffer
	_ = printer.Fprint(&buf, fset, node)
	return buf.String()
}
