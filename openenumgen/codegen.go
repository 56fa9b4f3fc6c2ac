package openenumgen

import (
	"fmt"
	"go/token"
	"slices"
	"strings"

	"github.com/donutnomad/gg"
	"github.com/samber/lo"
)

// EnumPackage 运行时支持包的导入路径
const EnumPackage = "github.com/donutnomad/openenum/enum"

// CodeGenerator 将 EnumModel 渲染为 Go 代码
type CodeGenerator struct {
	model *EnumModel
	gen   *gg.Generator
}

// NewCodeGenerator 创建代码生成器
func NewCodeGenerator(model *EnumModel) *CodeGenerator {
	gen := gg.New()
	gen.SetPackage(model.Package)
	return &CodeGenerator{
		model: model,
		gen:   gen,
	}
}

// Generate 生成完整的代码
func (c *CodeGenerator) Generate() (*gg.Generator, error) {
	if err := c.model.Validate(); err != nil {
		return nil, err
	}
	group := c.gen.Body()

	c.generateType(group)
	c.generateTagConsts(group)
	c.generateCases(group)
	c.generateFromRepr(group)
	c.generateFromName(group)
	c.generateToRepr(group)
	c.generateAccessors(group)

	if c.model.Compare {
		c.generateCompare(group)
	}
	if c.model.Hash {
		c.generateHash(group)
	}
	if c.model.String {
		c.generateString(group)
	}

	if c.model.JSON {
		c.generateJSON(group)
	}
	if c.model.YAML {
		c.generateYAML(group)
	}
	if c.model.Text {
		c.generateText(group)
	}
	if c.model.SQL {
		c.generateSQL(group)
	}

	return c.gen, nil
}

// typeParams 类型参数声明，同时登记约束引用的包
func (c *CodeGenerator) typeParams() string {
	m := c.model
	if !m.Generic() {
		return ""
	}
	constraint := m.TypeParam.Constraint
	for _, imp := range m.TypeParam.Imports {
		ref := c.gen.PAlias(imp.Path, imp.Alias)
		if sel, ok := strings.CutPrefix(constraint, imp.Alias+"."); ok && token.IsIdentifier(sel) {
			constraint = fmt.Sprint(ref.Type(sel))
		}
	}
	return "[" + m.TypeParam.Name + " " + constraint + "]"
}

func (c *CodeGenerator) enumRef(name string) any {
	return c.gen.P(EnumPackage).Dot(name)
}

func (c *CodeGenerator) receiver() string {
	return c.model.TypeRef()
}

// tagLit 指定位置的 tag 常量
func (c *CodeGenerator) tagLit(pos int) string {
	m := c.model
	if pos == len(m.Cases) {
		return m.TagConst(m.Unknown)
	}
	return m.TagConst(m.Cases[pos].Name)
}

// generateType 生成枚举类型
func (c *CodeGenerator) generateType(group *gg.Group) {
	m := c.model

	group.AddLine()
	if len(m.Doc) > 0 {
		for _, line := range m.Doc {
			group.Append(gg.S("%s", commentLine(line)))
		}
	} else {
		group.Append(gg.LineComment("%s 开放枚举，由 %s 声明", m.Name, m.Source))
	}
	group.Append(gg.LineComment("零值为 %s", c.zeroDescription()))
	group.Append(gg.S("type %s%s struct {\n\ttag %s\n\traw %s\n}", m.Name, c.typeParams(), m.TagType(), m.Repr))
}

func (c *CodeGenerator) zeroDescription() string {
	m := c.model
	if m.Default >= 0 {
		return m.CaseIdent(m.Cases[m.Default])
	}
	return m.Unknown + "(零值)"
}

// generateTagConsts 生成 tag 常量
func (c *CodeGenerator) generateTagConsts(group *gg.Group) {
	m := c.model

	group.AddLine()
	constGroup := gg.Const()
	for pos := range m.Cases {
		constGroup.AddTypedField(c.tagLit(pos), m.TagType(), gg.Lit(m.TagOf(pos)))
	}
	constGroup.AddTypedField(c.tagLit(len(m.Cases)), m.TagType(), gg.Lit(m.UnknownTag()))
	group.Append(constGroup)
}

// generateCases 生成已命名枚举项
// 非泛型生成包级变量，泛型生成构造函数
func (c *CodeGenerator) generateCases(group *gg.Group) {
	m := c.model
	if len(m.Cases) == 0 {
		return
	}

	group.AddLine()
	if m.Generic() {
		tp := c.typeParams()
		for i, cs := range m.Cases {
			if i > 0 {
				group.AddLine()
			}
			c.appendCaseDoc(group, cs)
			group.Append(gg.S("func %s%s() %s {\n\treturn %s{tag: %s}\n}",
				m.CaseIdent(cs), tp, m.TypeRef(), m.TypeRef(), c.tagLit(i)))
		}
	} else {
		var lines []string
		for i, cs := range m.Cases {
			for _, line := range caseDoc(m, cs) {
				lines = append(lines, "\t"+commentLine(line))
			}
			lines = append(lines, fmt.Sprintf("\t%s = %s{tag: %s}", m.CaseIdent(cs), m.Name, c.tagLit(i)))
		}
		group.Append(gg.S("var (\n%s\n)", strings.Join(lines, "\n")))

		c.generateEnumAggregateVar(group)
	}

	// 按声明顺序列出所有枚举项
	group.AddLine()
	group.Append(gg.LineComment("%sValues 按声明顺序返回所有已命名枚举项", m.Name))
	values := lo.Map(m.Cases, func(cs *Case, _ int) string { return m.CaseValue(cs) })
	group.Append(gg.S("func %sValues%s() []%s {\n\treturn []%s{%s}\n}",
		m.Name, c.typeParams(), m.TypeRef(), m.TypeRef(), strings.Join(values, ", ")))
}

func (c *CodeGenerator) appendCaseDoc(group *gg.Group, cs *Case) {
	for _, line := range caseDoc(c.model, cs) {
		group.Append(gg.S("%s", commentLine(line)))
	}
}

// caseDoc 枚举项注释，没有注释时给出表示值
// 以字段名开头的注释改为以生成的标识符开头，例如 Empty 未填写 -> FruitEmpty 未填写
func caseDoc(m *EnumModel, cs *Case) []string {
	if len(cs.Doc) == 0 {
		return []string{fmt.Sprintf("%s 表示值 %s", m.CaseIdent(cs), cs.Expr)}
	}
	doc := slices.Clone(cs.Doc)
	if rest, ok := strings.CutPrefix(doc[0], cs.Name); ok && (rest == "" || rest[0] == ' ') {
		doc[0] = m.CaseIdent(cs) + rest
	}
	return doc
}

// generateEnumAggregateVar 生成枚举聚合变量
// 例如: var FruitEnums = struct { Apple Fruit; ... }{ Apple: FruitApple, ... }
func (c *CodeGenerator) generateEnumAggregateVar(group *gg.Group) {
	m := c.model

	var structFields, literalFields []string
	for _, cs := range m.Cases {
		structFields = append(structFields, fmt.Sprintf("\t%s %s", cs.Name, m.Name))
		literalFields = append(literalFields, fmt.Sprintf("\t%s: %s,", cs.Name, m.CaseIdent(cs)))
	}

	group.AddLine()
	group.Append(gg.S("var %sEnums = struct {\n%s\n}{\n%s\n}",
		m.Name,
		strings.Join(structFields, "\n"),
		strings.Join(literalFields, "\n"),
	))
}

// generateFromRepr 生成表示值到枚举的转换
// 按声明顺序匹配，未匹配的值保存在兜底枚举项中
func (c *CodeGenerator) generateFromRepr(group *gg.Group) {
	m := c.model

	var body []string
	if len(m.Cases) > 0 {
		body = append(body, "\tswitch v {")
		for _, cs := range m.Cases {
			body = append(body,
				fmt.Sprintf("\tcase %s:", cs.Expr),
				fmt.Sprintf("\t\treturn %s", m.CaseValue(cs)),
			)
		}
		body = append(body, "\t}")
	}
	body = append(body, fmt.Sprintf("\treturn %s{tag: %s, raw: v}", m.TypeRef(), c.tagLit(len(m.Cases))))

	group.AddLine()
	group.Append(gg.LineComment("%sFromRepr 将表示值转换为枚举，未声明的值返回 %s(v)", m.Name, m.Unknown))
	group.Append(gg.S("func %sFromRepr%s(v %s) %s {\n%s\n}",
		m.Name, c.typeParams(), m.Repr, m.TypeRef(), strings.Join(body, "\n")))
}

// generateFromName 生成按名称查找已命名枚举项
func (c *CodeGenerator) generateFromName(group *gg.Group) {
	m := c.model

	var body []string
	if len(m.Cases) > 0 {
		body = append(body, "\tswitch name {")
		for _, cs := range m.Cases {
			body = append(body,
				fmt.Sprintf("\tcase %q:", cs.Name),
				fmt.Sprintf("\t\treturn %s, true", m.CaseValue(cs)),
			)
		}
		body = append(body, "\t}")
	}
	body = append(body, fmt.Sprintf("\treturn %s{}, false", m.TypeRef()))

	group.AddLine()
	group.Append(gg.LineComment("%sFromName 按名称查找已命名枚举项", m.Name))
	group.Append(gg.S("func %sFromName%s(name string) (%s, bool) {\n%s\n}",
		m.Name, c.typeParams(), m.TypeRef(), strings.Join(body, "\n")))
}

// tagSwitch 按 tag 分支，每个已命名枚举项生成一个 case
func (c *CodeGenerator) tagSwitch(caseBody func(cs *Case) any) any {
	sw := gg.Switch("e.tag")
	for pos, cs := range c.model.Cases {
		sw.NewCase(gg.S("%s", c.tagLit(pos))).AddBody(caseBody(cs))
	}
	return sw
}

// generateToRepr 生成枚举到表示值的转换
func (c *CodeGenerator) generateToRepr(group *gg.Group) {
	m := c.model

	group.AddLine()
	group.Append(gg.LineComment("ToRepr 返回表示值，%s 原样返回保存的值", m.Unknown))
	fn := gg.Function("ToRepr").
		WithReceiver("e", c.receiver()).
		AddResult("", m.Repr)
	if len(m.Cases) > 0 {
		fn.AddBody(c.tagSwitch(func(cs *Case) any { return gg.S("return %s", cs.Expr) }))
	}
	fn.AddBody(gg.Return(gg.S("e.raw")))
	group.Append(fn)
}

// generateAccessors 生成名称与兜底枚举项相关的方法
func (c *CodeGenerator) generateAccessors(group *gg.Group) {
	m := c.model
	unknownTag := c.tagLit(len(m.Cases))

	group.AddLine()
	group.Append(gg.LineComment("Name 返回枚举项名称"))
	fn := gg.Function("Name").
		WithReceiver("e", c.receiver()).
		AddResult("", "string")
	if len(m.Cases) > 0 {
		fn.AddBody(c.tagSwitch(func(cs *Case) any { return gg.Return(gg.Lit(cs.Name)) }))
	}
	fn.AddBody(gg.Return(gg.Lit(m.Unknown)))
	group.Append(fn)

	group.AddLine()
	group.Append(gg.LineComment("IsUnknown 是否为 %s", m.Unknown))
	group.Append(gg.Function("IsUnknown").
		WithReceiver("e", c.receiver()).
		AddResult("", "bool").
		AddBody(gg.S("return e.tag == %s", unknownTag)))

	group.AddLine()
	group.Append(gg.LineComment("%s 返回 %s 保存的值", m.Unknown, m.Unknown))
	group.Append(gg.Function(m.Unknown).
		WithReceiver("e", c.receiver()).
		AddResult("", m.Repr).
		AddResult("", "bool").
		AddBody(
			gg.If(fmt.Sprintf("e.tag == %s", unknownTag)).AddBody(gg.S("return e.raw, true")),
			gg.S("var zero %s", m.Repr),
			gg.S("return zero, false"),
		))

	group.AddLine()
	group.Append(gg.LineComment("Equal 先比较枚举项，再比较 %s 保存的值", m.Unknown))
	group.Append(gg.Function("Equal").
		WithReceiver("e", c.receiver()).
		AddParameter("o", m.TypeRef()).
		AddResult("", "bool").
		AddBody(gg.S("return e == o")))
}

// generateCompare 生成按声明顺序比较
func (c *CodeGenerator) generateCompare(group *gg.Group) {
	m := c.model
	cmpCompare := c.gen.P("cmp").Dot("Compare")

	// tag 还原为声明位置
	var ordinal any = gg.S("return int(e.tag)")
	if def := m.defPos(); def != 0 {
		ordinal = gg.S("return (int(e.tag) + %d) %% %d", def, len(m.Cases)+1)
	}

	group.AddLine()
	group.Append(gg.Function("ordinal").
		WithReceiver("e", c.receiver()).
		AddResult("", "int").
		AddBody(ordinal))

	group.AddLine()
	group.Append(gg.LineComment("Compare 已命名枚举项按声明顺序排列，%s 排在最后并按保存的值排列", m.Unknown))
	group.Append(gg.Function("Compare").
		WithReceiver("e", c.receiver()).
		AddParameter("o", m.TypeRef()).
		AddResult("", "int").
		AddBody(
			gg.If(fmt.Sprintf("c := %s(e.ordinal(), o.ordinal()); c != 0", cmpCompare)).AddBody(gg.S("return c")),
			gg.S("return %s(e.raw, o.raw)", cmpCompare),
		))
}

// generateHash 生成哈希方法
func (c *CodeGenerator) generateHash(group *gg.Group) {
	maphash := c.gen.P("hash/maphash")

	group.AddLine()
	group.Append(gg.LineComment("Hash 依次写入 tag 和保存的值，相等的值得到相同的哈希"))
	group.Append(gg.Function("Hash").
		WithReceiver("e", c.receiver()).
		AddParameter("h", fmt.Sprintf("*%s", maphash.Type("Hash"))).
		AddBody(
			gg.S("%s(h, e.tag)", maphash.Dot("WriteComparable")),
			gg.S("%s(h, e.raw)", maphash.Dot("WriteComparable")),
		))
}

// generateString 生成 fmt.Stringer
func (c *CodeGenerator) generateString(group *gg.Group) {
	m := c.model

	group.AddLine()
	group.Append(gg.LineComment("String 返回枚举项名称，%s 格式为 %s(值)", m.Unknown, m.Unknown))
	group.Append(gg.Function("String").
		WithReceiver("e", c.receiver()).
		AddResult("", "string").
		AddBody(
			gg.If("v, ok := e."+m.Unknown+"(); ok").AddBody(
				gg.S("return %s(%s, v)", c.enumRef("FormatUnknown"), gg.Lit(m.Unknown)),
			),
			gg.S("return e.Name()"),
		))
}

// decodeInto 反序列化的公共尾部：解码出表示值后按规则分类
func (c *CodeGenerator) decodeInto(helper string, arg string) []any {
	m := c.model
	return []any{
		gg.S("v, err := %s[%s](%s)", c.enumRef(helper), m.Repr, arg),
		gg.If("err != nil").AddBody(gg.S("return err")),
		gg.S("*e = %sFromRepr(v)", m.Name),
		gg.S("return nil"),
	}
}

func (c *CodeGenerator) ptrReceiver() string {
	return "*" + c.model.TypeRef()
}

// generateJSON 生成 JSON 编解码
func (c *CodeGenerator) generateJSON(group *gg.Group) {
	group.AddLine()
	group.Append(gg.LineComment("MarshalJSON 编码为表示值"))
	group.Append(gg.Function("MarshalJSON").
		WithReceiver("e", c.receiver()).
		AddResult("", "[]byte").
		AddResult("", "error").
		AddBody(gg.S("return %s(e.ToRepr())", c.enumRef("MarshalJSON"))))

	body := []any{
		gg.If(fmt.Sprintf("%s(data)", c.enumRef("IsJSONNull"))).AddBody(gg.S("return nil")),
	}
	body = append(body, c.decodeInto("UnmarshalJSON", "data")...)

	group.AddLine()
	group.Append(gg.LineComment("UnmarshalJSON 解码表示值，未声明的值保存为 %s", c.model.Unknown))
	group.Append(gg.Function("UnmarshalJSON").
		WithReceiver("e", c.ptrReceiver()).
		AddParameter("data", "[]byte").
		AddResult("", "error").
		AddBody(body...))
}

// generateYAML 生成 YAML 编解码
func (c *CodeGenerator) generateYAML(group *gg.Group) {
	yaml := c.gen.PAlias("gopkg.in/yaml.v3", "yaml")

	group.AddLine()
	group.Append(gg.LineComment("MarshalYAML 编码为表示值"))
	group.Append(gg.Function("MarshalYAML").
		WithReceiver("e", c.receiver()).
		AddResult("", "any").
		AddResult("", "error").
		AddBody(gg.S("return e.ToRepr(), nil")))

	group.AddLine()
	group.Append(gg.LineComment("UnmarshalYAML 解码表示值，未声明的值保存为 %s", c.model.Unknown))
	group.Append(gg.Function("UnmarshalYAML").
		WithReceiver("e", c.ptrReceiver()).
		AddParameter("node", fmt.Sprintf("*%s", yaml.Type("Node"))).
		AddResult("", "error").
		AddBody(c.decodeInto("DecodeYAML", "node")...))
}

// generateText 生成文本编解码
func (c *CodeGenerator) generateText(group *gg.Group) {
	group.AddLine()
	group.Append(gg.LineComment("MarshalText 编码为表示值的文本形式"))
	group.Append(gg.Function("MarshalText").
		WithReceiver("e", c.receiver()).
		AddResult("", "[]byte").
		AddResult("", "error").
		AddBody(gg.S("return %s(e.ToRepr())", c.enumRef("MarshalText"))))

	group.AddLine()
	group.Append(gg.LineComment("UnmarshalText 解码表示值，未声明的值保存为 %s", c.model.Unknown))
	group.Append(gg.Function("UnmarshalText").
		WithReceiver("e", c.ptrReceiver()).
		AddParameter("text", "[]byte").
		AddResult("", "error").
		AddBody(c.decodeInto("UnmarshalText", "text")...))
}

// generateSQL 生成 database/sql 与 GORM 支持
func (c *CodeGenerator) generateSQL(group *gg.Group) {
	m := c.model
	driver := c.gen.P("database/sql/driver")

	group.AddLine()
	group.Append(gg.LineComment("Value 实现 driver.Valuer"))
	group.Append(gg.Function("Value").
		WithReceiver("e", c.receiver()).
		AddResult("", fmt.Sprint(driver.Type("Value"))).
		AddResult("", "error").
		AddBody(gg.S("return %s(e.ToRepr())", c.enumRef("DriverValue"))))

	group.AddLine()
	group.Append(gg.LineComment("Scan 实现 sql.Scanner，NULL 视为表示类型的零值"))
	group.Append(gg.Function("Scan").
		WithReceiver("e", c.ptrReceiver()).
		AddParameter("src", "any").
		AddResult("", "error").
		AddBody(c.decodeInto("Scan", "src")...))

	group.AddLine()
	group.Append(gg.LineComment("GormDataType 返回 GORM 通用数据类型"))
	group.Append(gg.Function("GormDataType").
		WithReceiver("e", c.receiver()).
		AddResult("", "string").
		AddBody(gg.S("return %s[%s]()", c.enumRef("GormDataType"), m.Repr)))
}

func commentLine(line string) string {
	if strings.TrimSpace(line) == "" {
		return "//"
	}
	return "// " + line
}
