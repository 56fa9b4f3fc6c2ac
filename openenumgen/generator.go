package openenumgen

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/donutnomad/openenum/plugin"
)

const generatorName = "openenum"

// OpenEnumParams 定义 OpenEnum 注解支持的参数
type OpenEnumParams struct {
	Name    string   `param:"name=name,required=false,default=,description=生成的类型名，默认去掉 Cases/Def 后缀后转为大驼峰"`
	Default string   `param:"name=default,required=false,default=,description=零值对应的枚举项名称"`
	Unknown string   `param:"name=unknown,required=false,default=Unknown,description=兜底枚举项名称"`
	Derive  []string `param:"name=derive,required=false,default=string,description=派生能力: compare|hash|string|none"`
	Codec   []string `param:"name=codec,required=false,default=none,description=序列化支持: json|yaml|text|sql|none"`
	Output  string   `param:"name=output,required=false,default=,description=输出文件"`
}

// OpenEnumGenerator 实现 plugin.Generator 接口
type OpenEnumGenerator struct {
	plugin.BaseGenerator
}

// NewOpenEnumGenerator 创建开放枚举生成器
func NewOpenEnumGenerator() *OpenEnumGenerator {
	return &OpenEnumGenerator{
		BaseGenerator: *plugin.NewBaseGenerator(generatorName, []string{"OpenEnum"}, plugin.WithParams(OpenEnumParams{})),
	}
}

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableMethods:          true,
}

// Generate 执行代码生成
func (g *OpenEnumGenerator) Generate(ctx *plugin.GenerateContext) (*plugin.GenerateResult, error) {
	result := plugin.NewGenerateResult()

	for _, at := range ctx.Targets {
		ann := plugin.GetAnnotation(at.Annotations, "OpenEnum")
		if ann == nil {
			continue
		}

		var params OpenEnumParams
		if at.ParsedParams != nil {
			var ok bool
			params, ok = at.ParsedParams.(OpenEnumParams)
			if !ok {
				result.AddError(fmt.Errorf("ParsedParams 类型断言失败: %T", at.ParsedParams))
				continue
			}
		}

		model, err := ParseTarget(at.Target, params)
		if err != nil {
			result.AddError(fmt.Errorf("%s: 解析 %s 失败: %w", at.Target.Pos(), at.Target.Name, err))
			continue
		}

		if model.Default < 0 {
			if zc := model.ZeroCase(); zc != nil {
				fmt.Printf("警告: %s: %s 未声明 default，零值为 %s(零值) 而不是 %s\n",
					at.Target.Pos(), model.Name, model.Unknown, model.CaseIdent(zc))
			}
		}

		gen, err := NewCodeGenerator(model).Generate()
		if err != nil {
			result.AddError(fmt.Errorf("%s: 生成 %s 失败: %w", at.Target.Pos(), model.Name, err))
			continue
		}

		outputPath := plugin.GetOutputPath(at.Target, ann, "$FILE_enum.go",
			ctx.GetPackageConfig(at.Target.FilePath), g.Name(), ctx.DefaultOutput)
		result.AddDefinition(outputPath, gen)

		if ctx.Verbose {
			fmt.Printf("[openenum] 处理 %s -> %s\n", at.Target.Name, outputPath)
			fmt.Printf("[openenum] %s", dumper.Sdump(model))
		}
	}

	return result, nil
}
