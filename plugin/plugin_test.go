package plugin

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/donutnomad/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnnotations(t *testing.T) {
	tests := []struct {
		name     string
		comment  string
		expected []struct {
			name   string
			params map[string]string
		}
	}{
		{
			name:    "无参数",
			comment: "// @OpenEnum",
			expected: []struct {
				name   string
				params map[string]string
			}{{name: "OpenEnum", params: map[string]string{}}},
		},
		{
			name:    "多个参数",
			comment: "// @OpenEnum(name=Fruit, default=`Apple`, unknown=\"Other\")",
			expected: []struct {
				name   string
				params map[string]string
			}{{name: "OpenEnum", params: map[string]string{"name": "Fruit", "default": "Apple", "unknown": "Other"}}},
		},
		{
			name:    "参数名大小写不敏感",
			comment: "// @OpenEnum(Derive=compare|hash)",
			expected: []struct {
				name   string
				params map[string]string
			}{{name: "OpenEnum", params: map[string]string{"derive": "compare|hash"}}},
		},
		{
			name:    "多行注释",
			comment: "// fruitCases 水果\n// @OpenEnum(name=Fruit)\n// @Other",
			expected: []struct {
				name   string
				params map[string]string
			}{
				{name: "OpenEnum", params: map[string]string{"name": "Fruit"}},
				{name: "Other", params: map[string]string{}},
			},
		},
		{
			name:    "正文中的 @ 不是注解",
			comment: "// 联系 admin@example.com 获取帮助",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			annotations := ParseAnnotations(tt.comment)
			require.Len(t, annotations, len(tt.expected))
			for i, exp := range tt.expected {
				assert.Equal(t, exp.name, annotations[i].Name)
				assert.Equal(t, exp.params, annotations[i].Params)
			}
		})
	}
}

func TestAnnotationAccessors(t *testing.T) {
	ann := ParseAnnotations("// @OpenEnum(default=Apple)")[0]
	assert.Equal(t, "Apple", ann.GetParam("Default"))
	assert.Equal(t, "Unknown", ann.GetParamOr("unknown", "Unknown"))
	assert.True(t, ann.HasParam("default"))
	assert.False(t, ann.HasParam("codec"))

	anns := ParseAnnotations("// @A\n// @B")
	assert.True(t, HasAnnotation(anns, "B"))
	assert.Nil(t, GetAnnotation(anns, "C"))
	assert.Len(t, FilterByNames(anns, "A"), 1)
	assert.Len(t, FilterByNames(anns), 2)
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()

	gen1 := &testGenerator{BaseGenerator: *NewBaseGenerator("gen1", []string{"OpenEnum"})}
	gen2 := &testGenerator{BaseGenerator: *NewBaseGenerator("gen2", []string{"Other", "Alias"})}
	require.NoError(t, registry.Register(gen1))
	require.NoError(t, registry.Register(gen2))

	assert.True(t, registry.IsRegistered("OpenEnum"))
	assert.True(t, registry.IsRegistered("Alias"))
	assert.Equal(t, []string{"Alias", "OpenEnum", "Other"}, registry.Annotations())

	// 注解重复绑定
	gen3 := &testGenerator{BaseGenerator: *NewBaseGenerator("gen3", []string{"OpenEnum"})}
	assert.ErrorContains(t, registry.Register(gen3), "已被生成器 \"gen1\" 绑定")

	// 生成器重名
	assert.Error(t, registry.Register(&testGenerator{BaseGenerator: *NewBaseGenerator("gen1", []string{"X"})}))
	assert.Panics(t, func() { registry.MustRegister(gen3) })

	gen, ok := registry.GetByAnnotation("OpenEnum")
	require.True(t, ok)
	assert.Equal(t, "gen1", gen.Name())

	_, ok = registry.GetByName("gen3")
	assert.False(t, ok)
}

func TestDispatchTargets(t *testing.T) {
	registry := NewRegistry()
	registry.MustRegister(&testGenerator{BaseGenerator: *NewBaseGenerator("gen", []string{"A", "B"})})

	target := &AnnotatedTarget{
		Target:      &Target{Kind: TargetStruct, Name: "X"},
		Annotations: ParseAnnotations("// @A\n// @B\n// @C"),
	}
	dispatch := registry.DispatchTargets(&ScanResult{Structs: []*AnnotatedTarget{target}})

	// 同一目标带有同一生成器的多个注解时只分发一次
	require.Len(t, dispatch["gen"], 1)
	assert.Same(t, target, dispatch["gen"][0])

	// 不支持结构体的生成器收不到目标
	registry.MustRegister(&testGenerator{BaseGenerator: *NewBaseGenerator("other", []string{"C"}, WithTargets())})
	dispatch = registry.DispatchTargets(&ScanResult{Structs: []*AnnotatedTarget{target}})
	assert.Len(t, dispatch["gen"], 1)
	assert.NotContains(t, dispatch, "other")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestScanner(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "test.go"), `package test

// @OpenEnum(name=Fruit)
type fruitCases struct {
	Apple string `+"`enum:\"Apple\"`"+`
}

type (
	// @OpenEnum
	colorCases struct{}

	plain struct{}
)

// @OpenEnum
type notStruct int

// @OpenEnum
func F() {}
`)
	writeFile(t, filepath.Join(tmpDir, "test_enum.go"), "package test\n\n// @OpenEnum\ntype generated struct{}\n")
	writeFile(t, filepath.Join(tmpDir, "test_test.go"), "package test\n\n// @OpenEnum\ntype inTest struct{}\n")

	result, err := NewScanner().Scan(context.Background(), tmpDir)
	require.NoError(t, err)
	require.Len(t, result.Structs, 2)

	s := result.Structs[0].Target
	assert.Equal(t, "fruitCases", s.Name)
	assert.Equal(t, TargetStruct, s.Kind)
	assert.Equal(t, "test", s.PackageName)
	assert.NotNil(t, s.File)
	assert.NotNil(t, s.Node)
	assert.Contains(t, s.Pos(), "test.go:4:6")

	ann := GetAnnotation(result.Structs[0].Annotations, "OpenEnum")
	require.NotNil(t, ann)
	assert.Equal(t, "Fruit", ann.GetParam("name"))

	assert.Equal(t, "colorCases", result.Structs[1].Target.Name)
}

func TestScannerWithFilter(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "test.go"), `package test

// @OpenEnum
type A struct {}

// @Other
type B struct {}
`)

	result, err := NewScanner(WithAnnotationFilter("OpenEnum")).Scan(context.Background(), tmpDir)
	require.NoError(t, err)
	require.Len(t, result.Structs, 1)
	assert.Equal(t, "A", result.Structs[0].Target.Name)
}

func TestScannerRecursive(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "root.go"), "package root\n// @OpenEnum\ntype RootCases struct {}\n")
	writeFile(t, filepath.Join(tmpDir, "sub", "sub.go"), "package sub\n// @OpenEnum\ntype SubCases struct {}\n")
	writeFile(t, filepath.Join(tmpDir, "testdata", "skip.go"), "package skip\n// @OpenEnum\ntype SkipCases struct {}\n")
	writeFile(t, filepath.Join(tmpDir, "_hidden", "skip.go"), "package skip\n// @OpenEnum\ntype SkipCases struct {}\n")

	result, err := NewScanner(WithWorkers(2)).Scan(context.Background(), tmpDir)
	require.NoError(t, err)
	assert.Len(t, result.Structs, 1, "非递归模式只扫描根目录")

	result, err = NewScanner(WithWorkers(2)).Scan(context.Background(), tmpDir+"/...")
	require.NoError(t, err)
	assert.Len(t, result.Structs, 2)
}

func TestScannerSkipsSyntaxErrors(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "bad.go"), "package bad\n// @OpenEnum\ntype Bad struct {\n")
	writeFile(t, filepath.Join(tmpDir, "good.go"), "package bad\n// @OpenEnum\ntype Good struct {}\n")

	result, err := Scan(context.Background(), tmpDir)
	require.NoError(t, err)
	require.Len(t, result.Structs, 1)
	assert.Equal(t, "Good", result.Structs[0].Target.Name)
}

func TestPackageConfig(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "doc.go"), "// go:openenum: -output `$PACKAGE_enums` plugin:openenum -output \"all enums\"\npackage test\n")
	writeFile(t, filepath.Join(tmpDir, "a.go"), "package test\n// @OpenEnum\ntype ACases struct {}\n")

	result, err := Scan(context.Background(), tmpDir)
	require.NoError(t, err)

	cfg := result.PackageConfigs[tmpDir]
	require.NotNil(t, cfg)
	assert.Equal(t, "$PACKAGE_enums", cfg.DefaultOutput)
	assert.Equal(t, "all enums", cfg.GetPluginOutput("openenum"))
	assert.Equal(t, "$PACKAGE_enums", cfg.GetPluginOutput("other"))

	ctx := &GenerateContext{PackageConfigs: result.PackageConfigs}
	assert.Same(t, cfg, ctx.GetPackageConfig(filepath.Join(tmpDir, "a.go")))

	var nilCfg *PackageConfig
	assert.Empty(t, nilCfg.GetPluginOutput("openenum"))
}

func TestParseDirective(t *testing.T) {
	assert.Nil(t, parseDirective("", "/x/a.go"))
	assert.Nil(t, parseDirective("plugin:openenum", "/x/a.go"))
	assert.Equal(t, []string{"-output", "`a b`", "plugin:x"}, splitDirectiveArgs("-output `a b`  plugin:x"))
	assert.Equal(t, "a b", trimQuotes("'a b'"))
	assert.Equal(t, "`a", trimQuotes("`a"))
}

func TestGetOutputPath(t *testing.T) {
	target := &Target{Name: "fruitCases", PackageName: "basic", FilePath: "/src/basic/fruit.go"}
	pkgConfig := &PackageConfig{DefaultOutput: "pkg_$PACKAGE", PluginOutputs: map[string]string{"openenum": "plugin_$FILE"}}

	tests := []struct {
		name      string
		ann       string
		pkgConfig *PackageConfig
		cmdOutput string
		want      string
	}{
		{"默认", "// @OpenEnum", nil, "", "/src/basic/fruit_enum.go"},
		{"命令行", "// @OpenEnum", nil, "$NAME_gen", "/src/basic/fruit_cases_gen.go"},
		{"包级插件配置", "// @OpenEnum", pkgConfig, "cmd", "/src/basic/plugin_fruit.go"},
		{"注解参数优先", "// @OpenEnum(output=sub/$PACKAGE.go)", pkgConfig, "cmd", "/src/basic/sub/basic.go"},
		{"绝对路径", "// @OpenEnum(output=/tmp/x.go)", nil, "", "/tmp/x.go"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ann := ParseAnnotations(tt.ann)[0]
			assert.Equal(t, tt.want, GetOutputPath(target, ann, "", tt.pkgConfig, "OpenEnum", tt.cmdOutput))
		})
	}
}

// testGenerator 测试用生成器
type testGenerator struct {
	BaseGenerator
}

func (g *testGenerator) Generate(ctx *GenerateContext) (*GenerateResult, error) {
	return NewGenerateResult(), nil
}

type ggTestParams struct {
	Suffix string `param:"name=suffix,required=false,default=query,description=函数后缀"`
}

// ggTestGenerator 测试 gg 定义返回的生成器
type ggTestGenerator struct {
	BaseGenerator
}

func (g *ggTestGenerator) Generate(ctx *GenerateContext) (*GenerateResult, error) {
	result := NewGenerateResult()
	for _, target := range ctx.Targets {
		params := target.ParsedParams.(ggTestParams)

		gen := gg.New()
		gen.SetPackage(target.Target.PackageName)
		gen.Body().NewFunction(target.Target.Name+"_"+params.Suffix).
			AddResult("", "string").
			AddBody(gg.Return(gg.Lit(target.Target.Name)))

		ann := GetAnnotation(target.Annotations, "TestGen")
		result.AddDefinition(GetOutputPath(target.Target, ann, "", ctx.GetPackageConfig(target.Target.FilePath), g.Name(), ctx.DefaultOutput), gen)
	}
	return result, nil
}

func TestRunWithGGDefinition(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "model.go"), `package test

// @TestGen
type User struct {}

// @TestGen(suffix=count)
type Order struct {}

// @TestGen(output=order_extra.go)
type Extra struct {}
`)

	registry := NewRegistry()
	registry.MustRegister(&ggTestGenerator{
		BaseGenerator: *NewBaseGenerator("testgen", []string{"TestGen"}, WithParams(ggTestParams{})),
	})

	stats, err := RunWithOptionsAndStats(context.Background(), &RunOptions{
		Registry: registry,
		Patterns: []string{tmpDir},
		Async:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TargetCount)
	assert.Equal(t, 2, stats.FileCount)

	content, err := os.ReadFile(filepath.Join(tmpDir, "model_enum.go"))
	require.NoError(t, err)
	assert.Contains(t, string(content), Header)
	assert.Contains(t, string(content), "func User_query() string")
	assert.Contains(t, string(content), "func Order_count() string")
	assert.NotContains(t, string(content), "================")

	content, err = os.ReadFile(filepath.Join(tmpDir, "order_extra.go"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "func Extra_query() string")
}

func TestRunReportsParamErrors(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "model.go"), "package test\n\n// @TestGen\ntype User struct {}\n")

	type strictParams struct {
		Name string `param:"name=name,required=true,description=名称"`
	}
	registry := NewRegistry()
	registry.MustRegister(&testGenerator{
		BaseGenerator: *NewBaseGenerator("strict", []string{"TestGen"}, WithParams(strictParams{})),
	})

	err := Run(context.Background(), registry, tmpDir)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "model.go:4:6"), err.Error())
	assert.Contains(t, err.Error(), "缺少必填参数 name")
}

func TestRunWithoutGenerators(t *testing.T) {
	err := Run(context.Background(), NewRegistry(), t.TempDir())
	assert.ErrorContains(t, err, "没有已注册的生成器")
}

func TestMergeDefinitionsWithSeparator(t *testing.T) {
	a := gg.New()
	a.SetPackage("x")
	a.Body().AddString("var A = 1")
	b := gg.New()
	b.SetPackage("x")
	b.Body().AddString("var B = 2")

	merged, err := mergeDefinitionsWithSeparator([]*gg.Generator{a, b}, []string{"first", "second"})
	require.NoError(t, err)
	out := string(merged.Bytes())
	assert.Contains(t, out, "// ================ first ================")
	assert.Less(t, strings.Index(out, "var A = 1"), strings.Index(out, "var B = 2"))

	c := gg.New()
	c.SetPackage("y")
	_, err = mergeDefinitionsWithSeparator([]*gg.Generator{a, c}, nil)
	assert.ErrorContains(t, err, "包名不一致")

	_, err = mergeDefinitionsWithSeparator(nil, nil)
	assert.Error(t, err)
}
