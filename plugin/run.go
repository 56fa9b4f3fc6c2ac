package plugin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/donutnomad/gg"
	"github.com/donutnomad/openenum/internal/utils"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Header 生成文件的头部注释
const Header = "Code generated by openenum. DO NOT EDIT."

// Run 运行代码生成
// 1. 扫描指定路径的注解
// 2. 将目标分发给对应的生成器
// 3. 执行生成器
// 4. 合并同一文件的 gg 定义并写入文件
func Run(ctx context.Context, registry *Registry, patterns ...string) error {
	return RunWithOptions(ctx, &RunOptions{
		Registry: registry,
		Patterns: patterns,
	})
}

// RunOptions 运行选项
type RunOptions struct {
	Registry *Registry
	Patterns []string
	Verbose  bool
	Output   string // 命令行指定的默认输出路径（最低优先级）
	Async    bool   // 是否并发执行生成器
}

// RunStats 运行统计信息
type RunStats struct {
	ScanDuration     time.Duration // 扫描耗时
	GenerateDuration time.Duration // 生成耗时
	TotalDuration    time.Duration // 总耗时
	TargetCount      int           // 目标数量
	FileCount        int           // 生成文件数量
	Files            []string      // 生成的文件，按路径排序
}

// RunWithOptions 带选项运行
func RunWithOptions(ctx context.Context, opts *RunOptions) error {
	_, err := RunWithOptionsAndStats(ctx, opts)
	return err
}

// RunWithOptionsAndStats 带选项运行并返回统计信息
func RunWithOptionsAndStats(ctx context.Context, opts *RunOptions) (*RunStats, error) {
	totalStart := time.Now()
	stats := &RunStats{}

	registry := opts.Registry
	if registry == nil {
		registry = globalRegistry
	}

	annotations := registry.Annotations()
	if len(annotations) == 0 {
		return nil, fmt.Errorf("没有已注册的生成器")
	}

	scanStart := time.Now()
	scanner := NewScanner(
		WithAnnotationFilter(annotations...),
		WithScannerVerbose(opts.Verbose),
	)
	result, err := scanner.Scan(ctx, opts.Patterns...)
	if err != nil {
		return nil, fmt.Errorf("扫描失败: %w", err)
	}
	stats.ScanDuration = time.Since(scanStart)

	stats.TargetCount = len(result.All())
	if stats.TargetCount == 0 {
		if opts.Verbose {
			fmt.Println("[openenum] 没有找到任何带注解的目标")
		}
		stats.TotalDuration = time.Since(totalStart)
		return stats, nil
	}
	if opts.Verbose {
		fmt.Printf("[openenum] 找到 %d 个带注解的目标 (扫描耗时: %v)\n", stats.TargetCount, stats.ScanDuration)
	}

	generateStart := time.Now()
	dispatch := registry.DispatchTargets(result)

	// 生成器按名称排序，保证同一文件的合并顺序稳定
	genNames := lo.Keys(dispatch)
	slices.Sort(genNames)

	// 先串行解析所有目标的参数，避免生成器并发时修改共享数据
	var allErrors []error
	for _, genName := range genNames {
		gen, _ := registry.GetByName(genName)
		for _, target := range dispatch[genName] {
			if err := parseTargetParams(gen, target); err != nil {
				allErrors = append(allErrors, fmt.Errorf("%s: %w", target.Target.Pos(), err))
			}
		}
	}

	genCtx := func(targets []*AnnotatedTarget) *GenerateContext {
		return &GenerateContext{
			Targets:        targets,
			PackageConfigs: result.PackageConfigs,
			DefaultOutput:  opts.Output,
			Verbose:        opts.Verbose,
		}
	}

	genResults := make(map[string]*GenerateResult, len(genNames))
	var mu sync.Mutex
	execute := func(genName string) {
		gen, _ := registry.GetByName(genName)
		targets := lo.Filter(dispatch[genName], func(t *AnnotatedTarget, _ int) bool {
			return t.ParsedParams != nil || gen.NewParams() == nil
		})

		start := time.Now()
		genResult, err := gen.Generate(genCtx(targets))
		if opts.Verbose {
			fmt.Printf("[openenum] 执行生成器: %s (%d 个目标, 耗时: %v)\n", genName, len(targets), time.Since(start))
		}

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			allErrors = append(allErrors, fmt.Errorf("生成器 %s 执行失败: %w", genName, err))
			return
		}
		if genResult != nil {
			genResults[genName] = genResult
		}
	}

	if opts.Async {
		var g errgroup.Group
		for _, genName := range genNames {
			g.Go(func() error {
				execute(genName)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for _, genName := range genNames {
			execute(genName)
		}
	}

	// 按生成器顺序收集 gg 定义，按输出文件分组
	fileDefinitions := make(map[string][]*gg.Generator)
	fileGenNames := make(map[string][]string)
	for _, genName := range genNames {
		genResult, ok := genResults[genName]
		if !ok {
			continue
		}
		for path, def := range genResult.Definitions {
			fileDefinitions[path] = append(fileDefinitions[path], def)
			fileGenNames[path] = append(fileGenNames[path], genName)
		}
		allErrors = append(allErrors, genResult.Errors...)
	}

	paths := lo.Keys(fileDefinitions)
	slices.Sort(paths)
	for _, path := range paths {
		merged, err := mergeDefinitionsWithSeparator(fileDefinitions[path], fileGenNames[path])
		if err != nil {
			allErrors = append(allErrors, fmt.Errorf("合并文件 %s 的定义失败: %w", path, err))
			continue
		}
		if err := writeGGFile(path, merged); err != nil {
			allErrors = append(allErrors, fmt.Errorf("写入文件 %s 失败: %w", path, err))
			continue
		}
		stats.Files = append(stats.Files, path)
		fmt.Printf("生成文件: %s\n", path)
	}
	stats.FileCount = len(stats.Files)

	stats.GenerateDuration = time.Since(generateStart)
	stats.TotalDuration = time.Since(totalStart)

	if len(allErrors) > 0 {
		return stats, fmt.Errorf("生成过程中出现 %d 个错误:\n%w", len(allErrors), errors.Join(allErrors...))
	}
	return stats, nil
}

// parseTargetParams 将目标上属于该生成器的注解解析为参数结构体
func parseTargetParams(gen Generator, target *AnnotatedTarget) error {
	params := gen.NewParams()
	if params == nil {
		return nil
	}

	var ann *Annotation
	for _, name := range gen.Annotations() {
		if ann = GetAnnotation(target.Annotations, name); ann != nil {
			break
		}
	}
	if ann == nil {
		return nil
	}

	if err := ParseAnnotationParams(ann, params, gen.ParamDefs()); err != nil {
		return fmt.Errorf("解析参数失败: %w", err)
	}
	val := reflect.ValueOf(params)
	if val.Kind() != reflect.Ptr {
		return fmt.Errorf("NewParams() 必须返回指针类型, 得到: %T", params)
	}
	target.ParsedParams = val.Elem().Interface()
	return nil
}

// mergeDefinitionsWithSeparator 合并多个 gg 定义到一个文件
// 多个生成器输出到同一文件时，每段前添加分隔注释
func mergeDefinitionsWithSeparator(definitions []*gg.Generator, genNames []string) (*gg.Generator, error) {
	if len(definitions) == 0 {
		return nil, fmt.Errorf("没有定义需要合并")
	}

	merged := gg.New()
	// 头部注释后空一行，避免成为包文档
	merged.SetHeader("%s\n", Header)

	var pkgName string
	for _, def := range definitions {
		if def.PackageName() == "" {
			continue
		}
		if pkgName == "" {
			pkgName = def.PackageName()
		} else if pkgName != def.PackageName() {
			return nil, fmt.Errorf("包名不一致: %s vs %s", pkgName, def.PackageName())
		}
	}
	if pkgName != "" {
		merged.SetPackage(pkgName)
	}

	// 直接使用 Merge，它会正确处理 imports 和别名
	for i, def := range definitions {
		if len(definitions) > 1 && i < len(genNames) {
			merged.Body().AddLine()
			merged.Body().AddString(fmt.Sprintf("// ================ %s ================", genNames[i]))
			merged.Body().AddLine()
		}
		merged.Merge(def)
	}

	return merged, nil
}

// writeGGFile 将 gg 定义格式化后写入文件
func writeGGFile(path string, gen *gg.Generator) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}
	return utils.WriteFormat(path, gen.Bytes())
}

// GetOutputPath 根据注解参数和默认规则计算输出路径
// 优先级：注解参数 > 包级插件配置 > 包级默认配置 > 命令行参数 > 默认文件名
// 模板变量：
//   - $FILE: 源文件名（不含 .go 后缀）
//   - $PACKAGE: 包名
//   - $NAME: 目标类型名的 snake_case 形式
func GetOutputPath(target *Target, ann *Annotation, defaultFileName string, pkgConfig *PackageConfig, pluginName string, cmdOutput string) string {
	var output string
	if ann != nil {
		output = ann.GetParam("output")
	}
	if output == "" {
		output = pkgConfig.GetPluginOutput(strings.ToLower(pluginName))
	}
	if output == "" {
		output = cmdOutput
	}
	if output == "" {
		return GetDefaultOutputPath(target, defaultFileName)
	}

	output = replaceTemplateVars(output, target)
	if !strings.HasSuffix(output, ".go") {
		output += ".go"
	}
	if filepath.IsAbs(output) {
		return output
	}
	return filepath.Join(filepath.Dir(target.FilePath), output)
}

// replaceTemplateVars 替换模板变量
func replaceTemplateVars(template string, target *Target) string {
	fileName := strings.TrimSuffix(filepath.Base(target.FilePath), ".go")
	return strings.NewReplacer(
		"$FILE", fileName,
		"$PACKAGE", target.PackageName,
		"$NAME", utils.ToSnakeCase(target.Name),
	).Replace(template)
}

// GetDefaultOutputPath 获取默认输出路径，相对于源文件目录
func GetDefaultOutputPath(target *Target, defaultFileName string) string {
	if defaultFileName == "" {
		defaultFileName = "$FILE" + GeneratedSuffix
	}
	return filepath.Join(filepath.Dir(target.FilePath), replaceTemplateVars(defaultFileName, target))
}
