package plugin

import (
	"bufio"
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Scanner 两阶段并行注解扫描器
// 第一阶段：快速文本匹配，找出可能包含注解的文件
// 第二阶段：对匹配的文件进行 AST 解析
type Scanner struct {
	workers int
	verbose bool

	// 注解过滤器（可选）
	annotationFilter []string
}

// ScannerOption 扫描器选项
type ScannerOption func(*Scanner)

func WithWorkers(n int) ScannerOption {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

func WithScannerVerbose(v bool) ScannerOption {
	return func(s *Scanner) {
		s.verbose = v
	}
}

func WithAnnotationFilter(annotations ...string) ScannerOption {
	return func(s *Scanner) {
		s.annotationFilter = annotations
	}
}

func NewScanner(opts ...ScannerOption) *Scanner {
	s := &Scanner{
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GeneratedSuffix 生成文件的默认后缀，扫描时跳过
const GeneratedSuffix = "_enum.go"

// DirectivePrefix 包级配置指令
const DirectivePrefix = "go:openenum:"

// quickMatchRegex 快速匹配以 @Name 开头的注释行
var quickMatchRegex = regexp.MustCompile(`^(?://|/\*)?\s*@(\w+)`)

// directiveRegex 匹配 go:openenum: 指令，支持 //go:openenum: 和 // go:openenum:
var directiveRegex = regexp.MustCompile(`go:openenum:\s*(.*)`)

// Scan 扫描指定路径
// 支持: ./... ./pkg/... ./pkg /abs/path/... file.go
func (s *Scanner) Scan(ctx context.Context, patterns ...string) (*ScanResult, error) {
	allFiles, err := s.collectFiles(patterns)
	if err != nil {
		return nil, err
	}

	matchedFiles, err := s.quickMatch(ctx, allFiles)
	if err != nil {
		return nil, err
	}
	if s.verbose {
		fmt.Printf("[openenum] 扫描 %d 个文件，%d 个可能包含注解\n", len(allFiles), len(matchedFiles))
	}

	return s.parseFiles(ctx, matchedFiles)
}

// quickMatch 第一阶段：并行读取文件，检查是否包含注解或包级指令
// 结果保持输入顺序
func (s *Scanner) quickMatch(ctx context.Context, files []string) ([]string, error) {
	matched := make([]bool, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ok, err := s.QuickMatchFile(file)
			if err != nil {
				// 无法读取的文件直接跳过
				if s.verbose {
					fmt.Printf("[openenum] 跳过文件 %s: %v\n", file, err)
				}
				return nil
			}
			matched[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var result []string
	for i, ok := range matched {
		if ok {
			result = append(result, files[i])
		}
	}
	return result, nil
}

// QuickMatchFile 快速检查文件是否包含注解或 go:openenum: 配置
// 也用于 dev 模式判断文件变化是否需要触发代码生成
func (s *Scanner) QuickMatchFile(filePath string) (bool, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return false, err
	}
	defer file.Close()

	sc := bufio.NewScanner(file)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "//") && !strings.HasPrefix(line, "/*") {
			continue
		}
		if strings.Contains(line, DirectivePrefix) {
			return true, nil
		}
		match := quickMatchRegex.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		if len(s.annotationFilter) == 0 {
			return true, nil
		}
		for _, filter := range s.annotationFilter {
			if match[1] == filter {
				return true, nil
			}
		}
	}
	return false, sc.Err()
}

// fileResult 单个文件的解析结果
type fileResult struct {
	structs   []*AnnotatedTarget
	pkgConfig *PackageConfig
}

// parseFiles 第二阶段：并行 AST 解析
func (s *Scanner) parseFiles(ctx context.Context, files []string) (*ScanResult, error) {
	results := make([]*fileResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := s.parseFile(file)
			if err != nil {
				// 语法错误的文件跳过，dev 模式下用户可能正在编辑
				if s.verbose {
					fmt.Printf("[openenum] 跳过无法解析的文件 %s: %v\n", file, err)
				}
				return nil
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &ScanResult{
		PackageConfigs: make(map[string]*PackageConfig),
	}
	for _, r := range results {
		if r == nil {
			continue
		}
		result.Structs = append(result.Structs, r.structs...)
		if r.pkgConfig != nil {
			mergePackageConfig(result.PackageConfigs, r.pkgConfig)
		}
	}
	return result, nil
}

// mergePackageConfig 合并同一包内多个文件的配置，冲突时后发现的生效
func mergePackageConfig(configs map[string]*PackageConfig, cfg *PackageConfig) {
	existing, ok := configs[cfg.PackageDir]
	if !ok {
		configs[cfg.PackageDir] = cfg
		return
	}
	if cfg.DefaultOutput != "" {
		if existing.DefaultOutput != "" && existing.DefaultOutput != cfg.DefaultOutput {
			fmt.Printf("警告: 包 %s 中存在多个不同的 go:openenum 默认输出配置，使用后发现的配置\n", cfg.PackageDir)
		}
		existing.DefaultOutput = cfg.DefaultOutput
	}
	for k, v := range cfg.PluginOutputs {
		if old, ok := existing.PluginOutputs[k]; ok && old != v {
			fmt.Printf("警告: 包 %s 中插件 %s 存在多个不同的输出配置，使用后发现的配置\n", cfg.PackageDir, k)
		}
		existing.PluginOutputs[k] = v
	}
}

// parseFile AST 解析单个文件
func (s *Scanner) parseFile(filePath string) (*fileResult, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filePath, nil, parser.ParseComments)
	if err != nil {
		return nil, err
	}

	result := &fileResult{
		pkgConfig: s.parsePackageConfig(file, filePath),
	}

	for _, decl := range file.Decls {
		d, ok := decl.(*ast.GenDecl)
		if !ok || d.Tok != token.TYPE {
			continue
		}
		for _, spec := range d.Specs {
			typeSpec, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			if _, ok := typeSpec.Type.(*ast.StructType); !ok {
				continue
			}

			// 分组声明 type ( ... ) 中注释挂在 TypeSpec 上
			doc := typeSpec.Doc
			if doc == nil && len(d.Specs) == 1 {
				doc = d.Doc
			}
			if doc == nil {
				continue
			}

			annotations := ParseAnnotations(doc.Text())
			if len(s.annotationFilter) > 0 {
				annotations = FilterByNames(annotations, s.annotationFilter...)
			}
			if len(annotations) == 0 {
				continue
			}

			result.structs = append(result.structs, &AnnotatedTarget{
				Target: &Target{
					Kind:        TargetStruct,
					Name:        typeSpec.Name.Name,
					PackageName: file.Name.Name,
					FilePath:    filePath,
					Position:    typeSpec.Pos(),
					Fset:        fset,
					File:        file,
					Node:        typeSpec,
					Doc:         doc,
				},
				Annotations: annotations,
			})
		}
	}

	return result, nil
}

// collectFiles 收集所有需要扫描的文件，返回绝对路径
func (s *Scanner) collectFiles(patterns []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, pattern := range patterns {
		recursive := strings.HasSuffix(pattern, "/...")
		if recursive {
			pattern = strings.TrimSuffix(pattern, "/...")
		}
		if pattern == "" {
			pattern = "."
		}

		absPath, err := filepath.Abs(pattern)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			if strings.HasSuffix(absPath, ".go") {
				add(absPath)
			}
			continue
		}

		err = filepath.WalkDir(absPath, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path == absPath {
					return nil
				}
				name := d.Name()
				if !recursive || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") ||
					name == "vendor" || name == "testdata" {
					return filepath.SkipDir
				}
				return nil
			}
			if isSourceFile(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}

// isSourceFile 判断是否为需要扫描的 Go 源文件
func isSourceFile(path string) bool {
	return strings.HasSuffix(path, ".go") &&
		!strings.HasSuffix(path, "_test.go") &&
		!strings.HasSuffix(path, GeneratedSuffix)
}

func dirOf(filePath string) string {
	if abs, err := filepath.Abs(filePath); err == nil {
		filePath = abs
	}
	return filepath.Dir(filePath)
}

// Scan 使用默认扫描器扫描
func Scan(ctx context.Context, patterns ...string) (*ScanResult, error) {
	return NewScanner().Scan(ctx, patterns...)
}

// parsePackageConfig 解析包级 go:openenum: 配置
// 支持格式:
//
//	//go:openenum: -output `$FILE_enum`
//	// go:openenum: plugin:openenum -output `enums_gen`
func (s *Scanner) parsePackageConfig(file *ast.File, filePath string) *PackageConfig {
	var lines []string
	for _, cg := range file.Comments {
		for _, c := range cg.List {
			text := strings.TrimPrefix(c.Text, "//")
			text = strings.TrimPrefix(text, "/*")
			text = strings.TrimSuffix(text, "*/")
			text = strings.TrimSpace(text)
			if m := directiveRegex.FindStringSubmatch(text); len(m) > 1 {
				lines = append(lines, m[1])
			}
		}
	}

	switch len(lines) {
	case 0:
		return nil
	case 1:
		return parseDirective(lines[0], filePath)
	default:
		fmt.Printf("警告: 文件 %s 定义了多个 go:openenum: 指令，将被忽略\n", filePath)
		return nil
	}
}

// parseDirective 解析单行 go:openenum: 配置
// 格式:
//
//	-output `xxx`                                  // 默认输出
//	plugin:openenum -output `xxx`                  // 插件特定输出
func parseDirective(line string, filePath string) *PackageConfig {
	config := &PackageConfig{
		PackageDir:    dirOf(filePath),
		PluginOutputs: make(map[string]string),
	}

	parts := splitDirectiveArgs(strings.TrimSpace(line))
	var currentPlugin string
	for i := 0; i < len(parts); i++ {
		part := parts[i]
		switch {
		case strings.HasPrefix(part, "plugin:"):
			currentPlugin = strings.ToLower(strings.TrimPrefix(part, "plugin:"))
		case part == "-output" && i+1 < len(parts):
			i++
			output := trimQuotes(parts[i])
			if currentPlugin == "" {
				config.DefaultOutput = output
			} else {
				config.PluginOutputs[currentPlugin] = output
			}
		}
	}

	if config.DefaultOutput == "" && len(config.PluginOutputs) == 0 {
		return nil
	}
	return config
}

// splitDirectiveArgs 按空白分割指令参数，引号内的空白保留
func splitDirectiveArgs(line string) []string {
	var parts []string
	var current strings.Builder
	var quote byte

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote == 0 && (c == '`' || c == '"' || c == '\''):
			quote = c
			current.WriteByte(c)
		case quote != 0 && c == quote:
			quote = 0
			current.WriteByte(c)
		case quote == 0 && (c == ' ' || c == '\t'):
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteByte(c)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

// trimQuotes 去除引号
func trimQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '`' || first == '"' || first == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
