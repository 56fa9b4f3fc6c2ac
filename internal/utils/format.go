package utils

import (
	"bytes"
	"fmt"
	"go/format"
	"go/parser"
	"go/token"
	"os"
	"path"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/tools/imports"
)

// FormatSource 使用 goimports 规则格式化代码，同时移除未使用的导入和多余的导入别名
func FormatSource(filename string, src []byte) ([]byte, error) {
	formatted, err := imports.Process(filename, src, &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
	if err != nil {
		return nil, fmt.Errorf("格式化 %s 失败: %w", filename, err)
	}
	formatted, err = dropRedundantAliases(filename, formatted)
	if err != nil {
		return nil, fmt.Errorf("格式化 %s 失败: %w", filename, err)
	}
	return formatted, nil
}

// dropRedundantAliases 移除与导入路径推断出的包名相同的别名
// 例如 yaml "gopkg.in/yaml.v3" 写为 "gopkg.in/yaml.v3"
func dropRedundantAliases(filename string, src []byte) ([]byte, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, err
	}

	changed := false
	for _, spec := range file.Imports {
		if spec.Name == nil {
			continue
		}
		importPath, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		if spec.Name.Name == assumedPackageName(importPath) {
			spec.Name = nil
			changed = true
		}
	}
	if !changed {
		return src, nil
	}

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, file); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// assumedPackageName 按 goimports 的规则由导入路径推断包名
// 末尾的 vN 取上一级目录，去掉 go- 前缀，截断到第一个非标识符字符
func assumedPackageName(importPath string) string {
	base := path.Base(importPath)
	if strings.HasPrefix(base, "v") {
		if _, err := strconv.Atoi(base[1:]); err == nil {
			if dir := path.Dir(importPath); dir != "." {
				base = path.Base(dir)
			}
		}
	}
	base = strings.TrimPrefix(base, "go-")
	if i := strings.IndexFunc(base, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	}); i >= 0 {
		base = base[:i]
	}
	return base
}

// WriteFormat 格式化后写入文件
// 格式化失败时仍写入原始内容，便于定位生成代码中的语法错误
func WriteFormat(filename string, src []byte) error {
	formatted, fmtErr := FormatSource(filename, src)
	if fmtErr != nil {
		formatted = src
	}
	if err := os.WriteFile(filename, formatted, 0o644); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", filename, err)
	}
	return fmtErr
}
