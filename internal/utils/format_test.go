package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x_enum.go")
	src := []byte("package x\nimport \"strings\"\nfunc  F( )  int {\nreturn 1}\n")

	require.NoError(t, WriteFormat(path, src))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "package x\n\nfunc F() int {\n\treturn 1\n}\n", string(data))
}

func TestWriteFormatSyntaxError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.go")
	src := []byte("package x\nfunc {\n")

	assert.Error(t, WriteFormat(path, src))

	// 原始内容仍然写入
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(src), string(data))
}

func TestFormatSourceDropsRedundantAlias(t *testing.T) {
	src := []byte(`package x

import (
	"fmt"

	yaml "gopkg.in/yaml.v3"
	y "gopkg.in/yaml.v3"
)

func F(n *yaml.Node, m *y.Node) string {
	return fmt.Sprint(n, m)
}
`)

	out, err := FormatSource("x_enum.go", src)
	require.NoError(t, err)
	assert.Contains(t, string(out), "\t\"gopkg.in/yaml.v3\"\n")
	assert.Contains(t, string(out), "\ty \"gopkg.in/yaml.v3\"\n")
	assert.NotContains(t, string(out), "yaml \"gopkg.in/yaml.v3\"")
}

func TestFormatSourceKeepsHeaderSeparate(t *testing.T) {
	src := []byte("// Code generated by openenum. DO NOT EDIT.\n\npackage x\nimport yaml \"gopkg.in/yaml.v3\"\nvar _ yaml.Node\n")

	out, err := FormatSource("x_enum.go", src)
	require.NoError(t, err)
	assert.Equal(t, "// Code generated by openenum. DO NOT EDIT.\n\npackage x\n\nimport \"gopkg.in/yaml.v3\"\n\nvar _ yaml.Node\n", string(out))
}

func TestAssumedPackageName(t *testing.T) {
	for path, want := range map[string]string{
		"gopkg.in/yaml.v3":                       "yaml",
		"github.com/go-playground/validator/v10": "validator",
		"github.com/mattn/go-sqlite3":            "sqlite3",
		"hash/maphash":                           "maphash",
		"golang.org/x/exp/constraints":           "constraints",
	} {
		assert.Equal(t, want, assumedPackageName(path), path)
	}
}
