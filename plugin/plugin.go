package plugin

import (
	"reflect"
	"slices"
)

// Generator 代码生成器
//
// 每个注解只能绑定到一个生成器，扫描到的目标按注解分发给 Generate。
// 同一输出文件由多个生成器写入时，按生成器名称顺序合并。
type Generator interface {
	Name() string
	Annotations() []string

	// Supports 判断生成器是否处理该类型的目标
	Supports(kind TargetKind) bool

	// ParamDefs 注解参数定义，用于校验和帮助信息
	ParamDefs() []ParamDef

	// NewParams 返回新的参数结构体指针，nil 表示不接受参数
	NewParams() any

	Generate(ctx *GenerateContext) (*GenerateResult, error)
}

// BaseGenerator 嵌入到具体生成器中，只需再实现 Generate
type BaseGenerator struct {
	name        string
	annotations []string
	targets     []TargetKind
	paramDefs   []ParamDef
	paramsType  reflect.Type
}

// BaseOption 配置 BaseGenerator
type BaseOption func(*BaseGenerator)

// WithTargets 覆盖支持的目标类型，默认只处理结构体
func WithTargets(kinds ...TargetKind) BaseOption {
	return func(g *BaseGenerator) {
		g.targets = kinds
	}
}

// WithParams 通过参数结构体的 param 标签声明注解参数
// proto 可以是零值或指针，例如 OpenEnumParams{}
func WithParams(proto any) BaseOption {
	return func(g *BaseGenerator) {
		typ := reflect.TypeOf(proto)
		if typ == nil {
			return
		}
		if typ.Kind() == reflect.Pointer {
			typ = typ.Elem()
		}
		g.paramsType = typ
		g.paramDefs = ParseParamsFromStruct(proto)
	}
}

func NewBaseGenerator(name string, annotations []string, opts ...BaseOption) *BaseGenerator {
	g := &BaseGenerator{
		name:        name,
		annotations: annotations,
		targets:     []TargetKind{TargetStruct},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *BaseGenerator) Name() string {
	return g.name
}

func (g *BaseGenerator) Annotations() []string {
	return g.annotations
}

func (g *BaseGenerator) Supports(kind TargetKind) bool {
	return slices.Contains(g.targets, kind)
}

func (g *BaseGenerator) ParamDefs() []ParamDef {
	return g.paramDefs
}

func (g *BaseGenerator) NewParams() any {
	if g.paramsType == nil {
		return nil
	}
	return reflect.New(g.paramsType).Interface()
}
