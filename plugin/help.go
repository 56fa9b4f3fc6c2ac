package plugin

import (
	"fmt"
	"strings"
)

// FormatHelpText 为所有注册的生成器生成帮助文本
func FormatHelpText(registry *Registry) string {
	generators := registry.Generators()
	if len(generators) == 0 {
		return "  (暂无已注册的生成器)\n"
	}

	var sb strings.Builder
	for _, gen := range generators {
		annotations := gen.Annotations()
		if len(annotations) == 0 {
			continue
		}
		main := annotations[0]
		paramDefs := gen.ParamDefs()

		fmt.Fprintf(&sb, "  @%s - %s\n", main, gen.Name())
		sb.WriteString("    参数:\n")
		for _, param := range paramDefs {
			fmt.Fprintf(&sb, "      %s\n", FormatParamDef(param))
		}

		sb.WriteString("    示例:\n")
		fmt.Fprintf(&sb, "      @%s\n", main)
		shown := 0
		for _, param := range paramDefs {
			if shown >= 2 || param.Default == "" || param.Name == "output" {
				continue
			}
			fmt.Fprintf(&sb, "      @%s(%s=%s)\n", main, param.Name, param.Default)
			shown++
		}
		fmt.Fprintf(&sb, "      @%s(output=$NAME_enum.go)\n", main)
		sb.WriteString("\n")
	}

	return sb.String()
}

// FormatParamDef 格式化单个参数定义，形如 name (必填) [默认: x] - 描述
func FormatParamDef(param ParamDef) string {
	var sb strings.Builder
	sb.WriteString(param.Name)
	if param.Required {
		sb.WriteString(" (必填)")
	}
	if param.Default != "" {
		fmt.Fprintf(&sb, " [默认: %s]", param.Default)
	}
	if param.Description != "" {
		sb.WriteString(" - ")
		sb.WriteString(param.Description)
	}
	return sb.String()
}
