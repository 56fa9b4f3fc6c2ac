package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/donutnomad/openenum/openenumgen"
	"github.com/donutnomad/openenum/plugin"
	"github.com/samber/lo"
)

func init() {
	plugin.MustRegister(openenumgen.NewOpenEnumGenerator())
}

var (
	verbose  = flag.Bool("v", false, "详细输出")
	help     = flag.Bool("h", false, "显示帮助信息")
	output   = flag.String("output", "", "默认输出路径（支持模板变量 $FILE, $PACKAGE），为空时输出到 $FILE_enum.go")
	noOutput = flag.Bool("no-output", false, "禁用默认输出（每个枚举输出到 @OpenEnum(output=...) 指定的文件）")
	async    = flag.Bool("async", true, "异步执行生成器（默认 true）")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if *help {
		usage()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		runGen([]string{"./..."})
		return
	}

	switch args[0] {
	case "gen":
		runGen(args[1:])
	case "dev":
		runDev(args[1:])
	default:
		runGen(args)
	}
}

// outputPath -no-output 时返回空字符串
func outputPath() string {
	if *noOutput {
		return ""
	}
	return *output
}

func runGen(args []string) {
	patterns := args
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	registry := plugin.Global()
	if len(registry.Generators()) == 0 {
		fmt.Fprintln(os.Stderr, "错误: 没有已注册的生成器")
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("已注册 %d 个生成器:\n", len(registry.Generators()))
		for _, gen := range registry.Generators() {
			anns := lo.Map(gen.Annotations(), func(item string, _ int) string {
				return "@" + item
			})
			fmt.Printf("  - %s (%s)\n", gen.Name(), strings.Join(anns, ","))
		}
		fmt.Println()
	}

	stats, err := plugin.RunWithOptionsAndStats(context.Background(), &plugin.RunOptions{
		Registry: registry,
		Patterns: patterns,
		Verbose:  *verbose,
		Output:   outputPath(),
		Async:    *async,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}

	if stats != nil && (stats.FileCount > 0 || *verbose) {
		fmt.Printf("\n统计: 扫描 %d 个目标, 生成 %d 个文件\n", stats.TargetCount, stats.FileCount)
		fmt.Printf("耗时: 扫描 %v, 生成 %v, 总计 %v\n", stats.ScanDuration, stats.GenerateDuration, stats.TotalDuration)
	}
}

func usage() {
	_, _ = fmt.Fprintf(os.Stderr, `openenum - 开放枚举代码生成工具

用法:
  openenum [选项] [路径...]
  openenum gen [选项] [路径...]
  openenum dev [选项] [路径...]

命令:
  gen     执行代码生成（默认）
  dev     启动开发模式，监听文件变动自动生成

路径:
  支持 Go 包路径模式，如:
    ./...          递归扫描当前目录及子目录（默认）
    ./pkg/...      递归扫描指定目录

选项:
`)
	flag.PrintDefaults()

	registry := plugin.Global()
	if len(registry.Generators()) > 0 {
		_, _ = fmt.Fprintf(os.Stderr, "\n支持的注解:\n")
		_, _ = fmt.Fprint(os.Stderr, plugin.FormatHelpText(registry))
	}

	_, _ = fmt.Fprintf(os.Stderr, `模板变量:
  $FILE     - 源文件名（不含 .go 后缀）
  $PACKAGE  - 包名
  $NAME     - 声明结构体名（snake_case）

声明示例:
  // @OpenEnum(name=Fruit, default=Apple, codec=json|sql)
  type fruitCases struct {
      Apple  string `+"`enum:\"apple\"`"+`
      Banana string `+"`enum:\"banana\"`"+`
  }

示例:
  openenum                                  扫描当前目录（默认 ./...）
  openenum -v ./models/...                  详细模式扫描 models 目录
  openenum -output $FILE_gen.go ./...       指定输出文件名
  openenum dev ./...                        开发模式，监听文件变动
`)
}
