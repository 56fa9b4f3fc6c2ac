package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/donutnomad/openenum/plugin"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/tools/imports"
)

// DevOptions dev 命令选项
type DevOptions struct {
	Patterns []string
	Verbose  bool
	Output   string
	Async    bool
	Debounce time.Duration // 同一目录内多次变动合并为一次生成
}

type devRunner struct {
	opts     *DevOptions
	registry *plugin.Registry
	watcher  *fsnotify.Watcher
	scanner  *plugin.Scanner
	ctx      context.Context
	generate func(pkgDir string) // 默认为 runGenerate

	mu          sync.Mutex
	pendingDirs map[string]*time.Timer
}

func runDev(args []string) {
	patterns := args
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	registry := plugin.Global()
	if len(registry.Generators()) == 0 {
		fmt.Fprintln(os.Stderr, "错误: 没有已注册的生成器")
		os.Exit(1)
	}

	opts := &DevOptions{
		Patterns: patterns,
		Verbose:  *verbose,
		Output:   outputPath(),
		Async:    *async,
		Debounce: 2 * time.Second,
	}
	if err := dev(opts); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func dev(opts *DevOptions) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("创建文件监听器失败: %w", err)
	}
	defer watcher.Close()

	registry := plugin.Global()
	runner := &devRunner{
		opts:        opts,
		registry:    registry,
		watcher:     watcher,
		scanner:     plugin.NewScanner(plugin.WithAnnotationFilter(registry.Annotations()...)),
		ctx:         ctx,
		pendingDirs: make(map[string]*time.Timer),
	}
	runner.generate = runner.runGenerate
	defer runner.stopPending()

	dirs, err := collectWatchDirs(opts.Patterns)
	if err != nil {
		return fmt.Errorf("收集监听目录失败: %w", err)
	}
	if len(dirs) == 0 {
		return fmt.Errorf("没有找到需要监听的目录")
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("添加监听目录失败 %s: %w", dir, err)
		}
		if opts.Verbose {
			fmt.Printf("监听目录: %s\n", dir)
		}
	}

	fmt.Printf("开发模式已启动，监听 %d 个目录，按 Ctrl+C 退出\n\n", len(dirs))

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\n正在退出...")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			runner.handleEvent(event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if opts.Verbose {
				fmt.Printf("监听错误: %v\n", err)
			}
		}
	}
}

func (r *devRunner) stopPending() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, timer := range r.pendingDirs {
		timer.Stop()
	}
}

func (r *devRunner) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	filePath := event.Name
	if !strings.HasSuffix(filePath, ".go") || isGeneratedFile(filePath) {
		return
	}

	matched, err := r.scanner.QuickMatchFile(filePath)
	if err != nil {
		if r.opts.Verbose {
			fmt.Printf("检查注解失败 %s: %v\n", filePath, err)
		}
		return
	}
	if !matched {
		return
	}

	if err := checkSyntax(filePath); err != nil {
		fmt.Printf("语法错误 %s: %v\n", filePath, err)
		return
	}

	if r.opts.Verbose {
		fmt.Printf("检测到枚举声明变化: %s\n", filePath)
	}
	r.scheduleGenerate(filepath.Dir(filePath))
}

func (r *devRunner) scheduleGenerate(pkgDir string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if timer, ok := r.pendingDirs[pkgDir]; ok {
		timer.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(r.opts.Debounce, func() {
		if r.ctx.Err() != nil {
			return
		}
		r.generate(pkgDir)

		// 生成期间可能已有新的定时器登记到同一目录，只清理自己
		r.mu.Lock()
		if r.pendingDirs[pkgDir] == timer {
			delete(r.pendingDirs, pkgDir)
		}
		r.mu.Unlock()
	})
	r.pendingDirs[pkgDir] = timer
}

// pending 返回目录当前登记的定时器
func (r *devRunner) pending(pkgDir string) *time.Timer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pendingDirs[pkgDir]
}

func (r *devRunner) runGenerate(pkgDir string) {
	stats, err := plugin.RunWithOptionsAndStats(r.ctx, &plugin.RunOptions{
		Registry: r.registry,
		Patterns: []string{pkgDir},
		Verbose:  r.opts.Verbose,
		Output:   r.opts.Output,
		Async:    r.opts.Async,
	})
	if err != nil {
		fmt.Printf("生成失败: %v\n", err)
		return
	}
	if stats != nil && stats.FileCount > 0 {
		fmt.Printf("生成完成: %d 个文件 (耗时: %v)\n", stats.FileCount, stats.TotalDuration)
	}
}

// checkSyntax 只检查语法，不修改 imports
func checkSyntax(filePath string) error {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	_, err = imports.Process(filePath, content, &imports.Options{
		Fragment:   true,
		AllErrors:  true,
		Comments:   true,
		FormatOnly: true,
	})
	return err
}

func collectWatchDirs(patterns []string) ([]string, error) {
	var dirs []string
	seen := make(map[string]bool)
	add := func(dir string) {
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	for _, pattern := range patterns {
		recursive := strings.HasSuffix(pattern, "/...")
		absDir, err := filepath.Abs(strings.TrimSuffix(pattern, "/..."))
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(absDir)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			continue
		}
		if !recursive {
			add(absDir)
			continue
		}

		err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			name := d.Name()
			if path != absDir && (strings.HasPrefix(name, ".") || name == "vendor" || name == "testdata" || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return dirs, nil
}

// isGeneratedFile 生成的文件与测试文件不会触发生成
func isGeneratedFile(filePath string) bool {
	base := filepath.Base(filePath)
	return strings.HasSuffix(base, "_test.go") ||
		strings.HasSuffix(base, "_enum.go") ||
		strings.HasSuffix(base, "_gen.go")
}
