package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(debounce time.Duration, generate func(string)) *devRunner {
	return &devRunner{
		opts:        &DevOptions{Debounce: debounce},
		ctx:         context.Background(),
		generate:    generate,
		pendingDirs: make(map[string]*time.Timer),
	}
}

func TestScheduleGenerate_ClearsOwnTimer(t *testing.T) {
	ran := make(chan string, 1)
	r := newTestRunner(5*time.Millisecond, func(dir string) { ran <- dir })

	r.scheduleGenerate("pkg")
	select {
	case dir := <-ran:
		assert.Equal(t, "pkg", dir)
	case <-time.After(5 * time.Second):
		t.Fatal("生成未执行")
	}
	require.Eventually(t, func() bool { return r.pending("pkg") == nil }, 5*time.Second, 5*time.Millisecond)
}

func TestScheduleGenerate_KeepsTimerRegisteredDuringGenerate(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	finished := make(chan struct{}, 1)
	r := newTestRunner(5*time.Millisecond, func(string) {
		started <- struct{}{}
		<-release
		finished <- struct{}{}
	})
	defer r.stopPending()

	r.scheduleGenerate("pkg")
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("生成未执行")
	}

	// 第一次生成尚未结束时又有文件变动
	r.opts.Debounce = time.Hour
	r.scheduleGenerate("pkg")
	second := r.pending("pkg")
	require.NotNil(t, second)

	close(release)
	<-finished
	require.Never(t, func() bool { return r.pending("pkg") != second }, 100*time.Millisecond, 5*time.Millisecond)
}

func TestScheduleGenerate_SkipsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ran := make(chan string, 1)
	r := newTestRunner(5*time.Millisecond, func(dir string) { ran <- dir })
	r.ctx = ctx

	cancel()
	r.scheduleGenerate("pkg")
	select {
	case <-ran:
		t.Fatal("取消后不应再生成")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestIsGeneratedFile(t *testing.T) {
	assert.True(t, isGeneratedFile("/a/fruit_enum.go"))
	assert.True(t, isGeneratedFile("/a/fruit_gen.go"))
	assert.True(t, isGeneratedFile("/a/fruit_test.go"))
	assert.False(t, isGeneratedFile("/a/fruit.go"))
	assert.False(t, isGeneratedFile("/a/enum.go"))
}

func TestCollectWatchDirs(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"a/b", ".git", "_examples", "vendor/x", "testdata", "c"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
	}

	dirs, err := collectWatchDirs([]string{root + "/..."})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		root,
		filepath.Join(root, "a"),
		filepath.Join(root, "a", "b"),
		filepath.Join(root, "c"),
	}, dirs)

	dirs, err = collectWatchDirs([]string{filepath.Join(root, "a"), filepath.Join(root, "a")})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "a")}, dirs)

	_, err = collectWatchDirs([]string{filepath.Join(root, "missing")})
	assert.Error(t, err)
}
