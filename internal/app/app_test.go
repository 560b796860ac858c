package app_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sheaf/internal/adapters/cachefile"
	"go.trai.ch/sheaf/internal/adapters/fs"
	"go.trai.ch/sheaf/internal/adapters/jsbundler"
	"go.trai.ch/sheaf/internal/adapters/shell"
	"go.trai.ch/sheaf/internal/adapters/telemetry"
	"go.trai.ch/sheaf/internal/adapters/transforms"
	"go.trai.ch/sheaf/internal/app"
	"go.trai.ch/sheaf/internal/core/domain"
	"go.trai.ch/sheaf/internal/core/ports"
	"go.trai.ch/sheaf/internal/core/ports/mocks"
	"go.trai.ch/sheaf/internal/engine/pipeline"
	"go.uber.org/mock/gomock"
)

type nopBuilder struct{}

func (nopBuilder) BuildPackage(context.Context, domain.PackageRecord, io.Writer) []*domain.AssetError {
	return nil
}

type recorder struct {
	mu    sync.Mutex
	notes []domain.Notification
}

func (r *recorder) Notify(n domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recorder) has(match func(domain.Notification) bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notes {
		if match(n) {
			return true
		}
	}
	return false
}

func quietLogger(ctrl *gomock.Controller) *mocks.MockLogger {
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()
	return log
}

func newMockApp(t *testing.T, store ports.CacheStore, bundler ports.Bundler) *app.App {
	t.Helper()
	ctrl := gomock.NewController(t)
	return app.New(store, bundler, nopBuilder{}, telemetry.NewNoOp(), fs.NewHasher(), nil, quietLogger(ctrl))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), domain.DirPerm))
	require.NoError(t, os.WriteFile(path, []byte(content), domain.FilePerm))
}

func newProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"), `{"name": "site", "style": "*.css", "transforms": ["minify"]}`)
	writeFile(t, filepath.Join(root, "index.js"), `var ui = require("ui");
var util = require("./util");
module.exports = ui(util);
`)
	writeFile(t, filepath.Join(root, "util.js"), "module.exports = 1;\n")
	writeFile(t, filepath.Join(root, "site.css"), "body {\n  color: red;\n}\n")
	writeFile(t, filepath.Join(root, "node_modules", "ui", "package.json"), `{"name": "ui", "main": "main.js", "style": ["css/*.css"]}`)
	writeFile(t, filepath.Join(root, "node_modules", "ui", "main.js"), "module.exports = function (x) { return x; };\n")
	writeFile(t, filepath.Join(root, "node_modules", "ui", "css", "button.css"), ".button{}\n")
	return root
}

func newRealApp(t *testing.T) *app.App {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := quietLogger(ctrl)
	registry := transforms.NewRegistry()
	builder := pipeline.New(fs.NewGlobber(), pipeline.DefaultStrategy(registry, shell.NewRunner(log)))
	return app.New(cachefile.NewStore(), jsbundler.New(), builder, telemetry.NewNoOp(), fs.NewHasher(), nil, log)
}

func TestApp_Bundle_WarmBuildIsIdentical(t *testing.T) {
	root := newProject(t)
	cacheFile := filepath.Join(root, ".sheaf", "cache.json")
	entry := filepath.Join(root, "index.js")

	build := func(a *app.App) (*app.BuildResult, string, string) {
		var main, assets bytes.Buffer
		result, err := a.Bundle(context.Background(), app.BundleOptions{
			Entries:   []string{entry},
			CacheFile: cacheFile,
			Output:    &main,
			Assets:    &assets,
		})
		require.NoError(t, err)
		return result, main.String(), assets.String()
	}

	cold, coldMain, coldAssets := build(newRealApp(t))
	require.FileExists(t, cacheFile)
	assert.Contains(t, coldMain, `module.exports = 1;`)
	assert.Contains(t, coldAssets, "body{color:red}")
	assert.Contains(t, coldAssets, ".button{}")
	assert.Empty(t, cold.AssetErrors)

	// A new process reads the cache file written by the first one.
	warm, warmMain, warmAssets := build(newRealApp(t))
	assert.Equal(t, coldMain, warmMain)
	assert.Equal(t, cold.Digest, warm.Digest)
	assert.Equal(t, cold.Bytes, warm.Bytes)
	assert.Equal(t, len(coldAssets), len(warmAssets))
	assert.Empty(t, warm.Invalidated)
}

func TestApp_Bundle_InvalidatesChangedModules(t *testing.T) {
	root := newProject(t)
	entry := filepath.Join(root, "index.js")
	util := filepath.Join(root, "util.js")
	a := newRealApp(t)

	opts := app.BundleOptions{Entries: []string{entry}, CacheFile: filepath.Join(root, "cache.json")}
	_, err := a.Bundle(context.Background(), opts)
	require.NoError(t, err)

	writeFile(t, util, "module.exports = 2;\n")
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(util, future, future))

	var out bytes.Buffer
	opts.Output = &out
	result, err := a.Bundle(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{util}, result.Invalidated)
	assert.Contains(t, out.String(), "module.exports = 2;")
}

func TestApp_Bundle_NoEntries(t *testing.T) {
	ctrl := gomock.NewController(t)
	a := newMockApp(t, mocks.NewMockCacheStore(ctrl), mocks.NewMockBundler(ctrl))

	_, err := a.Bundle(context.Background(), app.BundleOptions{})
	require.ErrorIs(t, err, domain.ErrNoEntries)
}

func TestApp_Bundle_InProgress(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockCacheStore(ctrl)
	bundler := mocks.NewMockBundler(ctrl)
	a := newMockApp(t, store, bundler)

	release := make(chan struct{})
	entered := make(chan struct{})
	store.EXPECT().Invalidate(gomock.Any(), gomock.Any()).Return(nil, nil)
	bundler.EXPECT().Bundle(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, ports.BundleRequest, ports.EventSink, io.Writer) error {
			close(entered)
			<-release
			return nil
		})

	done := make(chan error, 1)
	go func() {
		_, err := a.Bundle(context.Background(), app.BundleOptions{Entries: []string{"/a.js"}})
		done <- err
	}()
	<-entered

	_, err := a.Bundle(context.Background(), app.BundleOptions{Entries: []string{"/a.js"}})
	require.ErrorIs(t, err, domain.ErrBuildInProgress)
	require.ErrorIs(t, a.Clean(context.Background(), "cache.json"), domain.ErrBuildInProgress)

	close(release)
	require.NoError(t, <-done)
}

func TestApp_Bundle_FatalErrorSkipsSave(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockCacheStore(ctrl)
	bundler := mocks.NewMockBundler(ctrl)
	a := newMockApp(t, store, bundler)

	boom := errors.New("syntax error")
	store.EXPECT().Load("cache.json").Return(domain.NewSnapshot(), nil)
	store.EXPECT().Invalidate(gomock.Any(), gomock.Any()).Return(nil, nil)
	bundler.EXPECT().Bundle(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(boom)

	rec := &recorder{}
	a.Subscribe(rec)

	_, err := a.Bundle(context.Background(), app.BundleOptions{Entries: []string{"/a.js"}, CacheFile: "cache.json"})
	require.ErrorIs(t, err, domain.ErrBundleFailed)
	require.ErrorIs(t, err, boom)
	assert.False(t, rec.has(func(n domain.Notification) bool {
		_, ok := n.(domain.BytesNotification)
		return ok
	}))
}

func TestApp_Bundle_CacheNotifications(t *testing.T) {
	readErr := errors.New("corrupt cache")
	writeErr := errors.New("disk full")

	tests := []struct {
		name     string
		loadErr  error
		saveErr  error
		expected func(domain.Notification) bool
	}{
		{
			name:    "read error",
			loadErr: readErr,
			expected: func(n domain.Notification) bool {
				e, ok := n.(domain.CacheReadErrorNotification)
				return ok && errors.Is(e.Err, readErr) && e.Path == "cache.json"
			},
		},
		{
			name:    "write error",
			saveErr: writeErr,
			expected: func(n domain.Notification) bool {
				e, ok := n.(domain.CacheWriteErrorNotification)
				return ok && errors.Is(e.Err, writeErr)
			},
		},
		{
			name: "written",
			expected: func(n domain.Notification) bool {
				e, ok := n.(domain.CacheWrittenNotification)
				return ok && e.Path == "cache.json"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := mocks.NewMockCacheStore(ctrl)
			bundler := mocks.NewMockBundler(ctrl)
			a := newMockApp(t, store, bundler)
			rec := &recorder{}
			a.Subscribe(rec)

			store.EXPECT().Load("cache.json").Return(domain.NewSnapshot(), tt.loadErr)
			store.EXPECT().Invalidate(gomock.Any(), gomock.Any()).Return(nil, nil)
			store.EXPECT().Save("cache.json", gomock.Any()).Return(tt.saveErr)
			bundler.EXPECT().Bundle(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, _ ports.BundleRequest, _ ports.EventSink, w io.Writer) error {
					_, err := io.WriteString(w, "bundle")
					return err
				})

			result, err := a.Bundle(context.Background(), app.BundleOptions{Entries: []string{"/a.js"}, CacheFile: "cache.json"})
			require.NoError(t, err)
			assert.Equal(t, int64(len("bundle")), result.Bytes)
			assert.True(t, rec.has(tt.expected))
			assert.True(t, rec.has(func(n domain.Notification) bool {
				b, ok := n.(domain.BytesNotification)
				return ok && b.Bytes == int64(len("bundle"))
			}))
		})
	}
}

func TestApp_Clean_DropsProcessCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockCacheStore(ctrl)
	bundler := mocks.NewMockBundler(ctrl)
	a := newMockApp(t, store, bundler)

	opts := app.BundleOptions{Entries: []string{"/a.js"}, CacheFile: "cache.json"}
	store.EXPECT().Invalidate(gomock.Any(), gomock.Any()).Return(nil, nil).Times(3)
	store.EXPECT().Save("cache.json", gomock.Any()).Return(nil).Times(3)
	bundler.EXPECT().Bundle(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(3)

	gomock.InOrder(
		store.EXPECT().Load("cache.json").Return(domain.NewSnapshot(), nil),
		store.EXPECT().Remove("cache.json").Return(nil),
		store.EXPECT().Load("cache.json").Return(domain.NewSnapshot(), nil),
	)

	_, err := a.Bundle(context.Background(), opts)
	require.NoError(t, err)
	_, err = a.Bundle(context.Background(), opts)
	require.NoError(t, err)

	require.NoError(t, a.Clean(context.Background(), "cache.json"))

	_, err = a.Bundle(context.Background(), opts)
	require.NoError(t, err)
}

func TestApp_Build_CommitsOutputs(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockCacheStore(ctrl)
	bundler := mocks.NewMockBundler(ctrl)
	a := newMockApp(t, store, bundler)

	dir := t.TempDir()
	bundlePath := filepath.Join(dir, "dist", "bundle.js")
	assetPath := filepath.Join(dir, "dist", "bundle.css")

	store.EXPECT().Invalidate(gomock.Any(), gomock.Any()).Return(nil, nil).Times(2)
	gomock.InOrder(
		bundler.EXPECT().Bundle(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ ports.BundleRequest, _ ports.EventSink, w io.Writer) error {
				_, err := io.WriteString(w, "first")
				return err
			}),
		bundler.EXPECT().Bundle(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ ports.BundleRequest, _ ports.EventSink, w io.Writer) error {
				_, _ = io.WriteString(w, "partial")
				return errors.New("parse failure")
			}),
	)

	opts := app.BuildOptions{Entries: []string{"/a.js"}, BundlePath: bundlePath, AssetPath: assetPath}

	_, err := a.Build(context.Background(), opts)
	require.NoError(t, err)
	data, err := os.ReadFile(bundlePath)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
	assert.FileExists(t, assetPath)

	_, err = a.Build(context.Background(), opts)
	require.ErrorIs(t, err, domain.ErrBundleFailed)

	data, err = os.ReadFile(bundlePath)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data), "failed build must not replace the previous output")

	entries, err := os.ReadDir(filepath.Dir(bundlePath))
	require.NoError(t, err)
	assert.Len(t, entries, 2, "temporary files must be removed")
}

func TestApp_Build_Stdout(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockCacheStore(ctrl)
	bundler := mocks.NewMockBundler(ctrl)
	a := newMockApp(t, store, bundler)

	store.EXPECT().Invalidate(gomock.Any(), gomock.Any()).Return(nil, nil)
	bundler.EXPECT().Bundle(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ ports.BundleRequest, _ ports.EventSink, w io.Writer) error {
			_, err := io.WriteString(w, "to stdout")
			return err
		})

	var stdout bytes.Buffer
	_, err := a.Build(context.Background(), app.BuildOptions{Entries: []string{"/a.js"}, Stdout: &stdout})
	require.NoError(t, err)
	assert.Equal(t, "to stdout", stdout.String())
}
