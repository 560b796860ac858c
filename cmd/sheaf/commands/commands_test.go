package commands_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sheaf/cmd/sheaf/commands"
	"go.trai.ch/sheaf/internal/adapters/fs"
	"go.trai.ch/sheaf/internal/adapters/telemetry"
	"go.trai.ch/sheaf/internal/adapters/transforms"
	"go.trai.ch/sheaf/internal/app"
	"go.trai.ch/sheaf/internal/build"
	"go.trai.ch/sheaf/internal/core/domain"
	"go.trai.ch/sheaf/internal/core/ports"
	"go.trai.ch/sheaf/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

type nopBuilder struct{}

func (nopBuilder) BuildPackage(context.Context, domain.PackageRecord, io.Writer) []*domain.AssetError {
	return nil
}

type fixture struct {
	cli      *commands.CLI
	loader   *mocks.MockConfigLoader
	store    *mocks.MockCacheStore
	bundler  *mocks.MockBundler
	runner   *mocks.MockCommandRunner
	registry *transforms.Registry
	stdout   *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()

	f := &fixture{
		loader:   mocks.NewMockConfigLoader(ctrl),
		store:    mocks.NewMockCacheStore(ctrl),
		bundler:  mocks.NewMockBundler(ctrl),
		runner:   mocks.NewMockCommandRunner(ctrl),
		registry: transforms.NewRegistry(),
		stdout:   &bytes.Buffer{},
	}

	a := app.New(f.store, f.bundler, nopBuilder{}, telemetry.NewNoOp(), fs.NewHasher(), nil, log)
	f.cli = commands.New(&app.Components{
		App:          a,
		Logger:       log,
		Listener:     ports.ListenerFunc(func(domain.Notification) {}),
		ConfigLoader: f.loader,
		Telemetry:    telemetry.NewNoOp(),
		Transforms:   f.registry,
		Runner:       f.runner,
	})
	f.cli.SetOutput(f.stdout, io.Discard)
	return f
}

func (f *fixture) expectBundle(t *testing.T, wantEntries []string, output string) {
	t.Helper()
	f.store.EXPECT().Invalidate(gomock.Any(), gomock.Any()).Return(nil, nil)
	f.bundler.EXPECT().Bundle(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req ports.BundleRequest, _ ports.EventSink, w io.Writer) error {
			assert.Equal(t, wantEntries, req.Entries)
			_, err := io.WriteString(w, output)
			return err
		})
}

func cwd(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)
	return dir
}

func TestBundle_EntriesFromArgs(t *testing.T) {
	f := newFixture(t)
	dir := cwd(t)

	f.loader.EXPECT().Load(dir).Return(&domain.ProjectConfig{Root: dir}, nil)
	f.expectBundle(t, []string{filepath.Join(dir, "src", "main.js")}, "bundle")

	f.cli.SetArgs([]string{"bundle", "src/main.js"})
	require.NoError(t, f.cli.Execute(context.Background()))
	assert.Equal(t, "bundle", f.stdout.String())
}

func TestBundle_EntriesFromConfig(t *testing.T) {
	f := newFixture(t)
	root := t.TempDir()
	configPath := filepath.Join(root, domain.ConfigFileName)

	f.loader.EXPECT().LoadFile(configPath).Return(&domain.ProjectConfig{
		Root:         root,
		Entries:      []string{"index.js"},
		BundleOutput: filepath.Join(root, "dist", "bundle.js"),
	}, nil)
	f.expectBundle(t, []string{filepath.Join(root, "index.js")}, "from config")

	f.cli.SetArgs([]string{"bundle", "-c", configPath})
	require.NoError(t, f.cli.Execute(context.Background()))

	data, err := os.ReadFile(filepath.Join(root, "dist", "bundle.js"))
	require.NoError(t, err)
	assert.Equal(t, "from config", string(data))
	assert.Empty(t, f.stdout.String())
}

func TestBundle_OutputFlags(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name       string
		args       []string
		wantBundle string
		wantAssets string
	}{
		{
			name:       "bundle name",
			args:       []string{"-n", filepath.Join(dir, "a", "app")},
			wantBundle: filepath.Join(dir, "a", "app.js"),
			wantAssets: filepath.Join(dir, "a", "app.css"),
		},
		{
			name:       "explicit files override bundle name",
			args:       []string{"-n", filepath.Join(dir, "b", "app"), "--css-file", filepath.Join(dir, "b", "styles.css")},
			wantBundle: filepath.Join(dir, "b", "app.js"),
			wantAssets: filepath.Join(dir, "b", "styles.css"),
		},
		{
			name:       "outfile",
			args:       []string{"-o", filepath.Join(dir, "c", "out.js")},
			wantBundle: filepath.Join(dir, "c", "out.js"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.loader.EXPECT().Load(gomock.Any()).Return(&domain.ProjectConfig{Root: dir}, nil)
			f.expectBundle(t, []string{filepath.Join(dir, "index.js")}, "js")

			f.cli.SetArgs(append([]string{"bundle", filepath.Join(dir, "index.js")}, tt.args...))
			require.NoError(t, f.cli.Execute(context.Background()))

			data, err := os.ReadFile(tt.wantBundle)
			require.NoError(t, err)
			assert.Equal(t, "js", string(data))
			if tt.wantAssets != "" {
				assert.FileExists(t, tt.wantAssets)
			}
		})
	}
}

func TestBundle_CacheFlags(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	cacheFile := filepath.Join(dir, "deps.json")

	f.loader.EXPECT().Load(gomock.Any()).Return(&domain.ProjectConfig{Root: dir, CacheFile: filepath.Join(dir, "ignored.json")}, nil)
	f.store.EXPECT().Load(cacheFile).Return(domain.NewSnapshot(), nil)
	f.store.EXPECT().Save(cacheFile, gomock.Any()).Return(nil)
	f.expectBundle(t, []string{filepath.Join(dir, "index.js")}, "")

	f.cli.SetArgs([]string{"bundle", filepath.Join(dir, "index.js"), "--cache-file", cacheFile})
	require.NoError(t, f.cli.Execute(context.Background()))
}

func TestBundle_NoEntries(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load(gomock.Any()).Return(&domain.ProjectConfig{Root: t.TempDir()}, nil)

	f.cli.SetArgs([]string{"bundle"})
	require.ErrorIs(t, f.cli.Execute(context.Background()), domain.ErrNoEntries)
}

func TestBundle_ConfigError(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load(gomock.Any()).Return(nil, domain.ErrInvalidConfig)

	f.cli.SetArgs([]string{"bundle", "index.js"})
	require.ErrorIs(t, f.cli.Execute(context.Background()), domain.ErrInvalidConfig)
}

func TestBundle_RegistersCommandTransforms(t *testing.T) {
	f := newFixture(t)
	root := t.TempDir()
	argv := []string{"sass", "--stdin"}
	command := domain.Transform(func(_ context.Context, _ string, src []byte) ([]byte, error) {
		return src, nil
	})

	f.loader.EXPECT().Load(gomock.Any()).Return(&domain.ProjectConfig{
		Root:     root,
		Commands: map[string][]string{"sass": argv},
	}, nil)
	f.runner.EXPECT().Command(argv, root).Return(command)
	f.expectBundle(t, []string{filepath.Join(root, "index.js")}, "")

	f.cli.SetArgs([]string{"bundle", filepath.Join(root, "index.js")})
	require.NoError(t, f.cli.Execute(context.Background()))

	_, ok := f.registry.Lookup("sass")
	assert.True(t, ok)
}

func TestClean(t *testing.T) {
	f := newFixture(t)
	root := t.TempDir()
	cacheFile := filepath.Join(root, domain.DefaultCachePath())

	f.loader.EXPECT().Load(gomock.Any()).Return(&domain.ProjectConfig{Root: root, CacheFile: cacheFile}, nil)
	f.store.EXPECT().Remove(cacheFile).Return(nil)

	f.cli.SetArgs([]string{"clean"})
	require.NoError(t, f.cli.Execute(context.Background()))
}

func TestVersion(t *testing.T) {
	f := newFixture(t)

	f.cli.SetArgs([]string{"version"})
	require.NoError(t, f.cli.Execute(context.Background()))
	assert.Equal(t, "sheaf version "+build.Version+"\n", f.stdout.String())
}

func TestRoot_Help(t *testing.T) {
	f := newFixture(t)

	f.cli.SetArgs([]string{"--help"})
	require.NoError(t, f.cli.Execute(context.Background()))
	assert.Contains(t, f.stdout.String(), "bundle")
	assert.Contains(t, f.stdout.String(), "watch")
}
