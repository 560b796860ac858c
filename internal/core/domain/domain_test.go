package domain_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sheaf/internal/core/domain"
)

func TestAssetBuildState_Advance(t *testing.T) {
	tests := []struct {
		name   string
		from   domain.AssetBuildState
		to     domain.AssetBuildState
		want   domain.AssetBuildState
		wantOK bool
	}{
		{"absent to started", domain.AssetAbsent, domain.AssetStarted, domain.AssetStarted, true},
		{"started to complete", domain.AssetStarted, domain.AssetComplete, domain.AssetComplete, true},
		{"absent to complete", domain.AssetAbsent, domain.AssetComplete, domain.AssetComplete, true},
		{"started again", domain.AssetStarted, domain.AssetStarted, domain.AssetStarted, false},
		{"complete back to started", domain.AssetComplete, domain.AssetStarted, domain.AssetComplete, false},
		{"complete back to absent", domain.AssetComplete, domain.AssetAbsent, domain.AssetComplete, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.from.Advance(tt.to)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestAssetBuildState_String(t *testing.T) {
	assert.Equal(t, "absent", domain.AssetAbsent.String())
	assert.Equal(t, "started", domain.AssetStarted.String())
	assert.Equal(t, "complete", domain.AssetComplete.String())
	assert.Equal(t, "unknown", domain.AssetBuildState(9).String())
}

func TestModuleRecord_DependencyIDs(t *testing.T) {
	m := domain.ModuleRecord{
		ID: "/a.js",
		Deps: map[string]string{
			"./c":    "/c.js",
			"./b":    "/b.js",
			"./b.js": "/b.js",
			"lodash": "/node_modules/lodash/index.js",
		},
	}

	assert.Equal(t, []string{"/b.js", "/c.js", "/node_modules/lodash/index.js"}, m.DependencyIDs())
	assert.Empty(t, domain.ModuleRecord{}.DependencyIDs())
}

func TestPackageRecord_PersistsTransformNamesOnly(t *testing.T) {
	called := false
	pkg := domain.PackageRecord{
		Dir:        "/app/node_modules/ui",
		StyleGlobs: []string{"*.css"},
		Transforms: []domain.TransformRef{
			domain.NamedTransform("minify"),
			{Name: "inline", Fn: func(_ context.Context, _ string, src []byte) ([]byte, error) {
				called = true
				return src, nil
			}},
		},
	}

	data, err := json.Marshal(pkg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"directoryPath":"/app/node_modules/ui","styleGlobs":["*.css"],"transformNames":["minify","inline"]}`, string(data))

	var decoded domain.PackageRecord
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Transforms, 2)
	assert.Equal(t, "inline", decoded.Transforms[1].Name)
	assert.Nil(t, decoded.Transforms[1].Fn)
	assert.False(t, called)
	assert.True(t, decoded.HasAssets())
}

func TestSnapshot_Normalize(t *testing.T) {
	var s domain.Snapshot
	require.NoError(t, json.Unmarshal([]byte(`{"mtimes":{"/a.js":1}}`), &s))
	s.Normalize()

	assert.NotNil(t, s.Modules)
	assert.NotNil(t, s.Packages)
	assert.NotNil(t, s.FilesPackagePaths)
	assert.True(t, s.HasMtime("/a.js"))
	assert.False(t, s.HasMtime("/b.js"))

	s.PutModule(domain.ModuleRecord{ID: "/a.js", File: "/a.js"})
	assert.Contains(t, s.Modules, "/a.js")
}

func TestAssetError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := error(&domain.AssetError{Kind: domain.AssetErrorIO, Package: "/pkg", File: "/pkg/a.css", Err: cause})

	var assetErr *domain.AssetError
	require.ErrorAs(t, err, &assetErr)
	assert.Equal(t, domain.AssetErrorIO, assetErr.Kind)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "/pkg/a.css")
}

func TestBundleOutputPaths(t *testing.T) {
	js, css := domain.BundleOutputPaths("dist/app")
	assert.Equal(t, "dist/app.js", js)
	assert.Equal(t, "dist/app.css", css)
	assert.Equal(t, ".sheaf/cache.json", domain.DefaultCachePath())
}
