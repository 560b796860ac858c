package jsbundler

import (
	"encoding/json"
	"os"
	"path/filepath"

	"go.trai.ch/sheaf/internal/core/domain"
	"go.trai.ch/zerr"
)

const manifestName = "package.json"

// stringList decodes a JSON string or a list of strings.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = stringList{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

type manifest struct {
	Name       string     `json:"name"`
	Main       string     `json:"main"`
	Style      stringList `json:"style"`
	Transforms stringList `json:"transforms"`
}

func readManifest(dir string) (*manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestName))
	if err != nil {
		return nil, err
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "invalid package manifest"), "path", filepath.Join(dir, manifestName))
	}
	return &m, nil
}

func (m *manifest) record(dir string) domain.PackageRecord {
	rec := domain.PackageRecord{
		Name:       m.Name,
		Dir:        dir,
		StyleGlobs: []string(m.Style),
	}
	for _, name := range m.Transforms {
		rec.Transforms = append(rec.Transforms, domain.NamedTransform(name))
	}
	return rec
}

// packages finds and memoizes the nearest package manifest above a file.
type packages struct {
	byDir map[string]*domain.PackageRecord
}

func newPackages() *packages {
	return &packages{byDir: make(map[string]*domain.PackageRecord)}
}

// owner returns the package whose directory is the nearest ancestor of file
// holding a package.json.
func (p *packages) owner(file string) (*domain.PackageRecord, error) {
	var visited []string
	dir := filepath.Dir(file)

	for {
		if rec, ok := p.byDir[dir]; ok {
			p.remember(visited, rec)
			return rec, nil
		}
		visited = append(visited, dir)

		m, err := readManifest(dir)
		switch {
		case err == nil:
			rec := m.record(dir)
			p.remember(visited, &rec)
			return &rec, nil
		case !os.IsNotExist(err):
			return nil, err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			p.remember(visited, nil)
			return nil, nil
		}
		dir = parent
	}
}

func (p *packages) remember(dirs []string, rec *domain.PackageRecord) {
	for _, dir := range dirs {
		p.byDir[dir] = rec
	}
}
