package app

import (
	"os"
	"path/filepath"

	"go.trai.ch/sheaf/internal/core/domain"
	"go.trai.ch/zerr"
)

// pendingFile is an output written to a temporary file in the destination
// directory and renamed into place once the build succeeded.
type pendingFile struct {
	*os.File
	path string
}

func createPending(path string) (*pendingFile, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to create output directory"), "path", dir)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to create output file"), "path", path)
	}
	return &pendingFile{File: f, path: path}, nil
}

func (p *pendingFile) commit() error {
	tmp := p.Name()
	if err := p.Close(); err != nil {
		_ = os.Remove(tmp)
		return zerr.With(zerr.Wrap(err, "failed to close output file"), "path", p.path)
	}
	if err := os.Chmod(tmp, domain.FilePerm); err != nil {
		_ = os.Remove(tmp)
		return zerr.With(zerr.Wrap(err, "failed to set output permissions"), "path", p.path)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		_ = os.Remove(tmp)
		return zerr.With(zerr.Wrap(err, "failed to move output into place"), "path", p.path)
	}
	return nil
}

func (p *pendingFile) discard() {
	_ = p.Close()
	_ = os.Remove(p.Name())
}
