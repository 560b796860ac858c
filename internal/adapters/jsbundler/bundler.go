// Package jsbundler implements a CommonJS dependency walker that produces a
// single self-contained script.
package jsbundler

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"

	"go.trai.ch/sheaf/internal/core/domain"
	"go.trai.ch/sheaf/internal/core/ports"
	"go.trai.ch/zerr"
)

var requirePattern = regexp.MustCompile(`\brequire\(\s*(?:'([^']+)'|"([^"]+)")\s*\)`)

const prelude = `(function (modules, entries) {
  var cache = {};
  function load(id) {
    if (cache[id]) return cache[id].exports;
    var def = modules[id];
    var module = cache[id] = { exports: {} };
    def[0].call(module.exports, function (spec) {
      return load(def[1][spec] || spec);
    }, module, module.exports);
    return module.exports;
  }
  entries.forEach(load);
})({
`

// Bundler implements ports.Bundler over the local filesystem.
type Bundler struct{}

// New creates a new Bundler.
func New() *Bundler {
	return &Bundler{}
}

type walk struct {
	req      ports.BundleRequest
	sink     ports.EventSink
	packages *packages
	modules  map[string]domain.ModuleRecord
	entries  map[string]bool
}

// Bundle walks require edges from the entries, reports every module, file and
// package through sink and writes the bundle to w. Modules are written in id
// order so the output only depends on the module graph.
func (b *Bundler) Bundle(ctx context.Context, req ports.BundleRequest, sink ports.EventSink, w io.Writer) error {
	if len(req.Entries) == 0 {
		return domain.ErrNoEntries
	}

	wk := &walk{
		req:      req,
		sink:     sink,
		packages: newPackages(),
		modules:  make(map[string]domain.ModuleRecord),
		entries:  make(map[string]bool, len(req.Entries)),
	}

	queue := make([]string, 0, len(req.Entries))
	for _, entry := range req.Entries {
		abs, err := filepath.Abs(entry)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to resolve entry"), "path", entry)
		}
		wk.entries[abs] = true
		queue = append(queue, abs)
	}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		file := queue[0]
		queue = queue[1:]
		if _, seen := wk.modules[file]; seen {
			continue
		}

		rec, err := wk.visit(ctx, file)
		if err != nil {
			return err
		}
		queue = append(queue, rec.DependencyIDs()...)
	}

	return wk.write(w)
}

func (wk *walk) visit(ctx context.Context, file string) (domain.ModuleRecord, error) {
	rec, cached := wk.req.Cache[file]
	var mtime int64
	if !cached {
		var err error
		if rec, mtime, err = parse(file); err != nil {
			return rec, err
		}
	}
	rec.Entry = wk.entries[file]
	wk.modules[file] = rec

	pkg, err := wk.packages.owner(file)
	if err != nil {
		return rec, err
	}
	if pkg != nil {
		if err := wk.sink.Emit(ctx, domain.PackageEvent{File: file, Package: *pkg}); err != nil {
			return rec, err
		}
	}
	if err := wk.sink.Emit(ctx, domain.DependencyEvent{Record: rec, Mtime: mtime}); err != nil {
		return rec, err
	}
	if err := wk.sink.Emit(ctx, domain.FileEvent{File: file}); err != nil {
		return rec, err
	}
	return rec, nil
}

// parse reads and scans file. The returned mtime is taken before the read so
// an edit racing the build invalidates the module on the next run.
func parse(file string) (domain.ModuleRecord, int64, error) {
	info, err := os.Stat(file)
	if err != nil {
		return domain.ModuleRecord{}, 0, zerr.With(zerr.Wrap(err, "failed to read module"), "path", file)
	}
	mtime := info.ModTime().UnixMilli()

	src, err := os.ReadFile(file)
	if err != nil {
		return domain.ModuleRecord{}, 0, zerr.With(zerr.Wrap(err, "failed to read module"), "path", file)
	}

	rec := domain.ModuleRecord{
		ID:     file,
		File:   file,
		Deps:   make(map[string]string),
		Source: string(src),
	}
	if filepath.Ext(file) == ".json" {
		rec.Source = "module.exports = " + string(src) + ";"
		return rec, mtime, nil
	}

	for _, match := range requirePattern.FindAllStringSubmatch(rec.Source, -1) {
		spec := match[1] + match[2]
		if _, done := rec.Deps[spec]; done {
			continue
		}
		resolved, ok := resolve(file, spec)
		if !ok {
			return rec, 0, zerr.With(zerr.With(zerr.Wrap(domain.ErrModuleNotFound, "cannot resolve require"), "require", spec), "from", file)
		}
		rec.Deps[spec] = resolved
	}
	return rec, mtime, nil
}

func (wk *walk) write(w io.Writer) error {
	ids := make([]string, 0, len(wk.modules))
	var entries []string
	for id, rec := range wk.modules {
		ids = append(ids, id)
		if rec.Entry {
			entries = append(entries, id)
		}
	}
	slices.Sort(ids)
	slices.Sort(entries)

	bw := bufio.NewWriter(w)
	_, _ = bw.WriteString(prelude)
	for i, id := range ids {
		rec := wk.modules[id]
		deps := []byte("{}")
		if len(rec.Deps) > 0 {
			var err error
			if deps, err = json.Marshal(rec.Deps); err != nil {
				return zerr.Wrap(err, "failed to encode dependencies")
			}
		}

		_, _ = bw.WriteString(strconv.Quote(id))
		_, _ = bw.WriteString(": [function (require, module, exports) {\n")
		_, _ = bw.WriteString(rec.Source)
		_, _ = bw.WriteString("\n}, ")
		_, _ = bw.Write(deps)
		_, _ = bw.WriteString("]")
		if i < len(ids)-1 {
			_, _ = bw.WriteString(",")
		}
		_, _ = bw.WriteString("\n")
	}

	quoted := make([]string, len(entries))
	for i, id := range entries {
		quoted[i] = strconv.Quote(id)
	}
	_, _ = bw.WriteString("}, [")
	for i, q := range quoted {
		if i > 0 {
			_, _ = bw.WriteString(", ")
		}
		_, _ = bw.WriteString(q)
	}
	_, _ = bw.WriteString("]);\n")

	if err := bw.Flush(); err != nil {
		return zerr.Wrap(err, "failed to write bundle")
	}
	return nil
}
