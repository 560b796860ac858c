// Package shell runs external executables as content transforms.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/sheaf/internal/core/domain"
	"go.trai.ch/sheaf/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.CommandRunner = (*Runner)(nil)

// stderrTail bounds how much stderr is attached to a failure.
const stderrTail = 4 << 10

// Runner implements ports.CommandRunner using os/exec.
type Runner struct {
	logger ports.Logger
}

// NewRunner creates a new Runner.
func NewRunner(logger ports.Logger) *Runner {
	return &Runner{logger: logger}
}

// Command returns a transform that runs argv with the asset path appended as
// the last argument, feeds the content on stdin and takes stdout as the result.
// The environment gets SHEAF_FILE and SHEAF_PACKAGE_DIR, and the package's
// node_modules/.bin is prepended to PATH.
func (r *Runner) Command(argv []string, dir string) domain.Transform {
	argv = slices.Clone(argv)

	return func(ctx context.Context, file string, src []byte) ([]byte, error) {
		if len(argv) == 0 {
			return src, nil
		}

		name := argv[0]
		args := append(slices.Clone(argv[1:]), file)
		cmdEnv := resolveEnvironment(os.Environ(), dir, file)

		executable := name
		if !filepath.IsAbs(name) && !strings.ContainsRune(name, filepath.Separator) {
			if lp, err := lookPath(name, cmdEnv); err == nil {
				executable = lp
			}
		}

		cmd := exec.CommandContext(ctx, executable, args...) //nolint:gosec // user provided command
		if len(cmd.Args) > 0 {
			cmd.Args[0] = name
		}
		cmd.Dir = dir
		cmd.Env = cmdEnv
		cmd.Stdin = bytes.NewReader(src)

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = io.MultiWriter(&tailBuffer{buf: &stderr, limit: stderrTail}, &logWriter{logger: r.logger})

		if err := cmd.Run(); err != nil {
			exitCode := -1
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				exitCode = exitErr.ExitCode()
			}
			failure := zerr.With(zerr.Wrap(err, "command failed"), "exit_code", exitCode)
			failure = zerr.With(failure, "command", name)
			if tail := strings.TrimSpace(stderr.String()); tail != "" {
				failure = zerr.With(failure, "stderr", tail)
			}
			return nil, failure
		}

		return stdout.Bytes(), nil
	}
}

type logWriter struct {
	logger ports.Logger
}

func (w *logWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimSuffix(string(p), "\n"), "\n") {
		if line != "" {
			w.logger.Warn(line)
		}
	}
	return len(p), nil
}

// tailBuffer keeps at most limit bytes, dropping the oldest.
type tailBuffer struct {
	buf   *bytes.Buffer
	limit int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf.Write(p)
	if over := t.buf.Len() - t.limit; over > 0 {
		t.buf.Next(over)
	}
	return len(p), nil
}

// resolveEnvironment builds the command environment from the system
// environment, the package-local bin directory and the asset being processed.
func resolveEnvironment(sysEnv []string, dir, file string) []string {
	envMap := make(map[string]string, len(sysEnv)+2)
	for _, entry := range sysEnv {
		k, v, ok := strings.Cut(entry, "=")
		if ok {
			envMap[k] = v
		}
	}

	if dir != "" {
		bin := filepath.Join(dir, "node_modules", ".bin")
		if sysPath, exists := envMap["PATH"]; exists && sysPath != "" {
			envMap["PATH"] = bin + string(os.PathListSeparator) + sysPath
		} else {
			envMap["PATH"] = bin
		}
	}

	envMap["SHEAF_FILE"] = file
	envMap["SHEAF_PACKAGE_DIR"] = dir

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	slices.Sort(result)
	return result
}

// lookPath searches for an executable in the directories named by the PATH environment variable.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			path = strings.TrimPrefix(e, "PATH=")
			break
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
