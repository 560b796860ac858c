package transforms

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/parse/v2"
	csslex "github.com/tdewolff/parse/v2/css"
	"go.trai.ch/sheaf/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Builtins returns the transforms available to every package by name.
func Builtins() map[string]domain.Transform {
	return map[string]domain.Transform{
		"strip-comments": failable(StripComments),
		"minify":         failable(Minify),
		"trim":           pure(TrimLines),
		"nfc":            pure(norm.NFC.Bytes),
		"lowercase": func(_ context.Context, _ string, src []byte) ([]byte, error) {
			// Casers are stateful and must not be shared between goroutines.
			return cases.Lower(language.Und).Bytes(src), nil
		},
	}
}

func pure(fn func([]byte) []byte) domain.Transform {
	return func(_ context.Context, _ string, src []byte) ([]byte, error) {
		return fn(src), nil
	}
}

func failable(fn func([]byte) ([]byte, error)) domain.Transform {
	return func(_ context.Context, file string, src []byte) ([]byte, error) {
		out, err := fn(src)
		if err != nil {
			return nil, zerr.With(err, "file", file)
		}
		return out, nil
	}
}

var minifier = func() *minify.M {
	m := minify.New()
	m.AddFunc(cssMediaType, css.Minify)
	return m
}()

const cssMediaType = "text/css"

// StripComments removes comments from a stylesheet and leaves every other
// token, whitespace included, as written.
func StripComments(src []byte) ([]byte, error) {
	out := make([]byte, 0, len(src))
	lexer := csslex.NewLexer(parse.NewInputBytes(src))
	for {
		tt, data := lexer.Next()
		switch tt {
		case csslex.ErrorToken:
			if err := lexer.Err(); !errors.Is(err, io.EOF) {
				return nil, zerr.Wrap(err, "failed to tokenize stylesheet")
			}
			return out, nil
		case csslex.CommentToken:
			continue
		default:
			out = append(out, data...)
		}
	}
}

// Minify minifies a stylesheet.
func Minify(src []byte) ([]byte, error) {
	out, err := minifier.Bytes(cssMediaType, src)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to minify stylesheet")
	}
	return out, nil
}

// TrimLines removes trailing whitespace from every line and trailing blank lines.
func TrimLines(src []byte) []byte {
	lines := bytes.Split(src, []byte("\n"))
	for i, line := range lines {
		lines[i] = bytes.TrimRight(line, " \t\r")
	}
	return bytes.TrimRight(bytes.Join(lines, []byte("\n")), "\n")
}
