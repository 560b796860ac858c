package pipeline_test

import (
	"context"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.trai.ch/sheaf/internal/core/domain"
	"go.trai.ch/sheaf/internal/engine/pipeline"
)

// TestApplyProperties checks that transforms compose left to right.
func TestApplyProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(1234)
	properties := gopter.NewProperties(parameters)

	properties.Property("chain equals sequential application", prop.ForAll(
		func(content string, suffixes []string) bool {
			transforms := make([]domain.Transform, len(suffixes))
			for i, s := range suffixes {
				transforms[i] = suffix(s)
			}

			out, err := pipeline.Apply(context.Background(), "f.css", []byte(content), transforms)
			if err != nil {
				return false
			}
			return string(out) == content+strings.Join(suffixes, "")
		},
		gen.AlphaString(),
		gen.SliceOf(gen.Identifier()),
	))

	properties.Property("empty chain is identity", prop.ForAll(
		func(content string) bool {
			out, err := pipeline.Apply(context.Background(), "f.css", []byte(content), nil)
			return err == nil && string(out) == content
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
