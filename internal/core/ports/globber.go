package ports

// Globber expands file patterns.
//
//go:generate go run go.uber.org/mock/mockgen -source=globber.go -destination=mocks/mock_globber.go -package=mocks
type Globber interface {
	// Glob returns the regular files under dir matching pattern, as sorted
	// absolute paths. A malformed pattern is an error; no matches is not.
	Glob(dir, pattern string) ([]string, error)
}
