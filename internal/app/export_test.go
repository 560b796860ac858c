package app

// Test hooks for unexported helpers.

func OutputSetContains(opts BuildOptions, path string) bool {
	return newOutputSet(opts).contains(path)
}

func (a *App) ContentChanged(hashes map[string]uint64, paths []string) bool {
	return a.contentChanged(hashes, paths)
}
