package workflow

import "slices"

// visitedSet is the chain of workflows being resolved on one branch of the
// expansion tree. It is never mutated: with returns a fresh copy, so sibling
// branches cannot see each other's entries.
type visitedSet struct {
	path []string
}

func (v visitedSet) contains(name string) bool {
	return slices.Contains(v.path, name)
}

func (v visitedSet) with(name string) visitedSet {
	path := make([]string, len(v.path), len(v.path)+1)
	copy(path, v.path)

	return visitedSet{path: append(path, name)}
}

func (v visitedSet) depth() int {
	return len(v.path)
}

// pathTo returns the current path followed by name.
func (v visitedSet) pathTo(name string) []string {
	return v.with(name).path
}
