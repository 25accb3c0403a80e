package model

import "fmt"

// Chunk is a synthetic translation unit: a group of SourceFiles compiled
// together as one #include-everything .cpp, amortizing compiler startup and
// template instantiation cost across the group. A Chunk of size 1 behaves
// exactly like compiling that one file directly.
type Chunk struct {
	Index   int
	Sources []*SourceFile

	// ObjPath is the object file produced for this chunk (one obj per chunk,
	// not one obj per source file inside it).
	ObjPath string

	// Dirty is set by the freshness oracle: true if any member source (or
	// its header closure) changed since the last recorded digest/mtime.
	Dirty bool
}

// GeneratedName follows the teacher's chunk naming convention: an ordinal
// suffix on the project name, stable across builds as long as the chunk
// membership doesn't change (see chunker.Planner).
func (c *Chunk) GeneratedName(projectName string) string {
	return fmt.Sprintf("%s_unity_%d", projectName, c.Index)
}

func (c *Chunk) IsSingleton() bool {
	return len(c.Sources) == 1
}
