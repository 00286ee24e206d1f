package agent

import (
	"fmt"
	"sort"
	"strings"
)

// Artifact is one step's produced content plus its short summary.
type Artifact struct {
	Content string `json:"content"`
	Summary string `json:"summary"`
}

// ArtifactMemory accumulates step artifacts over one run, keyed by
// 1-based step index. Keys are a contiguous prefix of executed steps
// and entries are write-once. A memory is owned by the executor that
// created it and never shared across runs, so it needs no locking.
type ArtifactMemory struct {
	entries map[int]Artifact
	last    int
}

func NewArtifactMemory() *ArtifactMemory {
	return &ArtifactMemory{entries: make(map[int]Artifact)}
}

// Write records the artifact for step index. The index must extend the
// contiguous prefix by exactly one, and an existing entry is immutable.
func (m *ArtifactMemory) Write(index int, a Artifact) error {
	if _, exists := m.entries[index]; exists {
		return fmt.Errorf("artifact memory: step %d already written", index)
	}
	if index != m.last+1 {
		return fmt.Errorf("artifact memory: step %d would leave a gap after %d", index, m.last)
	}
	m.entries[index] = a
	m.last = index
	return nil
}

func (m *ArtifactMemory) Get(index int) (Artifact, bool) {
	a, ok := m.entries[index]
	return a, ok
}

func (m *ArtifactMemory) Len() int {
	return len(m.entries)
}

// SummaryContext concatenates prior step summaries, in step order, for
// prompt construction. Summaries rather than full content keep the
// prompt bounded.
func (m *ArtifactMemory) SummaryContext() string {
	if len(m.entries) == 0 {
		return ""
	}
	indices := make([]int, 0, len(m.entries))
	for i := range m.entries {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	var b strings.Builder
	for _, i := range indices {
		fmt.Fprintf(&b, "Step %d: %s\n", i, m.entries[i].Summary)
	}
	return b.String()
}

// Snapshot returns a copy of the memory for result metadata.
func (m *ArtifactMemory) Snapshot() map[int]Artifact {
	out := make(map[int]Artifact, len(m.entries))
	for i, a := range m.entries {
		out[i] = a
	}
	return out
}
