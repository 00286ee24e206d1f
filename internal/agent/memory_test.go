package agent

import (
	"strings"
	"testing"
)

func TestArtifactMemoryContiguousWrites(t *testing.T) {
	m := NewArtifactMemory()

	if err := m.Write(1, Artifact{Content: "a", Summary: "first"}); err != nil {
		t.Fatal(err)
	}
	if err := m.Write(2, Artifact{Content: "b", Summary: "second"}); err != nil {
		t.Fatal(err)
	}

	// A gap is rejected.
	if err := m.Write(4, Artifact{Content: "d"}); err == nil {
		t.Error("write leaving a gap should fail")
	}
	// So is going backwards.
	if err := m.Write(0, Artifact{Content: "z"}); err == nil {
		t.Error("non-positive index should fail")
	}
	if m.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", m.Len())
	}
}

func TestArtifactMemoryWriteOnce(t *testing.T) {
	m := NewArtifactMemory()
	if err := m.Write(1, Artifact{Content: "a", Summary: "first"}); err != nil {
		t.Fatal(err)
	}
	if err := m.Write(1, Artifact{Content: "mutated"}); err == nil {
		t.Fatal("rewriting an existing step should fail")
	}

	got, ok := m.Get(1)
	if !ok || got.Content != "a" {
		t.Errorf("entry should be unchanged, got %+v", got)
	}
}

func TestArtifactMemorySummaryContextOrdered(t *testing.T) {
	m := NewArtifactMemory()
	_ = m.Write(1, Artifact{Summary: "fetched the page"})
	_ = m.Write(2, Artifact{Summary: "extracted the table"})
	_ = m.Write(3, Artifact{Summary: "wrote the report"})

	ctx := m.SummaryContext()
	i1 := strings.Index(ctx, "Step 1: fetched the page")
	i2 := strings.Index(ctx, "Step 2: extracted the table")
	i3 := strings.Index(ctx, "Step 3: wrote the report")
	if i1 < 0 || i2 < 0 || i3 < 0 {
		t.Fatalf("missing summaries in context:\n%s", ctx)
	}
	if !(i1 < i2 && i2 < i3) {
		t.Errorf("summaries out of order:\n%s", ctx)
	}
}

func TestArtifactMemorySnapshotIsCopy(t *testing.T) {
	m := NewArtifactMemory()
	_ = m.Write(1, Artifact{Content: "a"})

	snap := m.Snapshot()
	snap[1] = Artifact{Content: "tampered"}

	got, _ := m.Get(1)
	if got.Content != "a" {
		t.Error("mutating the snapshot must not affect the memory")
	}
}
