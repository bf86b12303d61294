package knowledge

import (
	"strings"
	"testing"

	"github.com/interviewvault/vault/internal/chunk"
)

func TestEntries(t *testing.T) {
	entries := Entries()

	if len(entries) != 2 {
		t.Fatalf("Entries() returned %d entries, want 2", len(entries))
	}

	var kinds []chunk.Kind
	for _, e := range entries {
		kinds = append(kinds, e.Kind)
		if strings.TrimSpace(e.Body) == "" {
			t.Errorf("entry %q has empty body", e.Kind)
		}
		if !strings.Contains(e.Body, "##") {
			t.Errorf("entry %q has no subsection headers, chunking would produce one blob", e.Kind)
		}
	}
	if kinds[0] != chunk.KindProductInfo || kinds[1] != chunk.KindPolicy {
		t.Errorf("kinds = %v, want [product_info policy]", kinds)
	}
}

func TestEntriesChunkable(t *testing.T) {
	chunks := chunk.StaticKnowledge(Entries())

	if len(chunks) < 4 {
		t.Fatalf("StaticKnowledge(Entries()) = %d chunks, want at least 4", len(chunks))
	}

	var hasProduct, hasPolicy bool
	for _, c := range chunks {
		if strings.HasPrefix(c.Text, "PRODUCT INFO - ") && c.Kind == chunk.KindProductInfo {
			hasProduct = true
		}
		if strings.HasPrefix(c.Text, "POLICY - ") && c.Kind == chunk.KindPolicy {
			hasPolicy = true
		}
		if len(c.Text) > 900 { // prefix + capped content
			t.Errorf("chunk too long (%d chars): %q", len(c.Text), c.Text[:80])
		}
	}
	if !hasProduct || !hasPolicy {
		t.Errorf("chunks missing a kind: product=%v policy=%v", hasProduct, hasPolicy)
	}
}
