package chunker

import (
	"strings"
	"testing"

	"distiller/internal/types"
)

// =============================================================================
// SPLITTER TESTS
// =============================================================================

func TestSplit_ParagraphBoundaries(t *testing.T) {
	doc := types.Document{
		Name: "report.txt",
		Text: "The agency operates a large enterprise network with many field offices.\n" +
			"\n" +
			"A second paragraph describes the modernization effort now underway there.\n",
	}

	chunks := Split(doc)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].DocumentID != "report.txt" {
		t.Errorf("expected DocumentID=report.txt, got %s", chunks[0].DocumentID)
	}
	if chunks[0].ByteOffset != 0 {
		t.Errorf("expected first chunk at offset 0, got %d", chunks[0].ByteOffset)
	}
	if !strings.HasPrefix(doc.Text[chunks[1].ByteOffset:], "A second paragraph") {
		t.Errorf("second chunk offset %d does not point at paragraph start", chunks[1].ByteOffset)
	}
}

func TestSplit_CarriesPageAndHeading(t *testing.T) {
	doc := types.Document{
		Name: "audit.txt",
		Text: "Page 4\n" +
			"Security Program Findings\n" +
			"The audit identified several weaknesses in the access control program.\n",
	}

	chunks := Split(doc)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Page != 4 {
		t.Errorf("expected page 4, got %d", chunks[0].Page)
	}
	if chunks[0].Heading != "Security Program Findings" {
		t.Errorf("expected heading carried forward, got %q", chunks[0].Heading)
	}
}

func TestSplit_DropsTinyFragments(t *testing.T) {
	doc := types.Document{
		Name: "short.txt",
		Text: "Too short.\n\nThis paragraph is comfortably long enough to survive the minimum length check.\n",
	}

	chunks := Split(doc)
	if len(chunks) != 1 {
		t.Fatalf("expected tiny fragment dropped, got %d chunks", len(chunks))
	}
}

func TestIsHeadingLine(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"EXECUTIVE SUMMARY", true},
		{"1.2 Budget Overview", true},
		{"Modernization Priorities", true},
		{"Élan Modernization Program", true},
		{"The agency continued its work.", false},
		{"Introduction ........ 1", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isHeadingLine(tt.line); got != tt.want {
			t.Errorf("isHeadingLine(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}
