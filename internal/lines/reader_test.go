package lines_test

import (
	"strings"
	"testing"

	"rankforge/internal/lines"
)

func TestLoadSkipsMalformedRows(t *testing.T) {
	input := strings.Join([]string{
		`{"time":"2024-01-01T00:00:00Z","log":"L 01/01/2024 - 00:00:00: World triggered \"Round_Start\""}`,
		`not json at all`,
		`{"time":"2024-01-01T00:00:01Z","log":"L 01/01/2024 - 00:00:01: World triggered \"Round_End\""}`,
		``,
	}, "\n")

	r, err := lines.Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Len() != 2 {
		t.Fatalf("expected 2 decoded records, got %d", r.Len())
	}
}

func TestBodyStripsLogPrefix(t *testing.T) {
	input := `{"time":"2024-01-01T00:00:00Z","log":"L 01/01/2024 - 00:00:00: World triggered \"Round_Start\""}`
	r, err := lines.Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := r.Body(0)
	want := `World triggered "Round_Start"`
	if got != want {
		t.Fatalf("Body() = %q, want %q", got, want)
	}
}

func TestBodyLeavesUnprefixedLineUnchanged(t *testing.T) {
	input := `{"time":"2024-01-01T00:00:00Z","log":"World triggered \"Round_Start\""}`
	r, err := lines.Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := r.Body(0)
	want := `World triggered "Round_Start"`
	if got != want {
		t.Fatalf("Body() = %q, want %q", got, want)
	}
}
