package ascii

import (
	"strings"
	"testing"
)

func TestBox(t *testing.T) {
	got := Box([]string{"Missing files for exports:", "  ./dist/index.js"})
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), got)
	}
	width := StringWidth(lines[0])
	for i, line := range lines {
		if StringWidth(line) != width {
			t.Errorf("line %d width = %d, want %d: %q", i, StringWidth(line), width, line)
		}
	}
	if !strings.HasPrefix(lines[0], "┌") || !strings.HasPrefix(lines[3], "└") {
		t.Errorf("unexpected borders:\n%s", got)
	}
}

func TestBox_Empty(t *testing.T) {
	if Box(nil) != "" {
		t.Error("Box(nil) should be empty")
	}
}

func TestBox_WideRunes(t *testing.T) {
	got := Box([]string{"插件", "ab"})
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	if StringWidth(lines[1]) != StringWidth(lines[2]) {
		t.Errorf("misaligned box:\n%s", got)
	}
}

func TestTable(t *testing.T) {
	got := Table(
		[]string{"UNIT", "RUNTIME", "SOURCE"},
		[][]string{
			{"admin", "web", "./admin/src/index.ts"},
			{"server", "node"},
		},
	)
	want := "UNIT    RUNTIME  SOURCE\n" +
		"──────  ───────  ────────────────────\n" +
		"admin   web      ./admin/src/index.ts\n" +
		"server  node\n"
	if got != want {
		t.Errorf("Table() =\n%s\nwant\n%s", got, want)
	}
}
