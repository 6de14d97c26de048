package buildinfo

import (
	"testing"
)

func TestBinaryVersion(t *testing.T) {
	if BinaryVersion != "dev" {
		t.Errorf("Expected BinaryVersion to be 'dev', got '%s'", BinaryVersion)
	}
}

func TestRead(t *testing.T) {
	info := Read()
	if info.Version == "" {
		t.Error("Read().Version should never be empty")
	}
	if info.GoVersion == "" {
		t.Log("build info not available in this test binary")
	}
}

func TestRead_LdflagsWins(t *testing.T) {
	old := BinaryVersion
	BinaryVersion = "v1.2.3"
	defer func() { BinaryVersion = old }()

	if got := Read().Version; got != "v1.2.3" {
		t.Errorf("Read().Version = %q, want v1.2.3", got)
	}
}
