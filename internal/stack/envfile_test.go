package stack

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestParseEnvBasic(t *testing.T) {
	vars := ParseEnv([]byte("FOO=bar\nBAZ=qux"))
	want := []EnvVar{{Name: "FOO", Value: "bar"}, {Name: "BAZ", Value: "qux"}}
	if !reflect.DeepEqual(vars, want) {
		t.Fatalf("expected %v, got %v", want, vars)
	}
}

func TestParseEnvSkipsCommentsAndBlanks(t *testing.T) {
	vars := ParseEnv([]byte("# comment\nFOO=bar\n\n  # another\nBAZ=qux\n"))
	if len(vars) != 2 {
		t.Fatalf("expected 2 vars, got %v", vars)
	}
}

func TestParseEnvKeepsEqualsInValue(t *testing.T) {
	vars := ParseEnv([]byte("URL=https://example.com?foo=bar"))
	if len(vars) != 1 || vars[0].Value != "https://example.com?foo=bar" {
		t.Fatalf("unexpected parse: %v", vars)
	}
}

func TestParseEnvEmpty(t *testing.T) {
	if vars := ParseEnv(nil); len(vars) != 0 {
		t.Fatalf("expected no vars, got %v", vars)
	}
}

func TestEnvFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	vars := []EnvVar{
		{Name: "FOO", Value: "bar"},
		{Name: "BAZ", Value: "qux=123"},
	}
	if err := WriteEnvFile(path, vars); err != nil {
		t.Fatalf("WriteEnvFile: %v", err)
	}
	parsed, err := ReadEnvFile(path)
	if err != nil {
		t.Fatalf("ReadEnvFile: %v", err)
	}
	if !reflect.DeepEqual(parsed, vars) {
		t.Fatalf("round trip mismatch: %v vs %v", parsed, vars)
	}
}
