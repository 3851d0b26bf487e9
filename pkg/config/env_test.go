package config

import "testing"

func TestGetEnvDefault(t *testing.T) {
	if got := GetEnv("SENTINEL_TEST_UNSET", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv("SENTINEL_TEST_SET", "value")
	if got := GetEnv("SENTINEL_TEST_SET", "fallback"); got != "value" {
		t.Fatalf("expected value, got %q", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("SENTINEL_TEST_INT", "42")
	if got := GetEnvInt("SENTINEL_TEST_INT", 7); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	t.Setenv("SENTINEL_TEST_INT", "not-a-number")
	if got := GetEnvInt("SENTINEL_TEST_INT", 7); got != 7 {
		t.Fatalf("expected default 7, got %d", got)
	}
}

func TestGetEnvSlice(t *testing.T) {
	t.Setenv("SENTINEL_TEST_SLICE", "a, b ,c,")
	got := GetEnvSlice("SENTINEL_TEST_SLICE", nil)
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("unexpected slice: %v", got)
	}
	if got := GetEnvSlice("SENTINEL_TEST_SLICE_UNSET", []string{"x"}); len(got) != 1 || got[0] != "x" {
		t.Fatalf("expected default slice, got %v", got)
	}
}
