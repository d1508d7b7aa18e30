package utils

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
}

func TestTruncate_multiByte(t *testing.T) {
	got := Truncate("café crème", 4)
	if got != "café..." {
		t.Errorf("got %q", got)
	}
	if Truncate("日本語", 3) != "日本語" {
		t.Error("exact rune length should be unchanged")
	}
}
