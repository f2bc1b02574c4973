package validation

import (
	"strings"
	"testing"
)

func TestValidateUserID(t *testing.T) {
	for _, id := range []string{"alice", "user-123", "u_9"} {
		if err := ValidateUserID(id); err != nil {
			t.Fatalf("id %q rejected: %v", id, err)
		}
	}
	for _, id := range []string{"", "  ", "a:b", "a|b"} {
		if err := ValidateUserID(id); err == nil {
			t.Fatalf("id %q accepted", id)
		}
	}
}

func TestValidateBodyBounds(t *testing.T) {
	SetRules(Rules{MaxBodyBytes: 16})
	defer SetRules(Rules{MaxBodyBytes: 4 * 1024})

	if err := ValidateBody("hello"); err != nil {
		t.Fatalf("small body rejected: %v", err)
	}
	if err := ValidateBody(""); err == nil {
		t.Fatalf("empty body accepted")
	}
	if err := ValidateBody("   "); err == nil {
		t.Fatalf("whitespace body accepted")
	}
	if err := ValidateBody(strings.Repeat("x", 17)); err == nil {
		t.Fatalf("oversized body accepted")
	}
}

func TestValidateEmoji(t *testing.T) {
	for _, e := range []string{"👍", "❤️", "🎉"} {
		if err := ValidateEmoji(e); err != nil {
			t.Fatalf("emoji %q rejected: %v", e, err)
		}
	}
	if err := ValidateEmoji(""); err == nil {
		t.Fatalf("empty emoji accepted")
	}
	if err := ValidateEmoji(string([]byte{0xff, 0xfe})); err == nil {
		t.Fatalf("invalid UTF-8 accepted")
	}
	if err := ValidateEmoji("a:b"); err == nil {
		t.Fatalf("separator emoji accepted")
	}
	if err := ValidateEmoji(strings.Repeat("👍", 20)); err == nil {
		t.Fatalf("oversized emoji accepted")
	}
}
