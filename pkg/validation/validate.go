package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Rules bounds user-supplied input. Configured once at startup.
type Rules struct {
	MaxBodyBytes  int
	MaxEmojiBytes int
}

var rules = Rules{MaxBodyBytes: 4 * 1024, MaxEmojiBytes: 32}

// SetRules installs the active validation rules. Zero fields keep their
// previous values.
func SetRules(r Rules) {
	if r.MaxBodyBytes > 0 {
		rules.MaxBodyBytes = r.MaxBodyBytes
	}
	if r.MaxEmojiBytes > 0 {
		rules.MaxEmojiBytes = r.MaxEmojiBytes
	}
}

var ErrEmptyID = errors.New("id is required")

// ValidateUserID checks an opaque external id. The separator bytes are
// reserved by the store key schema.
func ValidateUserID(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrEmptyID
	}
	if strings.ContainsAny(id, ":|") {
		return fmt.Errorf("id contains reserved characters: %q", id)
	}
	return nil
}

// ValidateBody rejects empty and oversized message bodies before anything is
// committed.
func ValidateBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return errors.New("body is required")
	}
	if len(body) > rules.MaxBodyBytes {
		return fmt.Errorf("body exceeds %d bytes", rules.MaxBodyBytes)
	}
	return nil
}

// ValidateEmoji rejects empty, oversized, or malformed reaction emoji. No
// emoji table is consulted; the contract is a short well-formed UTF-8 string
// free of the store's separator bytes.
func ValidateEmoji(emoji string) error {
	if emoji == "" {
		return errors.New("emoji is required")
	}
	if len(emoji) > rules.MaxEmojiBytes {
		return fmt.Errorf("emoji exceeds %d bytes", rules.MaxEmojiBytes)
	}
	if !utf8.ValidString(emoji) {
		return errors.New("emoji is not valid UTF-8")
	}
	if strings.ContainsAny(emoji, ":|") {
		return errors.New("emoji contains reserved characters")
	}
	return nil
}
