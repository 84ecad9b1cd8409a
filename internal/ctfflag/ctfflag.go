// Package ctfflag checks flag format and derives the keyed hash stored in place
// of the plaintext flag.
package ctfflag

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// ErrEmptySecret is returned when the secret file holds only whitespace.
var ErrEmptySecret = errors.New("secret is empty")

// Validator matches PREFIX{<one or more characters>} anywhere in a string.
type Validator struct {
	prefix string
	re     *regexp.Regexp
}

// NewValidator compiles the flag pattern for the given namespace tag. The tag
// is matched literally and case-sensitively.
func NewValidator(prefix string) (*Validator, error) {
	if prefix == "" {
		return nil, errors.New("flag prefix cannot be empty")
	}
	re, err := regexp.Compile(regexp.QuoteMeta(prefix) + `\{.+\}`)
	if err != nil {
		return nil, fmt.Errorf("failed to compile flag pattern: %w", err)
	}
	return &Validator{prefix: prefix, re: re}, nil
}

// Validate reports whether flag contains a well-formed flag.
func (v *Validator) Validate(flag string) bool {
	return v.re.MatchString(flag)
}

// Pattern returns the pattern shown to operators, e.g. FRIGIDSEC-DPC\{.+\}.
func (v *Validator) Pattern() string {
	return v.prefix + `\{.+\}`
}

// Example returns a sample flag in the expected format.
func (v *Validator) Example() string {
	return v.prefix + "{s0m3_fl4g}"
}

// Hasher computes HMAC-SHA256 digests keyed by the process secret.
type Hasher struct {
	key []byte
}

func NewHasher(secret []byte) (*Hasher, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &Hasher{key: key}, nil
}

// Hash returns the lowercase hex digest of flag. Every call builds its own
// HMAC state.
func (h *Hasher) Hash(flag string) string {
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(flag))
	return hex.EncodeToString(mac.Sum(nil))
}

// LoadSecret reads the secret file and trims surrounding whitespace.
func LoadSecret(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret file: %w", err)
	}
	secret := strings.TrimSpace(string(data))
	if secret == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptySecret)
	}
	return []byte(secret), nil
}
