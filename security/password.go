package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argonSaltSize    = 16
	argonKeySize     = 32
	argonIterations  = 3
	argonMemoryKiB   = 64 * 1024
	argonParallelism = 1

	legacyBucketLength = 100
)

var (
	ErrEmptyPassword   = errors.New("password must not be empty")
	ErrPasswordTooLong = errors.New("password too long for legacy hash")
)

// HashPassword encodes an Argon2id hash as
// $argon2id$m=65536,t=3,p=1$<base64 salt>$<base64 hash>.
func HashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, argonSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argonIterations, argonMemoryKiB, argonParallelism, argonKeySize)

	return fmt.Sprintf("$argon2id$m=%d,t=%d,p=%d$%s$%s",
		argonMemoryKiB, argonIterations, argonParallelism,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(hash),
	), nil
}

// VerifyPassword checks a password against an encoded Argon2id hash using the
// parameters stored in the hash itself. Malformed input never matches.
func VerifyPassword(password, encoded string) bool {
	if strings.TrimSpace(password) == "" || strings.TrimSpace(encoded) == "" {
		return false
	}

	parts := strings.Split(strings.TrimPrefix(encoded, "$"), "$")
	if len(parts) != 4 || parts[0] != "argon2id" {
		return false
	}

	memory, iterations, parallelism, ok := parseArgonParams(parts[1])
	if !ok {
		return false
	}

	salt, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return false
	}
	expected, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil || len(expected) == 0 {
		return false
	}

	actual := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expected)))
	return subtle.ConstantTimeCompare(actual, expected) == 1
}

func parseArgonParams(s string) (memory, iterations uint32, parallelism uint8, ok bool) {
	for _, item := range strings.Split(s, ",") {
		key, value, found := strings.Cut(item, "=")
		if !found {
			return 0, 0, 0, false
		}
		switch key {
		case "m":
			v, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return 0, 0, 0, false
			}
			memory = uint32(v)
		case "t":
			v, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return 0, 0, 0, false
			}
			iterations = uint32(v)
		case "p":
			v, err := strconv.ParseUint(value, 10, 8)
			if err != nil {
				return 0, 0, 0, false
			}
			parallelism = uint8(v)
		default:
			return 0, 0, 0, false
		}
	}
	return memory, iterations, parallelism, memory > 0 && iterations > 0 && parallelism > 0
}

// NeedsRehash reports whether a stored hash predates Argon2id.
func NeedsRehash(encoded string) bool {
	return !strings.HasPrefix(encoded, "$argon2id$")
}

// LegacyHash reproduces the old digit-code scheme: every character takes the next free
// slot in 0..99 starting at its code point modulo 100, written as two digits. It has no
// cryptographic value and is only used to recognise accounts stored with it.
func LegacyHash(password string) (string, error) {
	if password == "" {
		return "", nil
	}

	var used [legacyBucketLength]bool
	var sb strings.Builder
	sb.Grow(len(password) * 2)

	for _, r := range password {
		h := int(r)
		if h < 0 {
			h = -h
		}
		h %= legacyBucketLength
		start := h

		for used[h] {
			h = (h + 1) % legacyBucketLength
			if h == start {
				return "", ErrPasswordTooLong
			}
		}

		used[h] = true
		fmt.Fprintf(&sb, "%02d", h)
	}

	return sb.String(), nil
}

// CheckPassword verifies either hash format.
func CheckPassword(password, encoded string) bool {
	if !NeedsRehash(encoded) {
		return VerifyPassword(password, encoded)
	}
	if encoded == "" {
		return false
	}
	legacy, err := LegacyHash(password)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(legacy), []byte(encoded)) == 1
}
