// Package cryptox provides password hashing for principal credentials.
package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters. Memory is in KiB.
const (
	memory      = 64 * 1024
	iterations  = 3
	parallelism = 2
	saltLength  = 16
	keyLength   = 32
)

var ErrPasswordMismatch = errors.New("cryptox: password does not match")

// HashPassword returns a PHC-format Argon2id hash string including salt and
// parameters.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, keyLength)

	return fmt.Sprintf(
		"$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memory,
		iterations,
		parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifyPassword compares a plaintext password against a PHC-style Argon2id
// hash using the parameters recorded in the hash itself.
func VerifyPassword(password, encodedHash string) error {
	var version int
	var mem, iters uint32
	var par uint8
	var b64Salt, b64Hash string

	_, err := fmt.Sscanf(
		encodedHash,
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s",
		&version, &mem, &iters, &par, &b64Salt,
	)
	if err != nil {
		return fmt.Errorf("cryptox: malformed hash: %w", err)
	}
	if version != argon2.Version {
		return errors.New("cryptox: unsupported argon2 version")
	}

	// Sscanf's %s is greedy, so salt and hash arrive joined by the separator.
	sep := len(b64Salt)
	for i, c := range b64Salt {
		if c == '$' {
			sep = i
			break
		}
	}
	if sep == len(b64Salt) {
		return errors.New("cryptox: malformed hash: missing digest")
	}
	b64Hash = b64Salt[sep+1:]
	b64Salt = b64Salt[:sep]

	salt, err := base64.RawStdEncoding.DecodeString(b64Salt)
	if err != nil {
		return fmt.Errorf("cryptox: malformed salt: %w", err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(b64Hash)
	if err != nil {
		return fmt.Errorf("cryptox: malformed digest: %w", err)
	}

	computed := argon2.IDKey([]byte(password), salt, iters, mem, par, uint32(len(expected)))
	if subtle.ConstantTimeCompare(computed, expected) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}
