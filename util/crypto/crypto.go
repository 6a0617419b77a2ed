// Package crypto provides password hashing and verification.
package crypto

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"hash"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

// HashPasswordAsBcrypt generates a bcrypt hash of the given password.
func HashPasswordAsBcrypt(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

// CheckPasswordHash verifies if the given password matches the bcrypt hash.
func CheckPasswordHash(hash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// IsBcryptHash reports whether stored looks like a bcrypt hash rather than a
// legacy plaintext password.
func IsBcryptHash(stored string) bool {
	_, err := bcrypt.Cost([]byte(stored))
	return err == nil
}

// IsLegacyHash reports whether stored is in the "method$salt$hex" format
// written by werkzeug's generate_password_hash.
func IsLegacyHash(stored string) bool {
	return strings.HasPrefix(stored, "pbkdf2:") || strings.HasPrefix(stored, "scrypt:")
}

// CheckLegacyHash verifies password against a werkzeug pbkdf2 or scrypt hash.
// Hashes with unknown parameters never match.
func CheckLegacyHash(stored, password string) bool {
	parts := strings.Split(stored, "$")
	if len(parts) != 3 {
		return false
	}
	method, salt := parts[0], parts[1]
	want, err := hex.DecodeString(parts[2])
	if err != nil || len(want) == 0 {
		return false
	}

	var got []byte
	args := strings.Split(method, ":")
	switch args[0] {
	case "pbkdf2":
		// the iteration count default changed between werkzeug releases, so it must be explicit
		if len(args) != 3 {
			return false
		}
		h := hashByName(args[1])
		iter, err := strconv.Atoi(args[2])
		if h == nil || err != nil || iter <= 0 {
			return false
		}
		got = pbkdf2.Key([]byte(password), []byte(salt), iter, len(want), h)
	case "scrypt":
		n, r, p := 32768, 8, 1
		if len(args) == 4 {
			var errs [3]error
			n, errs[0] = strconv.Atoi(args[1])
			r, errs[1] = strconv.Atoi(args[2])
			p, errs[2] = strconv.Atoi(args[3])
			if errs[0] != nil || errs[1] != nil || errs[2] != nil {
				return false
			}
		} else if len(args) != 1 {
			return false
		}
		got, err = scrypt.Key([]byte(password), []byte(salt), n, r, p, len(want))
		if err != nil {
			return false
		}
	default:
		return false
	}
	return subtle.ConstantTimeCompare(got, want) == 1
}

func hashByName(name string) func() hash.Hash {
	switch name {
	case "sha1":
		return sha1.New
	case "sha256":
		return sha256.New
	case "sha512":
		return sha512.New
	}
	return nil
}
