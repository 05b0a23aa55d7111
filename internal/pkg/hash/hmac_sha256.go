// Package hash keys and compares secrets that must never be stored in plaintext.
package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Hash derives a digest of str and checks candidates against it.
type Hash interface {
	Hash(str string) string
	Verify(hashed, str string) bool
}

// HMACSHA256 hashes values with a server-side key.
type HMACSHA256 struct {
	secret []byte
}

func NewHMACSHA256(secret []byte) *HMACSHA256 {
	return &HMACSHA256{secret: secret}
}

// Hash returns the hex encoded HMAC of str.
func (s *HMACSHA256) Hash(str string) string {
	return string(s.sum(str))
}

// Verify reports whether str hashes to hashed, in constant time.
func (s *HMACSHA256) Verify(hashed, str string) bool {
	return subtle.ConstantTimeCompare([]byte(hashed), s.sum(str)) == 1
}

func (s *HMACSHA256) sum(str string) []byte {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(str))

	return []byte(hex.EncodeToString(h.Sum(nil)))
}
