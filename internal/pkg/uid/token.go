package uid

import (
	"crypto/rand"
	"encoding/hex"
)

// Token generates unguessable hex identifiers from crypto/rand.
type Token struct {
	size int
}

// NewToken returns a generator producing size random bytes per identifier.
func NewToken(size int) *Token {
	if size < 16 {
		size = 16
	}
	return &Token{size: size}
}

func (t *Token) Generate() string {
	// crypto/rand.Read never returns an error on supported platforms.
	b := make([]byte, t.size)
	_, _ = rand.Read(b)

	return hex.EncodeToString(b)
}
