// Package otp issues short numeric one-time codes.
package otp

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

// Generator issues one-time codes.
type Generator interface {
	GenerateCode() (string, error)
	Digits() int
}

// HOTP derives every code from a fresh random key and counter, so consecutive
// codes are unrelated.
type HOTP struct {
	issuer string
	digits otp.Digits
}

// NewHOTP builds a generator. Digit counts other than 6 or 8 fall back to 6.
func NewHOTP(issuer string, digits int) *HOTP {
	d := otp.Digits(digits)
	if d != otp.DigitsSix && d != otp.DigitsEight {
		d = otp.DigitsSix
	}

	return &HOTP{issuer: issuer, digits: d}
}

func (h *HOTP) GenerateCode() (string, error) {
	key, err := hotp.Generate(hotp.GenerateOpts{
		Issuer:      h.issuer,
		AccountName: "session",
		SecretSize:  20,
		Digits:      h.digits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", err
	}

	var counter [8]byte
	if _, err := rand.Read(counter[:]); err != nil {
		return "", err
	}

	return hotp.GenerateCodeCustom(key.Secret(), binary.BigEndian.Uint64(counter[:]), hotp.ValidateOpts{
		Digits:    h.digits,
		Algorithm: otp.AlgorithmSHA1,
	})
}

// Digits reports the length of issued codes.
func (h *HOTP) Digits() int {
	return h.digits.Length()
}
