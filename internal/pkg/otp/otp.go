package otp

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

// ErrInvalidLength is returned when the configured code length is unusable.
var ErrInvalidLength = errors.New("otp: code length must be between 4 and 10")

// Generator is the contract for one-time code generation.
type Generator interface {
	// Generate returns a new code, or an error if the random source fails.
	Generate() (string, error)
}

// NumericCode generates fixed-length numeric codes using crypto/rand.
type NumericCode struct {
	length int
}

// NewNumericCode constructs a NumericCode generator.
//
// length is clamped to a sane range up front so misconfiguration surfaces at
// startup instead of at the first send.
func NewNumericCode(length int) (*NumericCode, error) {
	if length < 4 || length > 10 {
		return nil, ErrInvalidLength
	}
	return &NumericCode{length: length}, nil
}

// Generate returns a new fixed-length numeric code.
//
// Each digit is drawn independently and uniformly, so codes keep full
// entropy including leading zeros.
func (g *NumericCode) Generate() (string, error) {
	var sb strings.Builder
	sb.Grow(g.length)

	for i := 0; i < g.length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte('0' + n.Int64()))
	}

	return sb.String(), nil
}
