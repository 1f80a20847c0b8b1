package random

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// alphabet is the 62-symbol set short codes are drawn from.
const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Generator produces candidate short codes. The allocation loop in the
// service layer depends on this interface so tests can force collisions
// with a deterministic sequence.
type Generator interface {
	Generate() (string, error)
}

// CodeGenerator samples fixed-length alphanumeric codes uniformly at random.
type CodeGenerator struct {
	length int
}

// NewCodeGenerator creates a generator for codes of the given length.
func NewCodeGenerator(length int) *CodeGenerator {
	return &CodeGenerator{length: length}
}

// Generate returns one candidate code.
func (g *CodeGenerator) Generate() (string, error) {
	return NewRandomString(g.length)
}

// NewRandomString returns a random alphanumeric string of the given length.
func NewRandomString(length int) (string, error) {
	buf := make([]byte, length)
	max := big.NewInt(int64(len(alphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random source: %w", err)
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf), nil
}
