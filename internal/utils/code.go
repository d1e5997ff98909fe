package utils // package utils provides random identifier helpers

import (
	"crypto/rand"
	"errors"
	"math/big"
)

// CodeAlphabet is the character set invite codes are drawn from.
const CodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomCode returns n characters drawn uniformly from CodeAlphabet using
// crypto/rand. rand.Int rejects out-of-range samples, so there is no
// modulo bias.
func RandomCode(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("code length must be positive")
	}
	max := big.NewInt(int64(len(CodeAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = CodeAlphabet[idx.Int64()]
	}
	return string(b), nil
}
