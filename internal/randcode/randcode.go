// Package randcode generates short random tokens from crypto/rand.
package randcode

import (
	"crypto/rand"
	"math/big"
)

// CodeAlphabet omits easily confused characters (0/O, 1/I).
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const passwordAlphabet = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Code returns an n character code over CodeAlphabet. n <= 0 means 6.
func Code(n int) (string, error) {
	if n <= 0 {
		n = 6
	}
	return fromAlphabet(CodeAlphabet, n)
}

// Password returns an n character mixed-case password. n < 8 means 12.
func Password(n int) (string, error) {
	if n < 8 {
		n = 12
	}
	return fromAlphabet(passwordAlphabet, n)
}

func fromAlphabet(alphabet string, n int) (string, error) {
	b := make([]byte, n)
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b), nil
}
