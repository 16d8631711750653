package bookingref

import (
	"crypto/rand"
	"strings"
)

const (
	prefix   = "SQ-"
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLen  = 8
)

// New returns a booking reference like "SQ-7K2M9QXZ". References are what
// clients quote at the counter, so they stay short and uppercase.
func New() (string, error) {
	buf := make([]byte, codeLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.Grow(len(prefix) + codeLen)
	sb.WriteString(prefix)
	for _, b := range buf {
		sb.WriteByte(alphabet[int(b)%len(alphabet)])
	}
	return sb.String(), nil
}

func IsValid(ref string) bool {
	if !strings.HasPrefix(ref, prefix) || len(ref) != len(prefix)+codeLen {
		return false
	}
	for _, r := range ref[len(prefix):] {
		if !strings.ContainsRune(alphabet, r) {
			return false
		}
	}
	return true
}
