package user

import (
	"crypto/rand"
	"strings"

	"github.com/pkg/errors"
)

// Login codes are human-shareable identifiers handed out at registration,
// distinct from the numeric internal ID: a role-derived prefix followed by
// 6 random base36 uppercase characters, e.g. "TEAX4K9QZ".

const codeSuffixLen = 6

var codeAlphabet = []byte("0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ")

// CodePrefix derives the login code prefix from a role name: its first three
// letters, upper-cased.
func CodePrefix(role string) string {
	if len(role) < 3 {
		return strings.ToUpper(role)
	}
	return strings.ToUpper(role[:3])
}

func generateLoginCode(role string) (string, error) {
	suffix := make([]byte, codeSuffixLen)
	if _, err := rand.Read(suffix); err != nil {
		return "", errors.Wrap(err, "reading random bytes")
	}
	for i, b := range suffix {
		suffix[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return CodePrefix(role) + string(suffix), nil
}
