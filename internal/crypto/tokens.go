package crypto

import "encoding/hex"

// tokenBytes is the entropy of email/reset/session tokens.
const tokenBytes = 32

// RandomToken returns a 64-character hex token suitable for email
// verification links, password resets, and session IDs.
func RandomToken() (string, error) {
	b, err := RandBytes(tokenBytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
