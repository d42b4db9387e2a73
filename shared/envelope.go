package shared

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// EnvelopeDelimiter separates the IV from the cipher text in a stored
// message body. Both halves are base64, so the delimiter can never occur
// inside them.
const EnvelopeDelimiter = "|"

// DecryptPlaceholder is what the rendering layer shows for a message that
// fails authentication. The crypto layer returns a typed error; only the
// UI boundary substitutes this string.
const DecryptPlaceholder = "[encrypted message]"

var ErrMalformedEnvelope = errors.New("malformed encrypted envelope")

// EncodeEnvelope packs a base64 IV and base64 cipher text into the single
// content field stored and relayed for an encrypted message.
func EncodeEnvelope(iv, cipherText string) string {
	return iv + EnvelopeDelimiter + cipherText
}

// DecodeEnvelope splits a stored content field back into IV and cipher
// text. Both halves must be non-empty valid base64.
func DecodeEnvelope(content string) (iv, cipherText string, err error) {
	parts := strings.SplitN(content, EnvelopeDelimiter, 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", ErrMalformedEnvelope
	}
	if _, err := base64.StdEncoding.DecodeString(parts[0]); err != nil {
		return "", "", fmt.Errorf("%w: bad iv: %v", ErrMalformedEnvelope, err)
	}
	if _, err := base64.StdEncoding.DecodeString(parts[1]); err != nil {
		return "", "", fmt.Errorf("%w: bad cipher text: %v", ErrMalformedEnvelope, err)
	}
	return parts[0], parts[1], nil
}
