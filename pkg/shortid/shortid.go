// Package shortid converts between canonical UUID strings and the compact
// base64url tokens used in share URLs. The encoding is bijective over any
// 16-byte value; UUID version bits are not inspected.
package shortid

import (
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
)

// EncodedLen is the length of a short ID: 16 bytes base64url encoded, no padding.
const EncodedLen = 22

// ToShort encodes a canonical UUID string as a 22-character URL-safe token.
func ToShort(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("parse uuid: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(u[:]), nil
}

// FromShort decodes a short token back into a UUID. It fails on malformed
// base64url input or on inputs that do not decode to exactly 16 bytes.
func FromShort(short string) (uuid.UUID, error) {
	if len(short) != EncodedLen {
		return uuid.Nil, fmt.Errorf("short id must be %d characters, got %d", EncodedLen, len(short))
	}
	raw, err := base64.RawURLEncoding.DecodeString(short)
	if err != nil {
		return uuid.Nil, fmt.Errorf("decode short id: %w", err)
	}
	u, err := uuid.FromBytes(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("short id payload: %w", err)
	}
	return u, nil
}
