package value

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainDocument separates document content hashes from any other hash
// computed over the same canonical bytes.
const DomainDocument = "fakedb/document/v1"

// Hash returns the hex SHA-256 of domain, a 0x00 separator and the canonical
// encoding of v.
func Hash(domain string, v Value) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", domain, err)
	}
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil)), nil
}
