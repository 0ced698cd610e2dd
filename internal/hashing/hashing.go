// Package hashing computes content fingerprints for submitted files.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
)

// CodeHash returns the lowercase hex SHA-256 digest of the raw file bytes.
// The digest is taken over the content exactly as submitted, with no
// whitespace or line-ending normalization, so the fingerprint is stable
// across deployments and independent of the file name.
func CodeHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
