// Package subscriberid generates the 40-hex-character identifiers that
// name one pub/sub consumer for the lifetime of its handle, per
// spec.md §4.8. Grounded directly on pubsub.c's generate_subscriptor_id:
// a millisecond timestamp concatenated with a random integer, hashed
// with SHA-1 and hex-encoded — reproduced here with crypto/rand instead
// of libc rand() for the random half, since spec.md §9 flags the
// original's randomness source as weak and recommends a stronger one.
package subscriberid

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"math/big"
)

// Length is the number of hex characters in a generated id.
const Length = 40

var maxRand = big.NewInt(1 << 62)

// Generate produces one 40-hex-character identifier. nowMillis is the
// caller-supplied millisecond clock reading, threaded in rather than
// read internally so generation stays deterministic under test.
func Generate(nowMillis int64) (string, error) {
	n, err := rand.Int(rand.Reader, maxRand)
	if err != nil {
		return "", fmt.Errorf("subscriberid: reading random source: %w", err)
	}
	seed := fmt.Sprintf("%d%d", nowMillis, n.Int64())
	sum := sha1.Sum([]byte(seed))
	return hex.EncodeToString(sum[:]), nil
}

// GenerateUnique retries Generate until exists reports false for the
// candidate, addressing spec.md §9's acknowledged collision risk.
func GenerateUnique(nowMillis int64, exists func(id string) (bool, error)) (string, error) {
	for {
		id, err := Generate(nowMillis)
		if err != nil {
			return "", err
		}
		taken, err := exists(id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}
	}
}
