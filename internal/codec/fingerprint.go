package codec

import (
	"crypto/sha256"
	"encoding/hex"
)

// DomainSnapshot prefixes snapshot fingerprints. The version suffix leaves
// room for a future algorithm.
const DomainSnapshot = "dupe/snapshot/v0"

// Fingerprint returns the content address of an encoded snapshot:
// SHA256(domain + 0x00 + data), hex encoded. The null separator keeps the
// domain/data boundary unambiguous.
func Fingerprint(data []byte) string {
	h := sha256.New()
	h.Write([]byte(DomainSnapshot))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
