package internal

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// FastHash is a high-performance non-cryptographic hash. It is used to derive
// short checksums for catalog entries so log lines and error messages can
// reference a game configuration without dumping the whole descriptor.
func FastHash(text string) string {
	h := xxhash.Sum64String(text)
	return strconv.FormatUint(h, 16)
}
