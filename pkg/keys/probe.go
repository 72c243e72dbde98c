package keys

import (
	"crypto"
	_ "crypto/sha256" // registers crypto.SHA256
	_ "crypto/sha512" // registers crypto.SHA512
	"sync"

	"github.com/mesh-intelligence/entitykeys/pkg/types"
)

// Hash algorithms. Changing either changes every key already written.
const (
	// CompiledKeyHash digests HashGroup entries.
	CompiledKeyHash = crypto.SHA256
	// LegacyKeyHash digests HashKey values.
	LegacyKeyHash = crypto.SHA512
)

// Separators fed between consecutive values of a digest.
const (
	compiledHashSeparator = "\n"
	legacyHashSeparator   = ":"
)

var (
	probeOnce sync.Once
	probeErr  error
)

// CheckHashAvailable returns a *types.CapabilityUnavailableError if h is
// not linked into the binary.
func CheckHashAvailable(h crypto.Hash) error {
	if !h.Available() {
		return &types.CapabilityUnavailableError{Algorithm: h.String()}
	}
	return nil
}

// CheckCapabilities verifies, once per process, that every hash algorithm
// the package uses is available. Call it at startup; a non-nil result is
// fatal.
func CheckCapabilities() error {
	probeOnce.Do(func() {
		for _, h := range []crypto.Hash{CompiledKeyHash, LegacyKeyHash} {
			if err := CheckHashAvailable(h); err != nil {
				probeErr = err
				return
			}
		}
	})
	return probeErr
}
