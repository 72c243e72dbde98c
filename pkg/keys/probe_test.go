package keys

import (
	"crypto"
	"errors"
	"testing"

	"github.com/mesh-intelligence/entitykeys/pkg/types"
)

func TestCheckCapabilities(t *testing.T) {
	if err := CheckCapabilities(); err != nil {
		t.Fatalf("CheckCapabilities: %v", err)
	}
	// The result is cached.
	if err := CheckCapabilities(); err != nil {
		t.Fatalf("second CheckCapabilities: %v", err)
	}
}

func TestCheckHashAvailable(t *testing.T) {
	tests := []struct {
		name string
		hash crypto.Hash
		ok   bool
	}{
		{"sha256", crypto.SHA256, true},
		{"sha512", crypto.SHA512, true},
		{"md4 not linked", crypto.MD4, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckHashAvailable(tt.hash)
			if tt.ok {
				if err != nil {
					t.Errorf("CheckHashAvailable: %v", err)
				}
				return
			}
			var cue *types.CapabilityUnavailableError
			if !errors.As(err, &cue) {
				t.Fatalf("CheckHashAvailable error = %v, want *types.CapabilityUnavailableError", err)
			}
			if cue.Algorithm != tt.hash.String() {
				t.Errorf("Algorithm = %q, want %q", cue.Algorithm, tt.hash.String())
			}
		})
	}
}
