// Package persist saves and loads public keys, secret keys, and
// signatures to and from disk using the wire package's bincode (keys)
// and SSZ (signatures) layouts, plus an advisory file lock guarding the
// one operation that mutates a secret key in place:
// advance_preparation. The lock/read/mutate/write cycle mirrors the
// fsContainer idiom of a file-backed XMSS^MT secret key: one lockfile
// per key file, held only for the duration of the mutation.
package persist

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nightlyone/lockfile"

	"github.com/aerius-labs/hash-sig-go/wire"
	"github.com/aerius-labs/hash-sig-go/xmss"
)

// SavePublicKey writes pk in bincode form to path.
func SavePublicKey(path string, pk *xmss.PublicKey) error {
	return os.WriteFile(path, wire.MarshalPublicKeyBincode(pk), 0o644)
}

// LoadPublicKey reads a bincode-serialized public key from path.
func LoadPublicKey(scheme *xmss.GeneralizedXMSS, path string) (*xmss.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("persist: reading %s: %w", path, err)
	}
	return wire.UnmarshalPublicKeyBincode(scheme, data)
}

// SaveSecretKey writes sk in bincode form to path. Permissions are
// restricted to the owner, since the file carries the PRF key.
func SaveSecretKey(path string, sk *xmss.SecretKey) error {
	return os.WriteFile(path, wire.MarshalSecretKeyBincode(sk), 0o600)
}

// LoadSecretKey reads a bincode-serialized secret key from path.
func LoadSecretKey(scheme *xmss.GeneralizedXMSS, path string) (*xmss.SecretKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("persist: reading %s: %w", path, err)
	}
	return wire.UnmarshalSecretKeyBincode(scheme, data)
}

// SaveSignature writes sig in SSZ form to path, zero-padded to
// paddedLen (pass 0 to leave it at its natural length).
func SaveSignature(path string, scheme *xmss.GeneralizedXMSS, sig *xmss.Signature, paddedLen int) error {
	data, err := wire.MarshalSignatureSSZ(scheme, sig, paddedLen)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadSignature reads an SSZ-serialized signature from path.
func LoadSignature(scheme *xmss.GeneralizedXMSS, path string) (*xmss.Signature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("persist: reading %s: %w", path, err)
	}
	return wire.UnmarshalSignatureSSZ(scheme, data)
}

// AdvancePreparationLocked advances the prepared window of the secret
// key stored at path, under an advisory lock on path+".lock" so two
// processes never race on a read-advance-write cycle against the same
// file. A no-op call (already at the end of the activation window) is
// still serialized through the lock.
func AdvancePreparationLocked(scheme *xmss.GeneralizedXMSS, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("persist: resolving absolute path for %s: %w", path, err)
	}

	lock, err := lockfile.New(absPath + ".lock")
	if err != nil {
		return fmt.Errorf("persist: creating lockfile for %s: %w", path, err)
	}
	if err := lock.TryLock(); err != nil {
		return fmt.Errorf("persist: %s is locked by another process: %w", path, err)
	}
	defer lock.Unlock()

	sk, err := LoadSecretKey(scheme, absPath)
	if err != nil {
		return fmt.Errorf("persist: loading secret key before advancing: %w", err)
	}

	scheme.AdvancePreparation(sk)

	if err := SaveSecretKey(absPath, sk); err != nil {
		return fmt.Errorf("persist: saving advanced secret key: %w", err)
	}
	return nil
}
