package persist

import (
	"path/filepath"
	"testing"

	"github.com/aerius-labs/hash-sig-go/wire"
	"github.com/aerius-labs/hash-sig-go/xmss"
)

func seedFor(b byte) []byte {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = b
	}
	return seed
}

func TestSaveLoadPublicKey(t *testing.T) {
	scheme := xmss.NewPoseidonLifetime8()
	pk, _, err := scheme.KeyGen(seedFor(1), 0, int(scheme.Lifetime()))
	if err != nil {
		t.Fatalf("KeyGen failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "pk.bin")
	if err := SavePublicKey(path, pk); err != nil {
		t.Fatalf("SavePublicKey failed: %v", err)
	}

	got, err := LoadPublicKey(scheme, path)
	if err != nil {
		t.Fatalf("LoadPublicKey failed: %v", err)
	}
	if string(got.Root) != string(pk.Root) || string(got.Parameter) != string(pk.Parameter) {
		t.Fatal("loaded public key does not match the saved one")
	}
}

func TestSaveLoadSecretKeyAndSign(t *testing.T) {
	scheme := xmss.NewPoseidonLifetime8()
	pk, sk, err := scheme.KeyGen(seedFor(2), 0, int(scheme.Lifetime()))
	if err != nil {
		t.Fatalf("KeyGen failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "sk.bin")
	if err := SaveSecretKey(path, sk); err != nil {
		t.Fatalf("SaveSecretKey failed: %v", err)
	}

	got, err := LoadSecretKey(scheme, path)
	if err != nil {
		t.Fatalf("LoadSecretKey failed: %v", err)
	}

	message := []byte("persisted key round trip")
	sig, err := scheme.Sign(got, 0, message)
	if err != nil {
		t.Fatalf("Sign with loaded secret key failed: %v", err)
	}
	if err := scheme.Verify(pk, 0, message, sig); err != nil {
		t.Fatalf("Verify failed for signature from loaded secret key: %v", err)
	}
}

func TestSaveLoadSignature(t *testing.T) {
	scheme := xmss.NewPoseidonLifetime8()
	pk, sk, err := scheme.KeyGen(seedFor(3), 0, int(scheme.Lifetime()))
	if err != nil {
		t.Fatalf("KeyGen failed: %v", err)
	}

	message := []byte("hello world")
	sig, err := scheme.Sign(sk, 0, message)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "sig.bin")
	if err := SaveSignature(path, scheme, sig, wire.SignatureSSZLenLifetime8); err != nil {
		t.Fatalf("SaveSignature failed: %v", err)
	}

	got, err := LoadSignature(scheme, path)
	if err != nil {
		t.Fatalf("LoadSignature failed: %v", err)
	}
	if err := scheme.Verify(pk, 0, message, got); err != nil {
		t.Fatalf("Verify failed for loaded signature: %v", err)
	}
}

func TestAdvancePreparationLockedPersistsTheSlide(t *testing.T) {
	scheme := xmss.NewPoseidonLifetime8()
	_, sk, err := scheme.KeyGen(seedFor(4), 0, int(scheme.Lifetime()))
	if err != nil {
		t.Fatalf("KeyGen failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "sk.bin")
	if err := SaveSecretKey(path, sk); err != nil {
		t.Fatalf("SaveSecretKey failed: %v", err)
	}

	wantIndex := sk.LeftBottomTreeIndex() + 1
	if err := AdvancePreparationLocked(scheme, path); err != nil {
		t.Fatalf("AdvancePreparationLocked failed: %v", err)
	}

	got, err := LoadSecretKey(scheme, path)
	if err != nil {
		t.Fatalf("LoadSecretKey after advancing failed: %v", err)
	}
	if got.LeftBottomTreeIndex() != wantIndex {
		t.Fatalf("left bottom tree index after advancing = %d, want %d", got.LeftBottomTreeIndex(), wantIndex)
	}
}

