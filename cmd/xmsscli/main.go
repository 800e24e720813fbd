// Command xmsscli is a thin demonstration binary around the keygen,
// sign, and verify operations: a working reference for the external
// interface contract, not a hardened key-management tool. It reads and
// writes a conventional tmp/ directory (pk.bin, sk.bin, sig.bin).
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hashicorp/go-multierror"

	"github.com/aerius-labs/hash-sig-go/persist"
	"github.com/aerius-labs/hash-sig-go/wire"
	"github.com/aerius-labs/hash-sig-go/xmss"
)

const defaultTmpDir = "tmp"

func schemeForLifetime(logLifetime int) (*xmss.GeneralizedXMSS, error) {
	switch logLifetime {
	case 8:
		return xmss.NewPoseidonLifetime8(), nil
	case 18:
		return xmss.NewPoseidonLifetime18(), nil
	case 32:
		return xmss.NewPoseidonLifetime32(), nil
	default:
		return nil, fmt.Errorf("unsupported lifetime 2^%d, want one of 8, 18, 32", logLifetime)
	}
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: xmsscli <keygen|sign|verify> ...")
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "keygen":
		err = cmdKeyGen(os.Args[2:])
	case "sign":
		err = cmdSign(os.Args[2:])
	case "verify":
		err = cmdVerify(os.Args[2:])
	default:
		err = fmt.Errorf("unknown command %q", os.Args[1])
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "xmsscli:", err)
		os.Exit(1)
	}
}

// cmdKeyGen implements `keygen <seed_hex>`: writes tmp/pk.bin and
// tmp/sk.bin.
func cmdKeyGen(args []string) error {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	lifetime := fs.Int("lifetime", 8, "log2 of the key's lifetime (8, 18, or 32)")
	activationEpoch := fs.Int("activation-epoch", 0, "first active epoch")
	numActiveEpochs := fs.Int("num-active-epochs", 0, "number of active epochs (0 = full lifetime)")
	tmpDir := fs.String("tmp", defaultTmpDir, "directory to write pk.bin/sk.bin into")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("keygen requires exactly one argument, the seed as hex")
	}

	var errs *multierror.Error

	seed, hexErr := hex.DecodeString(fs.Arg(0))
	if hexErr != nil {
		errs = multierror.Append(errs, fmt.Errorf("seed is not valid hex: %w", hexErr))
	}
	scheme, schemeErr := schemeForLifetime(*lifetime)
	if schemeErr != nil {
		errs = multierror.Append(errs, schemeErr)
	}
	if errs.ErrorOrNil() != nil {
		return errs
	}

	n := *numActiveEpochs
	if n == 0 {
		n = int(scheme.Lifetime())
	}

	pk, sk, err := scheme.KeyGen(seed, *activationEpoch, n)
	if err != nil {
		return fmt.Errorf("keygen: %w", err)
	}

	if err := os.MkdirAll(*tmpDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", *tmpDir, err)
	}
	pkPath := filepath.Join(*tmpDir, "pk.bin")
	skPath := filepath.Join(*tmpDir, "sk.bin")
	if err := persist.SavePublicKey(pkPath, pk); err != nil {
		return fmt.Errorf("saving public key: %w", err)
	}
	if err := persist.SaveSecretKey(skPath, sk); err != nil {
		return fmt.Errorf("saving secret key: %w", err)
	}

	fmt.Printf("wrote %s and %s\n", pkPath, skPath)
	return nil
}

// cmdSign implements `sign <message> <epoch>`: advances the on-disk
// secret key's prepared window (idempotent once the window can't slide
// further), signs, and writes tmp/sig.bin.
func cmdSign(args []string) error {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	lifetime := fs.Int("lifetime", 8, "log2 of the key's lifetime (8, 18, or 32)")
	tmpDir := fs.String("tmp", defaultTmpDir, "directory holding sk.bin, written to for sig.bin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("sign requires exactly two arguments: message and epoch")
	}

	var errs *multierror.Error

	message := []byte(fs.Arg(0))
	epoch, epochErr := strconv.ParseUint(fs.Arg(1), 10, 32)
	if epochErr != nil {
		errs = multierror.Append(errs, fmt.Errorf("epoch is not a valid integer: %w", epochErr))
	}
	scheme, schemeErr := schemeForLifetime(*lifetime)
	if schemeErr != nil {
		errs = multierror.Append(errs, schemeErr)
	}
	if errs.ErrorOrNil() != nil {
		return errs
	}

	skPath := filepath.Join(*tmpDir, "sk.bin")
	if err := persist.AdvancePreparationLocked(scheme, skPath); err != nil {
		return fmt.Errorf("advancing prepared window: %w", err)
	}
	sk, err := persist.LoadSecretKey(scheme, skPath)
	if err != nil {
		return fmt.Errorf("loading secret key: %w", err)
	}

	sig, err := scheme.Sign(sk, uint32(epoch), message)
	if err != nil {
		return fmt.Errorf("sign: %w", err)
	}

	paddedLen := 0
	if *lifetime == 8 {
		paddedLen = wire.SignatureSSZLenLifetime8
	}
	sigPath := filepath.Join(*tmpDir, "sig.bin")
	if err := persist.SaveSignature(sigPath, scheme, sig, paddedLen); err != nil {
		return fmt.Errorf("saving signature: %w", err)
	}

	fmt.Println("wrote", sigPath)
	return nil
}

// cmdVerify implements `verify <sig_path> <pk_path> <message>
// <epoch>`: exits non-zero on an invalid signature or malformed input.
func cmdVerify(args []string) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	lifetime := fs.Int("lifetime", 8, "log2 of the key's lifetime (8, 18, or 32)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 4 {
		return fmt.Errorf("verify requires exactly four arguments: sig_path, pk_path, message, epoch")
	}

	var errs *multierror.Error

	epoch, epochErr := strconv.ParseUint(fs.Arg(3), 10, 32)
	if epochErr != nil {
		errs = multierror.Append(errs, fmt.Errorf("epoch is not a valid integer: %w", epochErr))
	}
	scheme, schemeErr := schemeForLifetime(*lifetime)
	if schemeErr != nil {
		errs = multierror.Append(errs, schemeErr)
	}
	if errs.ErrorOrNil() != nil {
		return errs
	}

	sig, err := persist.LoadSignature(scheme, fs.Arg(0))
	if err != nil {
		return fmt.Errorf("loading signature: %w", err)
	}
	pk, err := persist.LoadPublicKey(scheme, fs.Arg(1))
	if err != nil {
		return fmt.Errorf("loading public key: %w", err)
	}
	message := []byte(fs.Arg(2))

	if err := scheme.Verify(pk, uint32(epoch), message, sig); err != nil {
		return fmt.Errorf("invalid signature: %w", err)
	}

	fmt.Println("valid")
	return nil
}
