package nft

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// pdaMarker is the domain separator appended when hashing program-derived
// address candidates.
const pdaMarker = "ProgramDerivedAddress"

// metadataSeed is the fixed first seed of every metadata account address.
const metadataSeed = "metadata"

// ErrNoViableBump is returned when no bump seed in [0, 255] produces an
// off-curve address. Statistically this does not happen; the error exists so
// the loop has a defined exit.
var ErrNoViableBump = errors.New("no viable bump seed produces an off-curve address")

// FindMetadataAddress derives the canonical metadata account address for a
// mint: the program-derived address of the metadata program with seeds
// ("metadata", program id, mint). The derivation hashes candidates with a
// descending bump seed until one falls off the ed25519 curve, which makes the
// address unspendable and uniquely owned by the program.
func FindMetadataAddress(metadataProgramID, mint string) (string, error) {
	programKey, err := decodePublicKey(metadataProgramID)
	if err != nil {
		return "", fmt.Errorf("invalid metadata program id %q: %w", metadataProgramID, err)
	}
	mintKey, err := decodePublicKey(mint)
	if err != nil {
		return "", fmt.Errorf("invalid mint %q: %w", mint, err)
	}

	for bump := 255; bump >= 0; bump-- {
		h := sha256.New()
		h.Write([]byte(metadataSeed))
		h.Write(programKey)
		h.Write(mintKey)
		h.Write([]byte{byte(bump)})
		h.Write(programKey)
		h.Write([]byte(pdaMarker))
		candidate := h.Sum(nil)

		if !isOnCurve(candidate) {
			return base58.Encode(candidate), nil
		}
	}
	return "", ErrNoViableBump
}

func decodePublicKey(encoded string) ([]byte, error) {
	key, err := base58.Decode(encoded)
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("public key is %d bytes, want 32", len(key))
	}
	return key, nil
}

// isOnCurve reports whether the bytes decode to a valid ed25519 curve point.
func isOnCurve(candidate []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(candidate)
	return err == nil
}
