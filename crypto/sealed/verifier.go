package sealed

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/iden3/go-iden3-crypto/poseidon"
	"github.com/vocdoni/arbo"
)

// ErrProofRejected is returned by verifiers when a proof does not attest the
// sealed amount. Callers must treat any other verifier error the same way
// (fail closed).
var ErrProofRejected = errors.New("sealed amount proof rejected")

// Verifier attests that a sealed amount is a well-formed encrypted unsigned
// quantity of the expected bit width. It is the seam towards the external
// proof subsystem: implementations may call out to a remote attestation
// service or verify a zero-knowledge proof locally.
type Verifier interface {
	VerifySealedAmount(ct *Ciphertext, proof []byte, widthBits int) error
}

// PoseidonVerifier checks a Poseidon commitment binding the proof to the
// ciphertext coordinates and the claimed width. It stands in for the real
// attestation service in development and tests: it proves the submitter
// committed to this exact ciphertext, not that the plaintext is in range.
type PoseidonVerifier struct{}

// ProveSealedAmount computes the commitment a PoseidonVerifier accepts for
// the given ciphertext. Used by clients when submitting donations.
func ProveSealedAmount(ct *Ciphertext, widthBits int) ([]byte, error) {
	if ct == nil || ct.C1 == nil || ct.C2 == nil {
		return nil, fmt.Errorf("nil ciphertext")
	}
	h, err := poseidon.Hash([]*big.Int{
		ct.C1.X, ct.C1.Y, ct.C2.X, ct.C2.Y,
		big.NewInt(int64(widthBits)),
	})
	if err != nil {
		return nil, fmt.Errorf("poseidon commitment: %w", err)
	}
	return arbo.BigIntToBytes(sizeCoord, h), nil
}

func (PoseidonVerifier) VerifySealedAmount(ct *Ciphertext, proof []byte, widthBits int) error {
	if ct == nil {
		return fmt.Errorf("%w: nil ciphertext", ErrProofRejected)
	}
	if len(proof) != sizeCoord {
		return fmt.Errorf("%w: invalid proof length %d", ErrProofRejected, len(proof))
	}
	expected, err := ProveSealedAmount(ct, widthBits)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProofRejected, err)
	}
	if !bytes.Equal(expected, proof) {
		return ErrProofRejected
	}
	return nil
}
