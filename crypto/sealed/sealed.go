// Package sealed implements the confidential amount type handled by the
// donation ledger: an ElGamal ciphertext over the BabyJubJub curve that can
// be accumulated homomorphically but never inspected without the decryption
// key. The ledger itself only ever calls Add on it; encryption and
// decryption helpers exist for clients and tests.
package sealed

import (
	"crypto/rand"
	"fmt"
	"math"
	"math/big"

	babyjub "github.com/iden3/go-iden3-crypto/babyjub"
)

// GenerateKey generates a new public/private ElGamal key pair over
// BabyJubJub.
func GenerateKey() (publicKey *babyjub.Point, privateKey *big.Int, err error) {
	d, err := rand.Int(rand.Reader, babyjub.SubOrder)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate private key scalar: %v", err)
	}
	if d.Sign() == 0 {
		d = big.NewInt(1) // avoid zero private keys
	}
	return babyjub.NewPoint().Mul(d, babyjub.B8), d, nil
}

// RandK generates a random scalar for encryption.
func RandK() (*big.Int, error) {
	k, err := rand.Int(rand.Reader, babyjub.SubOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to generate random k: %v", err)
	}
	return k, nil
}

// Encrypt encrypts a 64-bit amount under the given public key. It returns
// the ciphertext and the random k used, or an error if randomness fails.
func Encrypt(publicKey *babyjub.Point, amount uint64) (*Ciphertext, *big.Int, error) {
	k, err := RandK()
	if err != nil {
		return nil, nil, err
	}
	ct, err := EncryptWithK(publicKey, amount, k)
	if err != nil {
		return nil, nil, err
	}
	return ct, k, nil
}

// EncryptWithK encrypts an amount under publicKey with the provided
// randomness k. C1 = k*G, C2 = amount*G + k*publicKey.
func EncryptWithK(publicKey *babyjub.Point, amount uint64, k *big.Int) (*Ciphertext, error) {
	if publicKey == nil || k == nil {
		return nil, fmt.Errorf("nil public key or randomness")
	}
	c1 := babyjub.NewPoint().Mul(k, babyjub.B8)
	s := babyjub.NewPoint().Mul(k, publicKey)
	m := babyjub.NewPoint().Mul(new(big.Int).SetUint64(amount), babyjub.B8)
	c2 := addPoints(m, s)
	return &Ciphertext{C1: c1, C2: c2}, nil
}

// Decrypt recovers the amount from a ciphertext using the private key. It
// computes M = C2 - d*C1 and solves the discrete log M = amount*G with
// baby-step giant-step, bounded by maxAmount. Returns an error if the
// amount is outside [0, maxAmount].
func Decrypt(privateKey *big.Int, ct *Ciphertext, maxAmount uint64) (uint64, error) {
	if ct == nil || ct.C1 == nil || ct.C2 == nil {
		return 0, fmt.Errorf("nil ciphertext")
	}
	dC1 := babyjub.NewPoint().Mul(privateKey, ct.C1)
	m := addPoints(ct.C2, negPoint(dC1))
	return babyStepGiantStep(m, maxAmount)
}

// babyStepGiantStep solves M = x*G for x in [0, maxAmount].
func babyStepGiantStep(m *babyjub.Point, maxAmount uint64) (uint64, error) {
	mSqrt := uint64(math.Sqrt(float64(maxAmount))) + 1

	babySteps := make(map[string]uint64, mSqrt)
	step := identityPoint()
	for j := uint64(0); j < mSqrt; j++ {
		babySteps[pointKey(step)] = j
		step = addPoints(step, babyjub.B8)
	}

	// giant stride: -mSqrt * G
	stride := negPoint(babyjub.NewPoint().Mul(new(big.Int).SetUint64(mSqrt), babyjub.B8))

	giant := &babyjub.Point{X: new(big.Int).Set(m.X), Y: new(big.Int).Set(m.Y)}
	for i := uint64(0); i <= mSqrt; i++ {
		if j, ok := babySteps[pointKey(giant)]; ok {
			return i*mSqrt + j, nil
		}
		giant = addPoints(giant, stride)
	}
	return 0, fmt.Errorf("failed to find discrete log within bound %d", maxAmount)
}

func addPoints(a, b *babyjub.Point) *babyjub.Point {
	return babyjub.NewPointProjective().Add(a.Projective(), b.Projective()).Affine()
}

func negPoint(a *babyjub.Point) *babyjub.Point {
	p := a.Projective()
	p.X = p.X.Neg(p.X)
	return p.Affine()
}

func identityPoint() *babyjub.Point {
	return &babyjub.Point{X: big.NewInt(0), Y: big.NewInt(1)}
}

func pointKey(p *babyjub.Point) string {
	return p.X.String() + "," + p.Y.String()
}
