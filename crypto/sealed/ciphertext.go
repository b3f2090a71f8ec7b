package sealed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"

	babyjub "github.com/iden3/go-iden3-crypto/babyjub"
	"github.com/vocdoni/arbo"
)

// sizes in bytes needed to serialize a Ciphertext
const (
	sizeCoord      = 32
	sizePoint      = 2 * sizeCoord
	SizeCiphertext = 2 * sizePoint
)

// Ciphertext is an ElGamal encrypted amount with homomorphic addition. The
// zero value (identity points) is the sentinel for "nothing accumulated yet"
// and is what accessors return for donors that never contributed.
type Ciphertext struct {
	C1 *babyjub.Point `json:"c1"`
	C2 *babyjub.Point `json:"c2"`
}

// NewCiphertext returns a zero-valued Ciphertext, the neutral element of
// accumulation.
func NewCiphertext() *Ciphertext {
	return &Ciphertext{C1: identityPoint(), C2: identityPoint()}
}

// Add adds two Ciphertexts and stores the result in z, which is also
// returned.
func (z *Ciphertext) Add(x, y *Ciphertext) *Ciphertext {
	z.C1 = addPoints(x.C1, y.C1)
	z.C2 = addPoints(x.C2, y.C2)
	return z
}

// IsZero reports whether z is the zero-valued (sentinel) ciphertext.
func (z *Ciphertext) IsZero() bool {
	return z.C1.X.Sign() == 0 && z.C1.Y.Cmp(big.NewInt(1)) == 0 &&
		z.C2.X.Sign() == 0 && z.C2.Y.Cmp(big.NewInt(1)) == 0
}

// Equal reports whether z and x hold the same points.
func (z *Ciphertext) Equal(x *Ciphertext) bool {
	return z.C1.X.Cmp(x.C1.X) == 0 && z.C1.Y.Cmp(x.C1.Y) == 0 &&
		z.C2.X.Cmp(x.C2.X) == 0 && z.C2.Y.Cmp(x.C2.Y) == 0
}

// Serialize returns a slice of len 4*32 bytes, representing C1.X, C1.Y,
// C2.X, C2.Y as fixed-width little-endian coordinates.
func (z *Ciphertext) Serialize() []byte {
	var buf bytes.Buffer
	for _, bi := range []*big.Int{z.C1.X, z.C1.Y, z.C2.X, z.C2.Y} {
		buf.Write(arbo.BigIntToBytes(sizeCoord, bi))
	}
	return buf.Bytes()
}

// Deserialize reconstructs a Ciphertext from a slice of bytes. The input
// must be of len 4*32 bytes, as produced by Serialize.
func (z *Ciphertext) Deserialize(data []byte) error {
	if len(data) != SizeCiphertext {
		return fmt.Errorf("invalid input length: got %d bytes, expected %d bytes", len(data), SizeCiphertext)
	}
	readBigInt := func(offset int) *big.Int {
		return arbo.BytesToBigInt(data[offset : offset+sizeCoord])
	}
	z.C1 = &babyjub.Point{X: readBigInt(0 * sizeCoord), Y: readBigInt(1 * sizeCoord)}
	z.C2 = &babyjub.Point{X: readBigInt(2 * sizeCoord), Y: readBigInt(3 * sizeCoord)}
	return nil
}

type ciphertextCoords struct {
	C1 [2]*big.Int `json:"c1"`
	C2 [2]*big.Int `json:"c2"`
}

// MarshalJSON serializes the ciphertext as its four point coordinates.
func (z *Ciphertext) MarshalJSON() ([]byte, error) {
	return json.Marshal(ciphertextCoords{
		C1: [2]*big.Int{z.C1.X, z.C1.Y},
		C2: [2]*big.Int{z.C2.X, z.C2.Y},
	})
}

// UnmarshalJSON populates the ciphertext from its coordinate representation.
func (z *Ciphertext) UnmarshalJSON(data []byte) error {
	coords := ciphertextCoords{}
	if err := json.Unmarshal(data, &coords); err != nil {
		return err
	}
	z.C1 = &babyjub.Point{X: coords.C1[0], Y: coords.C1[1]}
	z.C2 = &babyjub.Point{X: coords.C2[0], Y: coords.C2[1]}
	return nil
}

// String returns a string representation of the Ciphertext.
func (z *Ciphertext) String() string {
	if z == nil || z.C1 == nil || z.C2 == nil {
		return "{C1: nil, C2: nil}"
	}
	return fmt.Sprintf("{C1: %s, C2: %s}", pointKey(z.C1), pointKey(z.C2))
}
