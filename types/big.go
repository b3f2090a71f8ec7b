package types

import (
	"fmt"
	"math/big"
)

// BigInt is a big.Int wrapper which marshals JSON and CBOR as a decimal
// string, so that arbitrary precision monetary amounts survive transport
// layers that mangle large numbers.
type BigInt big.Int

// MathBigInt converts b to a math/big *big.Int.
func (b *BigInt) MathBigInt() *big.Int {
	return (*big.Int)(b)
}

func (b *BigInt) String() string {
	return b.MathBigInt().String()
}

// SetUint64 sets b to x and returns b.
func (b *BigInt) SetUint64(x uint64) *BigInt {
	return (*BigInt)(b.MathBigInt().SetUint64(x))
}

// SetBytes interprets buf as big-endian unsigned integer, sets b to that
// value, and returns b.
func (b *BigInt) SetBytes(buf []byte) *BigInt {
	return (*BigInt)(b.MathBigInt().SetBytes(buf))
}

// Bytes returns the absolute value of b as a big-endian byte slice.
func (b *BigInt) Bytes() []byte {
	return b.MathBigInt().Bytes()
}

// Add sets b to x+y and returns b.
func (b *BigInt) Add(x, y *BigInt) *BigInt {
	return (*BigInt)(b.MathBigInt().Add(x.MathBigInt(), y.MathBigInt()))
}

// Mul sets b to x*y and returns b.
func (b *BigInt) Mul(x, y *BigInt) *BigInt {
	return (*BigInt)(b.MathBigInt().Mul(x.MathBigInt(), y.MathBigInt()))
}

// Cmp compares b and x and returns -1, 0 or +1.
func (b *BigInt) Cmp(x *BigInt) int {
	return b.MathBigInt().Cmp(x.MathBigInt())
}

// Sign returns -1, 0 or +1 depending on the sign of b.
func (b *BigInt) Sign() int {
	return b.MathBigInt().Sign()
}

func (b *BigInt) MarshalText() ([]byte, error) {
	return b.MathBigInt().MarshalText()
}

func (b *BigInt) UnmarshalText(data []byte) error {
	return b.MathBigInt().UnmarshalText(data)
}

func (b *BigInt) MarshalJSON() ([]byte, error) {
	return []byte(`"` + b.String() + `"`), nil
}

func (b *BigInt) UnmarshalJSON(data []byte) error {
	// accept both quoted and bare numbers
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		data = data[1 : len(data)-1]
	}
	if _, ok := b.MathBigInt().SetString(string(data), 10); !ok {
		return fmt.Errorf("invalid big integer %q", data)
	}
	return nil
}

func (b *BigInt) MarshalCBOR() ([]byte, error) {
	return cborEncode(b.String())
}

func (b *BigInt) UnmarshalCBOR(data []byte) error {
	var s string
	if err := cborDecode(data, &s); err != nil {
		return err
	}
	if _, ok := b.MathBigInt().SetString(s, 10); !ok {
		return fmt.Errorf("invalid big integer %q", s)
	}
	return nil
}
