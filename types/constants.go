package types

import "math/big"

const (
	// SealedAmountWidthBits is the bit width the proof of a sealed amount
	// attests to. Amounts are encrypted 64-bit unsigned quantities.
	SealedAmountWidthBits = 64
	// ProgressMax is the cap for the displayed progress percentage. The
	// public balance keeps accumulating past the target; only the displayed
	// percentage is capped.
	ProgressMax = 100
)

// MinDonationValue is the minimum attached value (in wei) required for a
// donation to be accepted. It covers the processing cost of the sealed
// amount verification and is independent of the confidential amount itself.
var MinDonationValue = (*BigInt)(big.NewInt(1_000_000_000_000_000)) // 0.001 ETH
