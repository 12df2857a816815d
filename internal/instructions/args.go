package instructions

// Argument structs mirror the program's handler signatures. Field order is
// the wire order; Borsh writes integers little-endian and bools as one byte.

// SwapArgs is also the payload of approve_and_execute.
type SwapArgs struct {
	AmountIn     uint64
	MinAmountOut uint64
	AToB         bool
}

type InitializePoolArgs struct {
	FeeRateBps uint16
}

type ProvideLiquidityArgs struct {
	AmountA           uint64
	AmountB           uint64
	MinLP             uint64
	AutoCompound      bool
	CompoundThreshold uint64
}

type RemoveLiquidityArgs struct {
	LPShares uint64
	MinA     uint64
	MinB     uint64
}
