package keys

// Well-known cluster addresses.
var (
	SystemProgram          = MustFromBase58("11111111111111111111111111111111")
	TokenProgram           = MustFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	AssociatedTokenProgram = MustFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")

	// NativeMint is the wrapped SOL mint.
	NativeMint = MustFromBase58("So11111111111111111111111111111111111111112")

	SysvarRent         = MustFromBase58("SysvarRent111111111111111111111111111111111")
	SysvarRewards      = MustFromBase58("SysvarRewards111111111111111111111111111111")
	SysvarClock        = MustFromBase58("SysvarC1ock11111111111111111111111111111111")
	SysvarStakeHistory = MustFromBase58("SysvarStakeHistory1111111111111111111111111")
	SysvarInstructions = MustFromBase58("Sysvar1nstructions1111111111111111111111111")
)

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL = 1_000_000_000

// PacketDataSize is the maximum serialized transaction size the network
// accepts in a single packet.
const PacketDataSize = 1232
