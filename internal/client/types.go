package client

import (
	"solanakit/internal/keys"
)

// rpcContext is the slot context attached to most value-bearing results.
type rpcContext struct {
	Slot uint64 `json:"slot"`
}

// Account is the on-chain state of an address.
type Account struct {
	Lamports   uint64         `json:"lamports"`
	Owner      keys.PublicKey `json:"owner"`
	Data       []byte         `json:"-"`
	Executable bool           `json:"executable"`
	RentEpoch  uint64         `json:"rentEpoch"`
}

// rawAccount is the wire shape; Data arrives as [base64, "base64"].
type rawAccount struct {
	Lamports   uint64         `json:"lamports"`
	Owner      keys.PublicKey `json:"owner"`
	Data       []string       `json:"data"`
	Executable bool           `json:"executable"`
	RentEpoch  uint64         `json:"rentEpoch"`
}

// ProgramAccount pairs an account with its address, as returned by
// getProgramAccounts and programSubscribe.
type ProgramAccount struct {
	Pubkey  keys.PublicKey
	Account Account
}

// ClusterNode describes a gossip peer.
type ClusterNode struct {
	Pubkey  keys.PublicKey `json:"pubkey"`
	Gossip  string         `json:"gossip"`
	TPU     string         `json:"tpu"`
	RPC     string         `json:"rpc"`
	Version string         `json:"version"`
}

// Version is the node's software version.
type Version struct {
	SolanaCore string `json:"solana-core"`
	FeatureSet uint32 `json:"feature-set"`
}

// SignatureInfo summarizes one confirmed transaction touching an address.
type SignatureInfo struct {
	Signature string      `json:"signature"`
	Slot      uint64      `json:"slot"`
	BlockTime *int64      `json:"blockTime"`
	Err       interface{} `json:"err"`
	Memo      *string     `json:"memo"`
}

// SignaturesOpts paginates getSignaturesForAddress.
type SignaturesOpts struct {
	Before string
	Until  string
	Limit  int
}

// TokenBalance is a token amount with its mint's decimal scale. Amount
// is the raw integer as a string; UIAmountString is scaled for display.
type TokenBalance struct {
	Amount         string `json:"amount"`
	Decimals       uint8  `json:"decimals"`
	UIAmountString string `json:"uiAmountString"`
}

// TokenAccount is a token holding flattened out of the jsonParsed
// account encoding.
type TokenAccount struct {
	Pubkey   keys.PublicKey
	Mint     keys.PublicKey
	Owner    keys.PublicKey
	Amount   string
	Decimals uint8
}

// TransactionDetail is a confirmed transaction as reported by the node.
type TransactionDetail struct {
	Signature   string
	Slot        uint64
	BlockTime   *int64
	Err         interface{}
	Fee         uint64
	LogMessages []string
	AccountKeys []keys.PublicKey
}

// SimulationResult is the outcome of simulateTransaction.
type SimulationResult struct {
	Err           interface{} `json:"err"`
	Logs          []string    `json:"logs"`
	UnitsConsumed uint64      `json:"unitsConsumed"`
}

// SlotInfo is a slot progression event from slotSubscribe.
type SlotInfo struct {
	Slot   uint64 `json:"slot"`
	Parent uint64 `json:"parent"`
	Root   uint64 `json:"root"`
}
