package client

import "strings"

// Cluster identifies a public Solana cluster.
type Cluster string

const (
	MainnetBeta Cluster = "mainnet-beta"
	Devnet      Cluster = "devnet"
	Testnet     Cluster = "testnet"
	Localnet    Cluster = "localnet"
)

// APIURL returns the default JSON-RPC endpoint for a cluster.
func (c Cluster) APIURL() string {
	switch c {
	case MainnetBeta:
		return "https://api.mainnet-beta.solana.com"
	case Devnet:
		return "https://api.devnet.solana.com"
	case Testnet:
		return "https://api.testnet.solana.com"
	case Localnet:
		return "http://127.0.0.1:8899"
	default:
		return ""
	}
}

// Commitment is the confirmation level requested from the node.
type Commitment string

const (
	CommitmentProcessed Commitment = "processed"
	CommitmentConfirmed Commitment = "confirmed"
	CommitmentFinalized Commitment = "finalized"
)

// websocketURL derives the subscription endpoint from an HTTP endpoint by
// scheme replacement: http becomes ws, https becomes wss.
func websocketURL(endpoint string) string {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return "wss://" + strings.TrimPrefix(endpoint, "https://")
	case strings.HasPrefix(endpoint, "http://"):
		return "ws://" + strings.TrimPrefix(endpoint, "http://")
	default:
		return endpoint
	}
}
