package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"solanakit/internal/client"
	"solanakit/internal/keys"
)

func main() {
	endpoint := flag.String("endpoint", "", "JSON-RPC HTTP endpoint (overrides --cluster)")
	cluster := flag.String("cluster", "devnet", "Cluster: mainnet-beta, devnet, testnet, localnet")
	commitment := flag.String("commitment", "finalized", "Commitment: processed, confirmed, finalized")
	address := flag.String("address", "", "Optional account address to print the balance of")
	timeout := flag.Duration("timeout", 30*time.Second, "Total request timeout")

	flag.Parse()

	logger := log.New(os.Stdout, "[nodeinfo] ", log.LstdFlags)

	url := *endpoint
	if url == "" {
		url = client.Cluster(*cluster).APIURL()
		if url == "" {
			logger.Fatalf("Unknown cluster: %s", *cluster)
		}
	}

	conn := client.New(url,
		client.WithCommitment(client.Commitment(*commitment)),
		client.WithLogger(logger),
	)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	version, err := conn.GetVersion(ctx)
	if err != nil {
		logger.Fatalf("getVersion: %v", err)
	}

	identity, err := conn.GetIdentity(ctx)
	if err != nil {
		logger.Fatalf("getIdentity: %v", err)
	}

	slot, err := conn.GetSlot(ctx)
	if err != nil {
		logger.Fatalf("getSlot: %v", err)
	}

	leader, err := conn.GetSlotLeader(ctx)
	if err != nil {
		logger.Fatalf("getSlotLeader: %v", err)
	}

	blockhash, err := conn.GetLatestBlockhash(ctx)
	if err != nil {
		logger.Fatalf("getLatestBlockhash: %v", err)
	}

	nodes, err := conn.GetClusterNodes(ctx)
	if err != nil {
		logger.Fatalf("getClusterNodes: %v", err)
	}

	schedule, err := conn.GetLeaderSchedule(ctx)
	if err != nil {
		logger.Fatalf("getLeaderSchedule: %v", err)
	}

	var balance uint64
	if *address != "" {
		pk, err := keys.FromBase58(*address)
		if err != nil {
			logger.Fatalf("Invalid address %q: %v", *address, err)
		}
		balance, err = conn.GetBalance(ctx, pk)
		if err != nil {
			logger.Fatalf("getBalance: %v", err)
		}
	}

	fmt.Printf("Endpoint:         %s\n", url)
	fmt.Printf("Version:          %s (feature set %d)\n", version.SolanaCore, version.FeatureSet)
	fmt.Printf("Identity:         %s\n", identity)
	fmt.Printf("Slot:             %d\n", slot)
	fmt.Printf("Slot leader:      %s\n", leader)
	fmt.Printf("Latest blockhash: %s\n", blockhash)
	fmt.Printf("Cluster nodes:    %d\n", len(nodes))
	fmt.Printf("Scheduled leaders: %d\n", len(schedule))
	if *address != "" {
		fmt.Printf("Balance of %s: %d lamports\n", *address, balance)
	}
}
