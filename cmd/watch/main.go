package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"solanakit/internal/client"
	"solanakit/internal/keys"
	"solanakit/internal/observability"
)

func main() {
	endpoint := flag.String("endpoint", client.Devnet.APIURL(), "JSON-RPC HTTP endpoint")
	wsEndpoint := flag.String("ws-endpoint", "", "WebSocket endpoint (derived from --endpoint if empty)")
	commitment := flag.String("commitment", "confirmed", "Commitment: processed, confirmed, finalized")
	accounts := flag.String("accounts", "", "Comma-separated account addresses to watch")
	program := flag.String("program", "", "Program address: watch all accounts it owns")
	logsMentions := flag.String("logs-mentions", "", "Address: stream transaction logs mentioning it")
	slots := flag.Bool("slots", false, "Stream slot progression events")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	logger := log.New(os.Stdout, "[watch] ", log.LstdFlags)

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	wsConfig := client.DefaultWSConfig()
	wsConfig.OnReconnect = observability.RecordReconnect

	opts := []client.Option{
		client.WithCommitment(client.Commitment(*commitment)),
		client.WithLogger(logger),
		client.WithWSConfig(wsConfig),
		client.WithCallObserver(func(method string, elapsed time.Duration, err error) {
			observability.RecordRPCLatency(method, elapsed.Seconds())
			if err != nil {
				observability.RecordRPCError(method)
			}
		}),
	}
	if *wsEndpoint != "" {
		opts = append(opts, client.WithWebsocketEndpoint(*wsEndpoint))
	}
	conn := client.New(*endpoint, opts...)
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var active atomic.Int32
	track := func() {
		observability.SetActiveSubscriptions(int(active.Add(1)))
	}

	if *accounts != "" {
		for _, addr := range strings.Split(*accounts, ",") {
			addr = strings.TrimSpace(addr)
			if addr == "" {
				continue
			}
			pk, err := keys.FromBase58(addr)
			if err != nil {
				logger.Fatalf("Invalid account address %q: %v", addr, err)
			}
			subID, err := conn.OnAccountChange(ctx, pk, func(n client.AccountNotification) {
				observability.RecordNotification("account")
				observability.UpdateHighestSlot(n.Slot)
				logger.Printf("account %s: slot=%d lamports=%d owner=%s data=%dB",
					addr, n.Slot, n.Account.Lamports, n.Account.Owner, len(n.Account.Data))
			})
			if err != nil {
				logger.Fatalf("Subscribe to account %s: %v", addr, err)
			}
			track()
			logger.Printf("Watching account %s (subscription %d)", addr, subID)
		}
	}

	if *program != "" {
		pk, err := keys.FromBase58(*program)
		if err != nil {
			logger.Fatalf("Invalid program address %q: %v", *program, err)
		}
		subID, err := conn.OnProgramAccountChange(ctx, pk, func(n client.ProgramAccountNotification) {
			observability.RecordNotification("program")
			observability.UpdateHighestSlot(n.Slot)
			logger.Printf("program account %s: slot=%d lamports=%d",
				n.Pubkey, n.Slot, n.Account.Lamports)
		})
		if err != nil {
			logger.Fatalf("Subscribe to program %s: %v", *program, err)
		}
		track()
		logger.Printf("Watching program %s (subscription %d)", *program, subID)
	}

	if *logsMentions != "" {
		pk, err := keys.FromBase58(*logsMentions)
		if err != nil {
			logger.Fatalf("Invalid address %q: %v", *logsMentions, err)
		}
		subID, err := conn.OnLogs(ctx, pk, func(n client.LogsNotification) {
			observability.RecordNotification("logs")
			observability.UpdateHighestSlot(n.Slot)
			logger.Printf("logs %s: slot=%d err=%v lines=%d",
				n.Signature, n.Slot, n.Err, len(n.Logs))
			for _, line := range n.Logs {
				logger.Printf("  %s", line)
			}
		})
		if err != nil {
			logger.Fatalf("Subscribe to logs mentioning %s: %v", *logsMentions, err)
		}
		track()
		logger.Printf("Watching logs mentioning %s (subscription %d)", *logsMentions, subID)
	}

	if *slots {
		subID, err := conn.OnSlotChange(ctx, func(info client.SlotInfo) {
			observability.RecordNotification("slot")
			observability.UpdateHighestSlot(info.Slot)
			logger.Printf("slot %d (parent %d, root %d)", info.Slot, info.Parent, info.Root)
		})
		if err != nil {
			logger.Fatalf("Subscribe to slots: %v", err)
		}
		track()
		logger.Printf("Watching slots (subscription %d)", subID)
	}

	if active.Load() == 0 {
		logger.Fatal("Nothing to watch. Use --accounts, --program, --logs-mentions, or --slots")
	}

	// Count uptime while waiting
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				observability.DefaultMetrics.UptimeSeconds.Inc()
			}
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Printf("Received signal %v, shutting down", sig)

	cancel()
	if err := conn.Close(); err != nil {
		logger.Printf("Close: %v", err)
	}
}
