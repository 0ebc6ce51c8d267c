package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"solanakit/internal/keys"
	"solanakit/internal/txn"
)

func TestWebsocketURL(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"https://api.devnet.solana.com", "wss://api.devnet.solana.com"},
		{"http://127.0.0.1:8899", "ws://127.0.0.1:8899"},
		{"wss://already.ws", "wss://already.ws"},
	}
	for _, tc := range cases {
		if got := websocketURL(tc.in); got != tc.want {
			t.Errorf("websocketURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestClusterAPIURL(t *testing.T) {
	if got := Devnet.APIURL(); got != "https://api.devnet.solana.com" {
		t.Errorf("unexpected devnet URL: %s", got)
	}
	if got := Localnet.APIURL(); got != "http://127.0.0.1:8899" {
		t.Errorf("unexpected localnet URL: %s", got)
	}
}

func TestConnection_GetBalance(t *testing.T) {
	owner := keys.SystemProgram

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		if req.Method != "getBalance" {
			t.Errorf("expected method getBalance, got %s", req.Method)
		}
		if req.Params[0] != owner.Base58() {
			t.Errorf("unexpected pubkey param: %v", req.Params[0])
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"context": map[string]interface{}{"slot": 100},
				"value":   uint64(5_000_000_000),
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	conn := New(server.URL)
	ctx := context.Background()

	balance, err := conn.GetBalance(ctx, owner)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if balance != 5_000_000_000 {
		t.Errorf("expected 5000000000 lamports, got %d", balance)
	}
}

func TestConnection_GetAccountInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		if req.Method != "getAccountInfo" {
			t.Errorf("expected method getAccountInfo, got %s", req.Method)
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"context": map[string]interface{}{"slot": 100},
				"value": map[string]interface{}{
					"lamports":   uint64(1_000_000),
					"owner":      keys.TokenProgram.Base58(),
					"data":       []string{"SGVsbG8gV29ybGQ=", "base64"},
					"executable": false,
					"rentEpoch":  uint64(361),
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	conn := New(server.URL)
	ctx := context.Background()

	kp, err := keys.NewKeypair()
	if err != nil {
		t.Fatalf("NewKeypair: %v", err)
	}

	acct, err := conn.GetAccountInfo(ctx, kp.PublicKey())
	if err != nil {
		t.Fatalf("GetAccountInfo: %v", err)
	}
	if acct == nil {
		t.Fatal("expected account, got nil")
	}
	if acct.Lamports != 1_000_000 {
		t.Errorf("expected lamports 1000000, got %d", acct.Lamports)
	}
	if !acct.Owner.Equal(keys.TokenProgram) {
		t.Errorf("unexpected owner: %s", acct.Owner)
	}
	if !bytes.Equal(acct.Data, []byte("Hello World")) {
		t.Errorf("unexpected data: %q", acct.Data)
	}
}

func TestConnection_GetAccountInfo_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"context": map[string]interface{}{"slot": 100},
				"value":   nil,
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	conn := New(server.URL)
	ctx := context.Background()

	acct, err := conn.GetAccountInfo(ctx, keys.SystemProgram)
	if err != nil {
		t.Fatalf("GetAccountInfo: %v", err)
	}
	if acct != nil {
		t.Errorf("expected nil for missing account, got %+v", acct)
	}
}

func TestConnection_GetLatestBlockhash(t *testing.T) {
	blockhash := keys.MustFromBase58("GfVcyD4kkTrj4bKc7WA9sZCin9JDbdT4Zkd3EittNR1W")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		if req.Method != "getLatestBlockhash" {
			t.Errorf("expected method getLatestBlockhash, got %s", req.Method)
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"context": map[string]interface{}{"slot": 100},
				"value": map[string]interface{}{
					"blockhash":            blockhash.Base58(),
					"lastValidBlockHeight": uint64(150),
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	conn := New(server.URL)
	got, err := conn.GetLatestBlockhash(context.Background())
	if err != nil {
		t.Fatalf("GetLatestBlockhash: %v", err)
	}
	if !got.Equal(blockhash) {
		t.Errorf("expected %s, got %s", blockhash, got)
	}
}

func TestConnection_Retry(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := attempts.Add(1)
		if count < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  uint64(999),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	conn := New(server.URL,
		WithMaxRetries(3),
		WithRetryDelay(10*time.Millisecond),
	)

	slot, err := conn.GetSlot(context.Background())
	if err != nil {
		t.Fatalf("GetSlot: %v", err)
	}
	if slot != 999 {
		t.Errorf("expected slot 999, got %d", slot)
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestConnection_RPCErrorNotRetried(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)

		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error": map[string]interface{}{
				"code":    -32602,
				"message": "Invalid params",
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	conn := New(server.URL, WithRetryDelay(time.Millisecond))

	_, err := conn.GetSlot(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	rpcErr, ok := err.(*RPCError)
	if !ok {
		t.Fatalf("expected *RPCError, got %T", err)
	}
	if rpcErr.Code != -32602 {
		t.Errorf("expected code -32602, got %d", rpcErr.Code)
	}
	if attempts.Load() != 1 {
		t.Errorf("RPC error retried: %d attempts", attempts.Load())
	}
}

func TestConnection_SendTransaction(t *testing.T) {
	payer, err := keys.KeypairFromSeed(bytes.Repeat([]byte{7}, 32))
	if err != nil {
		t.Fatalf("KeypairFromSeed: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		if req.Method != "sendTransaction" {
			t.Errorf("expected method sendTransaction, got %s", req.Method)
		}

		wire, err := base64.StdEncoding.DecodeString(req.Params[0].(string))
		if err != nil {
			t.Errorf("transaction not base64: %v", err)
		}
		if len(wire) == 0 || wire[0] != 1 {
			t.Errorf("expected 1 signature on the wire, got prefix %v", wire[:1])
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  "5j7s6NiJS3JAkvgkoc18WVAsiSaci2pxB2A6ueCJP4tprA2TFg9wSyTLeYouxPBJEMzJinENTkpA52YStRW5Dia7",
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	var tx txn.Transaction
	tx.Add(txn.Instruction{
		ProgramID: keys.SystemProgram,
		Accounts: []txn.AccountMeta{
			txn.Meta(payer.PublicKey(), true, true),
		},
		Data: []byte{2, 0, 0, 0},
	})
	tx.SetRecentBlockhash(keys.MustFromBase58("GfVcyD4kkTrj4bKc7WA9sZCin9JDbdT4Zkd3EittNR1W"))

	compiled, err := tx.Compile([]*keys.Keypair{payer})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, err := compiled.SerializeMessage(); err != nil {
		t.Fatalf("SerializeMessage: %v", err)
	}
	if err := compiled.Sign([]*keys.Keypair{payer}); err != nil {
		t.Fatalf("Sign: %v", err)
	}

	conn := New(server.URL)
	sig, err := conn.SendTransaction(context.Background(), compiled)
	if err != nil {
		t.Fatalf("SendTransaction: %v", err)
	}
	if sig == "" {
		t.Error("expected signature, got empty string")
	}
}

func TestConnection_SendTransaction_NoRetry(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	payer, err := keys.KeypairFromSeed(bytes.Repeat([]byte{9}, 32))
	if err != nil {
		t.Fatalf("KeypairFromSeed: %v", err)
	}

	var tx txn.Transaction
	tx.Add(txn.Instruction{
		ProgramID: keys.SystemProgram,
		Accounts:  []txn.AccountMeta{txn.Meta(payer.PublicKey(), true, true)},
	})
	tx.SetRecentBlockhash(keys.SysvarClock)

	compiled, err := tx.Compile([]*keys.Keypair{payer})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, err := compiled.SerializeMessage(); err != nil {
		t.Fatalf("SerializeMessage: %v", err)
	}
	if err := compiled.Sign([]*keys.Keypair{payer}); err != nil {
		t.Fatalf("Sign: %v", err)
	}

	conn := New(server.URL, WithMaxRetries(3), WithRetryDelay(time.Millisecond))

	_, err = conn.SendTransaction(context.Background(), compiled)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if attempts.Load() != 1 {
		t.Errorf("submission retried: %d attempts", attempts.Load())
	}
}

func TestConnection_GetTokenAccountsByOwner(t *testing.T) {
	owner, err := keys.NewKeypair()
	if err != nil {
		t.Fatalf("NewKeypair: %v", err)
	}
	mint := keys.NativeMint

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		if req.Method != "getTokenAccountsByOwner" {
			t.Errorf("expected method getTokenAccountsByOwner, got %s", req.Method)
		}

		tokenAcct, _, err := keys.FindProgramAddress(
			[][]byte{owner.PublicKey().Bytes()}, keys.TokenProgram)
		if err != nil {
			t.Errorf("FindProgramAddress: %v", err)
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"context": map[string]interface{}{"slot": 100},
				"value": []map[string]interface{}{
					{
						"pubkey": tokenAcct.Base58(),
						"account": map[string]interface{}{
							"data": map[string]interface{}{
								"parsed": map[string]interface{}{
									"info": map[string]interface{}{
										"mint":  mint.Base58(),
										"owner": owner.PublicKey().Base58(),
										"tokenAmount": map[string]interface{}{
											"amount":         "123456789",
											"decimals":       9,
											"uiAmountString": "0.123456789",
										},
									},
								},
							},
						},
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	conn := New(server.URL)
	accounts, err := conn.GetTokenAccountsByOwner(context.Background(), owner.PublicKey(), &mint)
	if err != nil {
		t.Fatalf("GetTokenAccountsByOwner: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(accounts))
	}
	if !accounts[0].Mint.Equal(mint) {
		t.Errorf("unexpected mint: %s", accounts[0].Mint)
	}
	if !accounts[0].Owner.Equal(owner.PublicKey()) {
		t.Errorf("unexpected owner: %s", accounts[0].Owner)
	}
	if accounts[0].Amount != "123456789" {
		t.Errorf("unexpected amount: %s", accounts[0].Amount)
	}
	if accounts[0].Decimals != 9 {
		t.Errorf("unexpected decimals: %d", accounts[0].Decimals)
	}
}

func TestConnection_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	conn := New(server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	_, err := conn.GetSlot(ctx)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestConnection_CallObserver(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		if req.Method == "getSlot" {
			resp["result"] = uint64(42)
		} else {
			resp["error"] = map[string]interface{}{"code": -32602, "message": "invalid params"}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	type observed struct {
		method string
		err    error
	}
	var seen []observed
	conn := New(server.URL, WithCallObserver(func(method string, elapsed time.Duration, err error) {
		seen = append(seen, observed{method, err})
	}))

	if _, err := conn.GetSlot(context.Background()); err != nil {
		t.Fatalf("GetSlot: %v", err)
	}
	if _, err := conn.GetSlotLeader(context.Background()); err == nil {
		t.Fatal("expected an RPC error from getSlotLeader")
	}

	if len(seen) != 2 {
		t.Fatalf("observer saw %d calls, want 2", len(seen))
	}
	if seen[0].method != "getSlot" || seen[0].err != nil {
		t.Errorf("unexpected first observation: %+v", seen[0])
	}
	if seen[1].method != "getSlotLeader" || seen[1].err == nil {
		t.Errorf("unexpected second observation: %+v", seen[1])
	}
}
