package client

import (
	"context"
	"encoding/base64"
	"fmt"

	"solanakit/internal/keys"
	"solanakit/internal/txn"
)

// GetAccountInfo retrieves the account at pubkey. Returns nil if the
// account does not exist.
func (c *Connection) GetAccountInfo(ctx context.Context, pubkey keys.PublicKey) (*Account, error) {
	params := []interface{}{
		pubkey.Base58(),
		map[string]interface{}{
			"encoding":   "base64",
			"commitment": c.commitment,
		},
	}

	var result struct {
		Context rpcContext  `json:"context"`
		Value   *rawAccount `json:"value"`
	}
	if err := c.call(ctx, "getAccountInfo", params, &result); err != nil {
		return nil, err
	}
	if result.Value == nil {
		return nil, nil
	}
	return result.Value.toAccount()
}

// GetBalance retrieves the lamport balance of an address.
func (c *Connection) GetBalance(ctx context.Context, pubkey keys.PublicKey) (uint64, error) {
	params := []interface{}{
		pubkey.Base58(),
		map[string]interface{}{"commitment": c.commitment},
	}

	var result struct {
		Context rpcContext `json:"context"`
		Value   uint64     `json:"value"`
	}
	if err := c.call(ctx, "getBalance", params, &result); err != nil {
		return 0, err
	}
	return result.Value, nil
}

// GetClusterNodes retrieves the gossip peers known to the node.
func (c *Connection) GetClusterNodes(ctx context.Context) ([]ClusterNode, error) {
	var result []ClusterNode
	if err := c.call(ctx, "getClusterNodes", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetIdentity retrieves the node's identity public key.
func (c *Connection) GetIdentity(ctx context.Context) (keys.PublicKey, error) {
	var result struct {
		Identity keys.PublicKey `json:"identity"`
	}
	if err := c.call(ctx, "getIdentity", nil, &result); err != nil {
		return keys.PublicKey{}, err
	}
	return result.Identity, nil
}

// GetLatestBlockhash retrieves a recent blockhash usable as a
// transaction lifetime anchor.
func (c *Connection) GetLatestBlockhash(ctx context.Context) (keys.PublicKey, error) {
	params := []interface{}{
		map[string]interface{}{"commitment": c.commitment},
	}

	var result struct {
		Context rpcContext `json:"context"`
		Value   struct {
			Blockhash            keys.PublicKey `json:"blockhash"`
			LastValidBlockHeight uint64         `json:"lastValidBlockHeight"`
		} `json:"value"`
	}
	if err := c.call(ctx, "getLatestBlockhash", params, &result); err != nil {
		return keys.PublicKey{}, err
	}
	return result.Value.Blockhash, nil
}

// GetLeaderSchedule retrieves the current epoch's leader schedule as a
// map from validator identity to the slot indices it leads.
func (c *Connection) GetLeaderSchedule(ctx context.Context) (map[string][]uint64, error) {
	var result map[string][]uint64
	if err := c.call(ctx, "getLeaderSchedule", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetMultipleAccounts retrieves up to 100 accounts in one round trip.
// Missing accounts come back as nil entries in matching positions.
func (c *Connection) GetMultipleAccounts(ctx context.Context, pubkeys []keys.PublicKey) ([]*Account, error) {
	addrs := make([]string, len(pubkeys))
	for i, pk := range pubkeys {
		addrs[i] = pk.Base58()
	}
	params := []interface{}{
		addrs,
		map[string]interface{}{
			"encoding":   "base64",
			"commitment": c.commitment,
		},
	}

	var result struct {
		Context rpcContext    `json:"context"`
		Value   []*rawAccount `json:"value"`
	}
	if err := c.call(ctx, "getMultipleAccounts", params, &result); err != nil {
		return nil, err
	}

	accounts := make([]*Account, len(result.Value))
	for i, raw := range result.Value {
		if raw == nil {
			continue
		}
		acct, err := raw.toAccount()
		if err != nil {
			return nil, err
		}
		accounts[i] = acct
	}
	return accounts, nil
}

// GetProgramAccounts retrieves all accounts owned by a program.
func (c *Connection) GetProgramAccounts(ctx context.Context, programID keys.PublicKey) ([]ProgramAccount, error) {
	params := []interface{}{
		programID.Base58(),
		map[string]interface{}{
			"encoding":   "base64",
			"commitment": c.commitment,
		},
	}

	var result []struct {
		Pubkey  keys.PublicKey `json:"pubkey"`
		Account rawAccount     `json:"account"`
	}
	if err := c.call(ctx, "getProgramAccounts", params, &result); err != nil {
		return nil, err
	}

	accounts := make([]ProgramAccount, len(result))
	for i, r := range result {
		acct, err := r.Account.toAccount()
		if err != nil {
			return nil, err
		}
		accounts[i] = ProgramAccount{Pubkey: r.Pubkey, Account: *acct}
	}
	return accounts, nil
}

// GetSlot retrieves the slot the node has reached.
func (c *Connection) GetSlot(ctx context.Context) (uint64, error) {
	params := []interface{}{
		map[string]interface{}{"commitment": c.commitment},
	}
	var result uint64
	if err := c.call(ctx, "getSlot", params, &result); err != nil {
		return 0, err
	}
	return result, nil
}

// GetSlotLeader retrieves the identity of the current slot leader.
func (c *Connection) GetSlotLeader(ctx context.Context) (keys.PublicKey, error) {
	var result keys.PublicKey
	if err := c.call(ctx, "getSlotLeader", nil, &result); err != nil {
		return keys.PublicKey{}, err
	}
	return result, nil
}

// GetSignaturesForAddress retrieves signatures for an address with pagination.
func (c *Connection) GetSignaturesForAddress(ctx context.Context, address keys.PublicKey, opts *SignaturesOpts) ([]SignatureInfo, error) {
	config := map[string]interface{}{"commitment": c.commitment}
	if opts != nil {
		if opts.Before != "" {
			config["before"] = opts.Before
		}
		if opts.Until != "" {
			config["until"] = opts.Until
		}
		if opts.Limit > 0 {
			config["limit"] = opts.Limit
		}
	}
	params := []interface{}{address.Base58(), config}

	var result []SignatureInfo
	if err := c.call(ctx, "getSignaturesForAddress", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetTokenAccountBalance retrieves the balance of a token account.
func (c *Connection) GetTokenAccountBalance(ctx context.Context, tokenAccount keys.PublicKey) (*TokenBalance, error) {
	params := []interface{}{
		tokenAccount.Base58(),
		map[string]interface{}{"commitment": c.commitment},
	}

	var result struct {
		Context rpcContext   `json:"context"`
		Value   TokenBalance `json:"value"`
	}
	if err := c.call(ctx, "getTokenAccountBalance", params, &result); err != nil {
		return nil, err
	}
	return &result.Value, nil
}

// GetTokenAccountsByOwner retrieves the owner's token accounts,
// optionally restricted to a single mint. Results are flattened out of
// the jsonParsed encoding.
func (c *Connection) GetTokenAccountsByOwner(ctx context.Context, owner keys.PublicKey, mint *keys.PublicKey) ([]TokenAccount, error) {
	filter := map[string]interface{}{}
	if mint != nil {
		filter["mint"] = mint.Base58()
	} else {
		filter["programId"] = keys.TokenProgram.Base58()
	}
	params := []interface{}{
		owner.Base58(),
		filter,
		map[string]interface{}{
			"encoding":   "jsonParsed",
			"commitment": c.commitment,
		},
	}

	var result struct {
		Context rpcContext `json:"context"`
		Value   []struct {
			Pubkey  keys.PublicKey `json:"pubkey"`
			Account struct {
				Data struct {
					Parsed struct {
						Info struct {
							Mint        keys.PublicKey `json:"mint"`
							Owner       keys.PublicKey `json:"owner"`
							TokenAmount TokenBalance   `json:"tokenAmount"`
						} `json:"info"`
					} `json:"parsed"`
				} `json:"data"`
			} `json:"account"`
		} `json:"value"`
	}
	if err := c.call(ctx, "getTokenAccountsByOwner", params, &result); err != nil {
		return nil, err
	}

	accounts := make([]TokenAccount, len(result.Value))
	for i, v := range result.Value {
		info := v.Account.Data.Parsed.Info
		accounts[i] = TokenAccount{
			Pubkey:   v.Pubkey,
			Mint:     info.Mint,
			Owner:    info.Owner,
			Amount:   info.TokenAmount.Amount,
			Decimals: info.TokenAmount.Decimals,
		}
	}
	return accounts, nil
}

// GetTokenSupply retrieves the total supply of a mint.
func (c *Connection) GetTokenSupply(ctx context.Context, mint keys.PublicKey) (*TokenBalance, error) {
	params := []interface{}{
		mint.Base58(),
		map[string]interface{}{"commitment": c.commitment},
	}

	var result struct {
		Context rpcContext   `json:"context"`
		Value   TokenBalance `json:"value"`
	}
	if err := c.call(ctx, "getTokenSupply", params, &result); err != nil {
		return nil, err
	}
	return &result.Value, nil
}

// GetTransaction retrieves a confirmed transaction by signature.
// Returns nil if the transaction is unknown to the node.
func (c *Connection) GetTransaction(ctx context.Context, signature string) (*TransactionDetail, error) {
	params := []interface{}{
		signature,
		map[string]interface{}{
			"encoding":                       "json",
			"commitment":                     c.commitment,
			"maxSupportedTransactionVersion": 0,
		},
	}

	var result *struct {
		Slot      uint64 `json:"slot"`
		BlockTime *int64 `json:"blockTime"`
		Meta      *struct {
			Err         interface{} `json:"err"`
			Fee         uint64      `json:"fee"`
			LogMessages []string    `json:"logMessages"`
		} `json:"meta"`
		Transaction *struct {
			Message *struct {
				AccountKeys []keys.PublicKey `json:"accountKeys"`
			} `json:"message"`
		} `json:"transaction"`
	}
	if err := c.call(ctx, "getTransaction", params, &result); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	detail := &TransactionDetail{
		Signature: signature,
		Slot:      result.Slot,
		BlockTime: result.BlockTime,
	}
	if result.Meta != nil {
		detail.Err = result.Meta.Err
		detail.Fee = result.Meta.Fee
		detail.LogMessages = result.Meta.LogMessages
	}
	if result.Transaction != nil && result.Transaction.Message != nil {
		detail.AccountKeys = result.Transaction.Message.AccountKeys
	}
	return detail, nil
}

// GetVersion retrieves the node's software version.
func (c *Connection) GetVersion(ctx context.Context) (*Version, error) {
	var result Version
	if err := c.call(ctx, "getVersion", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RequestAirdrop requests lamports for an address on a test cluster.
// Returns the transaction signature of the airdrop.
func (c *Connection) RequestAirdrop(ctx context.Context, pubkey keys.PublicKey, lamports uint64) (string, error) {
	params := []interface{}{
		pubkey.Base58(),
		lamports,
		map[string]interface{}{"commitment": c.commitment},
	}

	var signature string
	if err := c.call(ctx, "requestAirdrop", params, &signature); err != nil {
		return "", err
	}
	return signature, nil
}

// SendTransaction submits a signed transaction. The call is made
// exactly once: a transport failure here is ambiguous (the node may
// have received the transaction) and retrying could double-submit.
func (c *Connection) SendTransaction(ctx context.Context, tx *txn.CompiledTransaction) (string, error) {
	wire, err := tx.Serialize()
	if err != nil {
		return "", err
	}

	params := []interface{}{
		base64.StdEncoding.EncodeToString(wire),
		map[string]interface{}{
			"encoding":            "base64",
			"preflightCommitment": c.commitment,
		},
	}

	var signature string
	if err := c.callOnce(ctx, "sendTransaction", params, &signature); err != nil {
		return "", err
	}
	return signature, nil
}

// SignAndSendTransaction fetches a blockhash (unless the transaction
// already carries one), then compiles, serializes, signs, and submits
// in one step. The first signer pays the fee.
func (c *Connection) SignAndSendTransaction(ctx context.Context, tx *txn.Transaction, signers ...*keys.Keypair) (string, error) {
	if tx.RecentBlockhash.IsZero() {
		blockhash, err := c.GetLatestBlockhash(ctx)
		if err != nil {
			return "", err
		}
		tx.SetRecentBlockhash(blockhash)
	}

	compiled, err := tx.Compile(signers)
	if err != nil {
		return "", err
	}
	if _, err := compiled.SerializeMessage(); err != nil {
		return "", err
	}
	if err := compiled.Sign(signers); err != nil {
		return "", err
	}
	return c.SendTransaction(ctx, compiled)
}

// SimulateTransaction runs a signed transaction through the node's
// executor without committing it.
func (c *Connection) SimulateTransaction(ctx context.Context, tx *txn.CompiledTransaction) (*SimulationResult, error) {
	wire, err := tx.Serialize()
	if err != nil {
		return nil, err
	}

	params := []interface{}{
		base64.StdEncoding.EncodeToString(wire),
		map[string]interface{}{
			"encoding":   "base64",
			"commitment": c.commitment,
		},
	}

	var result struct {
		Context rpcContext       `json:"context"`
		Value   SimulationResult `json:"value"`
	}
	if err := c.call(ctx, "simulateTransaction", params, &result); err != nil {
		return nil, err
	}
	return &result.Value, nil
}

// toAccount decodes the wire account's [data, encoding] pair.
func (r *rawAccount) toAccount() (*Account, error) {
	acct := &Account{
		Lamports:   r.Lamports,
		Owner:      r.Owner,
		Executable: r.Executable,
		RentEpoch:  r.RentEpoch,
	}
	if len(r.Data) >= 1 && r.Data[0] != "" {
		data, err := base64.StdEncoding.DecodeString(r.Data[0])
		if err != nil {
			return nil, fmt.Errorf("decode account data: %w", err)
		}
		acct.Data = data
	}
	return acct, nil
}
