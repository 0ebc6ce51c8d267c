package client

import (
	"context"
	"encoding/json"

	"solanakit/internal/keys"
)

// AccountNotification is one accountSubscribe event.
type AccountNotification struct {
	Slot    uint64
	Account Account
}

// ProgramAccountNotification is one programSubscribe event. Pubkey
// identifies which of the program's accounts changed.
type ProgramAccountNotification struct {
	Slot    uint64
	Pubkey  keys.PublicKey
	Account Account
}

// LogsNotification is one logsSubscribe event.
type LogsNotification struct {
	Slot      uint64
	Signature string
	Err       interface{}
	Logs      []string
}

// Subscribe opens a raw subscription: method and unsubMethod name the
// paired RPC calls, and handler receives each notification's result
// payload. Most callers want the typed On* wrappers instead.
func (c *Connection) Subscribe(ctx context.Context, method, unsubMethod string, params []interface{}, handler NotificationHandler) (int64, error) {
	ws, err := c.wsTransport(ctx)
	if err != nil {
		return 0, err
	}
	return ws.Subscribe(ctx, method, unsubMethod, params, handler)
}

// Unsubscribe tears down a subscription by its server-assigned id. The
// registry entry is removed even when the teardown call fails.
func (c *Connection) Unsubscribe(ctx context.Context, subID int64) error {
	return c.removeListener(ctx, subID)
}

// OnAccountChange registers a handler for state changes of one account.
// Returns the subscription id used to remove the listener.
func (c *Connection) OnAccountChange(ctx context.Context, pubkey keys.PublicKey, handler func(AccountNotification)) (int64, error) {
	ws, err := c.wsTransport(ctx)
	if err != nil {
		return 0, err
	}

	params := []interface{}{
		pubkey.Base58(),
		map[string]interface{}{
			"encoding":   "base64",
			"commitment": c.commitment,
		},
	}
	return ws.Subscribe(ctx, "accountSubscribe", "accountUnsubscribe", params, func(result json.RawMessage) {
		var payload struct {
			Context rpcContext `json:"context"`
			Value   rawAccount `json:"value"`
		}
		if err := json.Unmarshal(result, &payload); err != nil {
			c.logger.Printf("account notification: %v", err)
			return
		}
		acct, err := payload.Value.toAccount()
		if err != nil {
			c.logger.Printf("account notification: %v", err)
			return
		}
		handler(AccountNotification{Slot: payload.Context.Slot, Account: *acct})
	})
}

// RemoveAccountChangeListener drops an account subscription.
func (c *Connection) RemoveAccountChangeListener(ctx context.Context, subID int64) error {
	return c.removeListener(ctx, subID)
}

// OnLogs registers a handler for transaction logs mentioning the given
// address.
func (c *Connection) OnLogs(ctx context.Context, mentions keys.PublicKey, handler func(LogsNotification)) (int64, error) {
	ws, err := c.wsTransport(ctx)
	if err != nil {
		return 0, err
	}

	params := []interface{}{
		map[string]interface{}{
			"mentions": []string{mentions.Base58()},
		},
		map[string]interface{}{"commitment": c.commitment},
	}
	return ws.Subscribe(ctx, "logsSubscribe", "logsUnsubscribe", params, func(result json.RawMessage) {
		var payload struct {
			Context rpcContext `json:"context"`
			Value   struct {
				Signature string      `json:"signature"`
				Err       interface{} `json:"err"`
				Logs      []string    `json:"logs"`
			} `json:"value"`
		}
		if err := json.Unmarshal(result, &payload); err != nil {
			c.logger.Printf("logs notification: %v", err)
			return
		}
		handler(LogsNotification{
			Slot:      payload.Context.Slot,
			Signature: payload.Value.Signature,
			Err:       payload.Value.Err,
			Logs:      payload.Value.Logs,
		})
	})
}

// RemoveOnLogsListener drops a logs subscription.
func (c *Connection) RemoveOnLogsListener(ctx context.Context, subID int64) error {
	return c.removeListener(ctx, subID)
}

// OnProgramAccountChange registers a handler for changes to any account
// owned by the given program.
func (c *Connection) OnProgramAccountChange(ctx context.Context, programID keys.PublicKey, handler func(ProgramAccountNotification)) (int64, error) {
	ws, err := c.wsTransport(ctx)
	if err != nil {
		return 0, err
	}

	params := []interface{}{
		programID.Base58(),
		map[string]interface{}{
			"encoding":   "base64",
			"commitment": c.commitment,
		},
	}
	return ws.Subscribe(ctx, "programSubscribe", "programUnsubscribe", params, func(result json.RawMessage) {
		var payload struct {
			Context rpcContext `json:"context"`
			Value   struct {
				Pubkey  keys.PublicKey `json:"pubkey"`
				Account rawAccount     `json:"account"`
			} `json:"value"`
		}
		if err := json.Unmarshal(result, &payload); err != nil {
			c.logger.Printf("program notification: %v", err)
			return
		}
		acct, err := payload.Value.Account.toAccount()
		if err != nil {
			c.logger.Printf("program notification: %v", err)
			return
		}
		handler(ProgramAccountNotification{
			Slot:    payload.Context.Slot,
			Pubkey:  payload.Value.Pubkey,
			Account: *acct,
		})
	})
}

// RemoveProgramAccountChangeListener drops a program subscription.
func (c *Connection) RemoveProgramAccountChangeListener(ctx context.Context, subID int64) error {
	return c.removeListener(ctx, subID)
}

// OnSlotChange registers a handler for slot progression events.
func (c *Connection) OnSlotChange(ctx context.Context, handler func(SlotInfo)) (int64, error) {
	ws, err := c.wsTransport(ctx)
	if err != nil {
		return 0, err
	}

	return ws.Subscribe(ctx, "slotSubscribe", "slotUnsubscribe", nil, func(result json.RawMessage) {
		var info SlotInfo
		if err := json.Unmarshal(result, &info); err != nil {
			c.logger.Printf("slot notification: %v", err)
			return
		}
		handler(info)
	})
}

// RemoveSlotChangeListener drops a slot subscription.
func (c *Connection) RemoveSlotChangeListener(ctx context.Context, subID int64) error {
	return c.removeListener(ctx, subID)
}

func (c *Connection) removeListener(ctx context.Context, subID int64) error {
	c.wsMu.Lock()
	ws := c.ws
	c.wsMu.Unlock()
	if ws == nil {
		return nil
	}
	return ws.Unsubscribe(ctx, subID)
}
