package walletclient

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/evmbridge/sdk-go/core/types"
)

// Names the bridge calls back on.
const (
	CallbackAccountChanged       = "OnAccountChanged"
	CallbackChainIDChanged       = "OnChainIdChanged"
	CallbackTransactionConfirmed = "OnTransactionConfirmed"
)

// InvokeMethod receives a callback from the bridge and re-raises it as an event.
func (c *Client) InvokeMethod(_ context.Context, method string, args ...json.RawMessage) error {
	var err error
	switch method {
	case CallbackAccountChanged:
		err = c.handleAccountChanged(arg(args, 0), arg(args, 1))
	case CallbackChainIDChanged:
		err = c.handleChainIDChanged(arg(args, 0), arg(args, 1))
	case CallbackTransactionConfirmed:
		err = c.handleTransactionConfirmed(arg(args, 0))
	default:
		err = errors.Errorf("unknown callback %q", method)
	}
	if err != nil {
		c.logger.Error("bridge callback failed", zap.String("method", method), zap.Error(err))
	}
	return err
}

func arg(args []json.RawMessage, i int) json.RawMessage {
	if i >= len(args) {
		return nil
	}
	return args[i]
}

// unwrapJSONText returns the JSON document carried by raw. The bridge sends
// snapshots as JSON text inside a JSON string; a bare document is accepted too.
func unwrapJSONText(raw json.RawMessage) (*string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if raw[0] != '"' {
		s := string(raw)
		return &s, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errors.WithStack(err)
	}
	return &s, nil
}

func (c *Client) handleAccountChanged(current, previous json.RawMessage) error {
	cur, err := c.decodeAccount(current)
	if err != nil {
		return err
	}
	prev, err := c.decodeAccount(previous)
	if err != nil {
		return err
	}
	c.accountChanged.emit(types.AccountChangedEvent{Current: cur, Previous: prev})
	return nil
}

func (c *Client) decodeAccount(raw json.RawMessage) (*types.AccountSnapshot, error) {
	text, err := unwrapJSONText(raw)
	if err != nil {
		return nil, err
	}
	return decodeOptional[types.AccountSnapshot](CallbackAccountChanged, text)
}

func (c *Client) handleChainIDChanged(current, previous json.RawMessage) error {
	cur, err := decodeChainID(current)
	if err != nil {
		return errors.Wrap(err, "decode current chain id")
	}
	prev, err := decodeChainID(previous)
	if err != nil {
		return errors.Wrap(err, "decode previous chain id")
	}
	c.chainIDChanged.emit(types.ChainIDChangedEvent{Current: cur, Previous: prev})
	return nil
}

// decodeChainID returns nil for a missing or null id.
func decodeChainID(raw json.RawMessage) (*int64, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var id *int64
	if err := json.Unmarshal(raw, &id); err != nil {
		return nil, errors.WithStack(err)
	}
	return id, nil
}

// handleTransactionConfirmed fails loudly on a receipt it cannot decode so a
// confirmation is never dropped unnoticed. A null receipt raises nothing.
func (c *Client) handleTransactionConfirmed(raw json.RawMessage) error {
	text, err := unwrapJSONText(raw)
	if err != nil {
		return &DecodeError{Method: CallbackTransactionConfirmed, Raw: string(raw), Err: err}
	}
	receipt, err := decodeOptional[types.TransactionReceipt](CallbackTransactionConfirmed, text)
	if err != nil {
		return err
	}
	if receipt == nil {
		return nil
	}
	c.transactionConfirmed.emit(types.TransactionConfirmedEvent{Receipt: receipt})
	return nil
}
