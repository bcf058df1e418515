package keyring

import (
	"context"
	"errors"
	"fmt"

	"github.com/olehkaliuzhnyi/snap-keyring/internal/address"
	"github.com/olehkaliuzhnyi/snap-keyring/internal/events"
	"github.com/olehkaliuzhnyi/snap-keyring/internal/kerr"
	"github.com/olehkaliuzhnyi/snap-keyring/internal/registry"
	"github.com/olehkaliuzhnyi/snap-keyring/pkg/models"
)

// ErrRequestRejected is returned to the caller of a signing operation when
// the snap rejects the request.
var ErrRequestRejected = errors.New("request rejected by user or snap")

// AccountHints are the snap's suggestions for the add-account prompt.
type AccountHints struct {
	NameSuggestion      string
	DisplayConfirmation bool
}

type hintsKey struct{}

// HintsFromContext returns the hints attached to the context passed to
// Callbacks.AddAccount.
func HintsFromContext(ctx context.Context) (AccountHints, bool) {
	h, ok := ctx.Value(hintsKey{}).(AccountHints)
	return h, ok
}

// HandleMessage processes a lifecycle event sent by snapID. All events
// answer with a nil value on success.
func (k *Keyring) HandleMessage(ctx context.Context, snapID string, msg events.Message) (any, error) {
	ev, err := events.Decode(msg)
	if err != nil {
		return nil, err
	}
	k.logger.Debug("snap message", "snap_id", snapID, "method", ev.Method())

	switch ev := ev.(type) {
	case events.AccountCreated:
		return nil, k.handleAccountCreated(ctx, snapID, ev)
	case events.AccountUpdated:
		return nil, k.handleAccountUpdated(ctx, snapID, ev)
	case events.AccountDeleted:
		return nil, k.handleAccountDeleted(ctx, snapID, ev)
	case events.RequestApproved:
		return nil, k.handleRequestApproved(snapID, ev)
	case events.RequestRejected:
		return nil, k.handleRequestRejected(snapID, ev)
	default:
		return nil, kerr.Unsupported("method not supported: %s", ev.Method())
	}
}

func (k *Keyring) handleAccountCreated(ctx context.Context, snapID string, ev events.AccountCreated) error {
	acc := ev.Account
	hostAddr := address.HostForm(acc.Address)

	exists, err := k.callbacks.AddressExists(ctx, hostAddr)
	if err != nil {
		return fmt.Errorf("check address: %w", err)
	}
	if exists {
		return kerr.Validation("account address '%s' already exists", hostAddr)
	}

	k.mu.Lock()
	dup := k.accounts.Has(snapID, acc.ID)
	k.mu.Unlock()
	if dup {
		return kerr.Validation("account '%s' already exists", acc.ID)
	}

	confirm := func(ctx context.Context, accepted bool) error {
		if !accepted {
			k.logger.Info("account creation declined", "snap_id", snapID, "account_id", acc.ID)
			return nil
		}
		k.mu.Lock()
		err := k.accounts.Set(acc.ID, registry.Entry[models.Account]{Value: acc, Owner: snapID})
		k.mu.Unlock()
		if err != nil {
			return err
		}
		k.logger.Info("account created", "snap_id", snapID, "account_id", acc.ID, "address", hostAddr)
		return k.callbacks.SaveState(ctx)
	}

	hints := AccountHints{NameSuggestion: ev.AccountNameSuggestion, DisplayConfirmation: true}
	if ev.DisplayConfirmation != nil {
		hints.DisplayConfirmation = *ev.DisplayConfirmation
	}
	ctx = context.WithValue(ctx, hintsKey{}, hints)
	if err := k.callbacks.AddAccount(ctx, hostAddr, snapID, confirm); err != nil {
		return fmt.Errorf("add account: %w", err)
	}
	return nil
}

func (k *Keyring) handleAccountUpdated(ctx context.Context, snapID string, ev events.AccountUpdated) error {
	acc := ev.Account

	k.mu.Lock()
	old, ok := k.accounts.Get(snapID, acc.ID)
	if !ok {
		k.mu.Unlock()
		return kerr.NotFound("Account", acc.ID)
	}
	if !address.Equal(old.Address, acc.Address) {
		k.mu.Unlock()
		return kerr.Validation("cannot change address of account '%s'", acc.ID)
	}
	err := k.accounts.Set(acc.ID, registry.Entry[models.Account]{Value: acc, Owner: snapID})
	k.mu.Unlock()
	if err != nil {
		return err
	}

	k.logger.Info("account updated", "snap_id", snapID, "account_id", acc.ID)
	return k.callbacks.SaveState(ctx)
}

func (k *Keyring) handleAccountDeleted(ctx context.Context, snapID string, ev events.AccountDeleted) error {
	k.mu.Lock()
	acc, ok := k.accounts.Get(snapID, ev.ID)
	k.mu.Unlock()
	if !ok {
		// Already gone, or owned by another snap.
		return nil
	}

	confirm := func(ctx context.Context, accepted bool) error {
		if !accepted {
			k.logger.Info("account removal declined", "snap_id", snapID, "account_id", ev.ID)
			return nil
		}
		k.mu.Lock()
		k.accounts.Delete(snapID, ev.ID)
		k.mu.Unlock()
		k.logger.Info("account deleted", "snap_id", snapID, "account_id", ev.ID)
		return k.callbacks.SaveState(ctx)
	}

	if err := k.callbacks.RemoveAccount(ctx, address.HostForm(acc.Address), snapID, confirm); err != nil {
		return fmt.Errorf("remove account: %w", err)
	}
	return nil
}

func (k *Keyring) handleRequestApproved(snapID string, ev events.RequestApproved) error {
	req, err := k.takeRequest(snapID, ev.ID)
	if err != nil {
		return err
	}
	req.cell.Resolve(ev.Result)
	return nil
}

func (k *Keyring) handleRequestRejected(snapID string, ev events.RequestRejected) error {
	req, err := k.takeRequest(snapID, ev.ID)
	if err != nil {
		return err
	}
	req.cell.Reject(ErrRequestRejected)
	return nil
}

// takeRequest removes and returns the pending request id owned by snapID.
func (k *Keyring) takeRequest(snapID, id string) (*pendingRequest, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	req, ok := k.requests.Get(snapID, id)
	if !ok {
		return nil, kerr.NotFound("Request", id)
	}
	k.requests.Delete(snapID, id)
	return req, nil
}
