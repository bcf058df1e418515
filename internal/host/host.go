// Package host is a standalone host for the snap keyring: it persists the
// keyring state, decides on account changes and keeps the snap directory.
package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/olehkaliuzhnyi/snap-keyring/internal/kerr"
	"github.com/olehkaliuzhnyi/snap-keyring/internal/keyring"
	"github.com/olehkaliuzhnyi/snap-keyring/internal/storage"
)

// ErrNoKeyring is returned when the host is used before SetKeyring.
var ErrNoKeyring = errors.New("host: keyring not attached")

// Action kinds submitted to an Approver.
const (
	ActionAddAccount    = "add_account"
	ActionRemoveAccount = "remove_account"
)

// Action is an account change waiting for the user's decision.
type Action struct {
	Kind    string
	Address string
	SnapID  string

	// Set for ActionAddAccount from the snap's hints.
	NameSuggestion      string
	DisplayConfirmation bool
}

// Approver decides on account changes.
type Approver interface {
	Approve(ctx context.Context, action Action) (bool, error)
}

// ApproverFunc adapts a function to Approver.
type ApproverFunc func(ctx context.Context, action Action) (bool, error)

func (f ApproverFunc) Approve(ctx context.Context, action Action) (bool, error) {
	return f(ctx, action)
}

// AutoApprove returns an Approver that always answers accept.
func AutoApprove(accept bool) Approver {
	return ApproverFunc(func(context.Context, Action) (bool, error) {
		return accept, nil
	})
}

// Host implements keyring.Callbacks.
type Host struct {
	store      storage.StateStore
	approver   Approver
	directory  *Directory
	lookup     func(ctx context.Context, address string) (bool, error)
	onRedirect func(snapID, url, message string)
	logger     *slog.Logger

	keyring *keyring.Keyring
}

// Option configures a Host.
type Option func(*Host)

// WithApprover replaces the consent policy.
func WithApprover(a Approver) Option {
	return func(h *Host) {
		if a != nil {
			h.approver = a
		}
	}
}

// WithAddressLookup adds a check against accounts held outside the snap
// keyring, such as the host's other keyrings.
func WithAddressLookup(fn func(ctx context.Context, address string) (bool, error)) Option {
	return func(h *Host) {
		h.lookup = fn
	}
}

// WithRedirectHandler is called for every redirect a snap asks for.
func WithRedirectHandler(fn func(snapID, url, message string)) Option {
	return func(h *Host) {
		h.onRedirect = fn
	}
}

// New returns a Host persisting to store. A nil approver declines every
// change.
func New(store storage.StateStore, approver Approver, directory *Directory, opts ...Option) *Host {
	if approver == nil {
		approver = AutoApprove(false)
	}
	if directory == nil {
		directory = NewDirectory()
	}
	h := &Host{
		store:     store,
		approver:  approver,
		directory: directory,
		logger:    slog.Default().With("component", "host"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SetKeyring attaches the keyring whose callbacks this host serves.
func (h *Host) SetKeyring(k *keyring.Keyring) {
	h.keyring = k
}

// Directory returns the snap directory.
func (h *Host) Directory() *Directory {
	return h.directory
}

// Restore loads the persisted state into the keyring.
func (h *Host) Restore(ctx context.Context) error {
	if h.keyring == nil {
		return ErrNoKeyring
	}
	state, err := h.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if err := h.keyring.Deserialize(state); err != nil {
		return fmt.Errorf("restore state: %w", err)
	}
	h.logger.Info("keyring state restored", "accounts", len(h.keyring.Accounts()))
	return nil
}

// SaveState persists the keyring.
func (h *Host) SaveState(ctx context.Context) error {
	if h.keyring == nil {
		return ErrNoKeyring
	}
	if err := h.store.Save(ctx, h.keyring.Serialize()); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// AddressExists reports whether address is already held by the snap
// keyring or by the extra lookup.
func (h *Host) AddressExists(ctx context.Context, address string) (bool, error) {
	if h.keyring == nil {
		return false, ErrNoKeyring
	}
	_, err := h.keyring.AccountByAddress(ctx, address)
	switch {
	case err == nil:
		return true, nil
	case !kerr.IsNotFound(err):
		return false, err
	}
	if h.lookup != nil {
		return h.lookup(ctx, address)
	}
	return false, nil
}

// AddAccount asks the approver and reports its decision through confirm.
func (h *Host) AddAccount(ctx context.Context, address, snapID string, confirm keyring.ConfirmFunc) error {
	action := Action{Kind: ActionAddAccount, Address: address, SnapID: snapID, DisplayConfirmation: true}
	if hints, ok := keyring.HintsFromContext(ctx); ok {
		action.NameSuggestion = hints.NameSuggestion
		action.DisplayConfirmation = hints.DisplayConfirmation
	}
	return h.decide(ctx, action, confirm)
}

// RemoveAccount asks the approver and reports its decision through confirm.
func (h *Host) RemoveAccount(ctx context.Context, address, snapID string, confirm keyring.ConfirmFunc) error {
	return h.decide(ctx, Action{Kind: ActionRemoveAccount, Address: address, SnapID: snapID}, confirm)
}

func (h *Host) decide(ctx context.Context, action Action, confirm keyring.ConfirmFunc) error {
	accepted, err := h.approver.Approve(ctx, action)
	if err != nil {
		return fmt.Errorf("approve %s: %w", action.Kind, err)
	}
	h.logger.Info("account change decided",
		"action", action.Kind,
		"snap_id", action.SnapID,
		"address", action.Address,
		"accepted", accepted,
	)
	return confirm(ctx, accepted)
}

// RedirectUser logs the redirect and hands it to the redirect handler.
func (h *Host) RedirectUser(ctx context.Context, snapID, url, message string) error {
	h.logger.Info("snap redirects user", "snap_id", snapID, "url", url, "message", message)
	if h.onRedirect != nil {
		h.onRedirect(snapID, url, message)
	}
	return nil
}

// UninstallSnap forgets snapID and every account it owned.
func (h *Host) UninstallSnap(ctx context.Context, snapID string) error {
	if h.keyring == nil {
		return ErrNoKeyring
	}
	h.directory.Remove(snapID)
	n, err := h.keyring.RemoveSnapAccounts(ctx, snapID)
	if err != nil {
		return err
	}
	h.logger.Info("snap uninstalled", "snap_id", snapID, "accounts_removed", n)
	return nil
}
