// Package keyring bridges the host's keyring controller and the snaps that
// provide accounts.
//
// The Keyring keeps the authoritative record of which snap owns which
// account, forwards signing requests to the owning snap, and correlates the
// snap's asynchronous answers back to the waiting caller. Snap notifications
// enter through HandleMessage; host operations are plain method calls.
package keyring

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/olehkaliuzhnyi/snap-keyring/internal/address"
	"github.com/olehkaliuzhnyi/snap-keyring/internal/casemap"
	"github.com/olehkaliuzhnyi/snap-keyring/internal/deferred"
	"github.com/olehkaliuzhnyi/snap-keyring/internal/kerr"
	"github.com/olehkaliuzhnyi/snap-keyring/internal/registry"
	"github.com/olehkaliuzhnyi/snap-keyring/pkg/models"
)

// Client invokes a snap's keyring handler.
type Client interface {
	// SubmitRequest forwards a signing request to the snap.
	SubmitRequest(ctx context.Context, snapID string, req models.KeyringRequest) (*models.KeyringResponse, error)
	// ListAccounts returns the accounts the snap believes it owns.
	ListAccounts(ctx context.Context, snapID string) ([]models.Account, error)
	// DeleteAccount asks the snap to delete an account.
	DeleteAccount(ctx context.Context, snapID, accountID string) error
}

// ConfirmFunc is handed to the host along with an account change. The host
// calls it once the user has decided.
type ConfirmFunc func(ctx context.Context, accepted bool) error

// Callbacks are provided by the host.
type Callbacks interface {
	SaveState(ctx context.Context) error
	AddressExists(ctx context.Context, address string) (bool, error)
	AddAccount(ctx context.Context, address, snapID string, confirm ConfirmFunc) error
	RemoveAccount(ctx context.Context, address, snapID string, confirm ConfirmFunc) error
	RedirectUser(ctx context.Context, snapID, url, message string) error
}

// Directory looks snaps up in the host's snap registry. A nil SnapInfo
// means the snap is unknown.
type Directory interface {
	Snap(ctx context.Context, snapID string) (*models.SnapInfo, error)
}

// pendingRequest is a request waiting for the snap's approval or rejection.
type pendingRequest struct {
	cell *deferred.Cell[json.RawMessage]
}

// Keyring is the snap keyring bridge. It is safe for concurrent use; the
// registries are guarded by mu, which is never held while calling out to
// the client or the host.
type Keyring struct {
	client    Client
	callbacks Callbacks
	directory Directory
	typ       string
	logger    *slog.Logger

	mu       sync.Mutex
	accounts *registry.Registry[models.Account]
	requests *registry.Registry[*pendingRequest]
}

// Option configures a Keyring.
type Option func(*Keyring)

// WithDirectory sets the snap directory used for listing metadata and
// redirect URL checks.
func WithDirectory(d Directory) Option {
	return func(k *Keyring) {
		k.directory = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(k *Keyring) {
		k.logger = l
	}
}

// WithType overrides the keyring type reported to the host.
func WithType(typ string) Option {
	return func(k *Keyring) {
		if typ != "" {
			k.typ = typ
		}
	}
}

// New returns an empty Keyring.
func New(client Client, callbacks Callbacks, opts ...Option) *Keyring {
	k := &Keyring{
		client:    client,
		callbacks: callbacks,
		typ:       models.KeyringType,
		logger:    slog.Default().With("component", "snap_keyring"),
		accounts:  registry.New[models.Account](),
		requests:  registry.New[*pendingRequest](),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Type returns the keyring type.
func (k *Keyring) Type() string {
	return k.typ
}

// Serialize exports the account registry. Pending requests are not part of
// the state.
func (k *Keyring) Serialize() *models.KeyringState {
	k.mu.Lock()
	defer k.mu.Unlock()

	state := &models.KeyringState{Accounts: make(map[string]models.AccountEntry, k.accounts.Len())}
	for id, e := range k.accounts.ToMap() {
		state.Accounts[id] = models.AccountEntry{Account: e.Value, SnapID: e.Owner}
	}
	return state
}

// Deserialize replaces the account registry with state. A nil state is a
// fresh keyring and leaves the registry untouched.
func (k *Keyring) Deserialize(state *models.KeyringState) error {
	if state == nil {
		return nil
	}
	if state.Accounts == nil {
		return kerr.Validation("keyring state: missing field \"accounts\"")
	}

	entries := make(map[string]registry.Entry[models.Account], len(state.Accounts))
	for id, e := range state.Accounts {
		if e.SnapID == "" {
			return kerr.Validation("keyring state: account %q has no snap id", id)
		}
		if casemap.Fold(id) != casemap.Fold(e.Account.ID) {
			return kerr.Validation("keyring state: key %q does not match account id %q", id, e.Account.ID)
		}
		entries[id] = registry.Entry[models.Account]{Value: e.Account, Owner: e.SnapID}
	}

	k.mu.Lock()
	k.accounts = registry.FromMap(entries)
	k.mu.Unlock()
	return nil
}

// resolveAddress finds the account registered under addr, ignoring case.
func (k *Keyring) resolveAddress(addr string) (models.Account, string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for e := range k.accounts.Values() {
		if address.Equal(e.Value.Address, addr) {
			return e.Value, e.Owner, nil
		}
	}
	return models.Account{}, "", kerr.NotFound("Account", addr)
}

// entries returns a snapshot of the account registry.
func (k *Keyring) entries() []registry.Entry[models.Account] {
	k.mu.Lock()
	defer k.mu.Unlock()

	out := make([]registry.Entry[models.Account], 0, k.accounts.Len())
	for e := range k.accounts.Values() {
		out = append(out, e)
	}
	return out
}

// PendingRequests returns the number of requests waiting for a snap.
func (k *Keyring) PendingRequests() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.requests.Len()
}
