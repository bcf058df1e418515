package keyring

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/olehkaliuzhnyi/snap-keyring/internal/events"
	"github.com/olehkaliuzhnyi/snap-keyring/pkg/models"
)

const (
	snapID      = "local:snap.mock"
	otherSnapID = "local:snap.other"

	accountID      = "b05d918a-b37c-497a-bb28-3d15c0d56b7a"
	otherAccountID = "33c96b60-2237-488e-a7bb-233576f3d22f"

	// EIP-55 checksummed; the host sees it lowercased.
	accountAddress = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	hostAddress    = "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
	otherAddress   = "0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359"
)

var errBoom = errors.New("boom")

// mockClient answers snap calls with a configurable function.
type mockClient struct {
	mu        sync.Mutex
	submitted []models.KeyringRequest
	deleted   []string

	submit    func(ctx context.Context, snapID string, req models.KeyringRequest) (*models.KeyringResponse, error)
	accounts  []models.Account
	listErr   error
	deleteErr error
}

func (m *mockClient) SubmitRequest(ctx context.Context, snapID string, req models.KeyringRequest) (*models.KeyringResponse, error) {
	m.mu.Lock()
	m.submitted = append(m.submitted, req)
	submit := m.submit
	m.mu.Unlock()

	if submit == nil {
		return nil, errors.New("unexpected request")
	}
	return submit(ctx, snapID, req)
}

func (m *mockClient) ListAccounts(ctx context.Context, snapID string) ([]models.Account, error) {
	return m.accounts, m.listErr
}

func (m *mockClient) DeleteAccount(ctx context.Context, snapID, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, snapID+"/"+accountID)
	return m.deleteErr
}

func (m *mockClient) requests() []models.KeyringRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.KeyringRequest(nil), m.submitted...)
}

// mockCallbacks stands in for the host.
type mockCallbacks struct {
	mu        sync.Mutex
	decline   bool
	existing  map[string]bool
	saves     int
	prompts   []string
	redirects []models.Redirect
	saveErr   error
	hints     []AccountHints
}

func (m *mockCallbacks) SaveState(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	return m.saveErr
}

func (m *mockCallbacks) AddressExists(ctx context.Context, address string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.existing[address], nil
}

func (m *mockCallbacks) AddAccount(ctx context.Context, address, snapID string, confirm ConfirmFunc) error {
	if h, ok := HintsFromContext(ctx); ok {
		m.mu.Lock()
		m.hints = append(m.hints, h)
		m.mu.Unlock()
	}
	return m.prompt(ctx, "add:"+address, confirm)
}

func (m *mockCallbacks) RemoveAccount(ctx context.Context, address, snapID string, confirm ConfirmFunc) error {
	return m.prompt(ctx, "remove:"+address, confirm)
}

func (m *mockCallbacks) prompt(ctx context.Context, what string, confirm ConfirmFunc) error {
	m.mu.Lock()
	m.prompts = append(m.prompts, what)
	accepted := !m.decline
	m.mu.Unlock()
	return confirm(ctx, accepted)
}

func (m *mockCallbacks) RedirectUser(ctx context.Context, snapID, url, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.redirects = append(m.redirects, models.Redirect{URL: url, Message: message})
	return nil
}

func (m *mockCallbacks) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// mockDirectory serves fixed snap descriptions.
type mockDirectory map[string]*models.SnapInfo

func (d mockDirectory) Snap(ctx context.Context, snapID string) (*models.SnapInfo, error) {
	return d[snapID], nil
}

func newTestKeyring(t *testing.T, opts ...Option) (*Keyring, *mockClient, *mockCallbacks) {
	t.Helper()
	client := &mockClient{}
	callbacks := &mockCallbacks{existing: map[string]bool{}}
	quiet := WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return New(client, callbacks, append([]Option{quiet}, opts...)...), client, callbacks
}

func newAccount(id, addr string, methods ...string) models.Account {
	if methods == nil {
		methods = []string{}
	}
	return models.Account{
		ID:      id,
		Address: addr,
		Options: map[string]any{},
		Methods: methods,
		Type:    models.AccountTypeEOA,
	}
}

func message(t *testing.T, method string, params any) events.Message {
	t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(t, err)
	return events.Message{Method: method, Params: raw}
}

func send(t *testing.T, k *Keyring, from, method string, params any) error {
	t.Helper()
	_, err := k.HandleMessage(context.Background(), from, message(t, method, params))
	return err
}

func createAccount(t *testing.T, k *Keyring, from string, acc models.Account) {
	t.Helper()
	require.NoError(t, send(t, k, from, events.MethodAccountCreated, map[string]any{"account": acc}))
}

func approve(t *testing.T, k *Keyring, from, id string, result any) error {
	t.Helper()
	return send(t, k, from, events.MethodRequestApproved, map[string]any{"id": id, "result": result})
}

// syncResult answers every request immediately with result.
func syncResult(result any) func(context.Context, string, models.KeyringRequest) (*models.KeyringResponse, error) {
	return func(context.Context, string, models.KeyringRequest) (*models.KeyringResponse, error) {
		raw, err := json.Marshal(result)
		if err != nil {
			return nil, err
		}
		return &models.KeyringResponse{Result: raw}, nil
	}
}
