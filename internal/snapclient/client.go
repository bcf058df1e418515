// Package snapclient calls a snap's keyring handler with JSON-RPC 2.0
// requests over a host-provided transport.
package snapclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/olehkaliuzhnyi/snap-keyring/pkg/models"
)

// Keyring RPC methods understood by snaps.
const (
	MethodSubmitRequest = "keyring_submitRequest"
	MethodListAccounts  = "keyring_listAccounts"
	MethodDeleteAccount = "keyring_deleteAccount"
)

const (
	DefaultOrigin = "metamask"
	HandlerName   = "onKeyringRequest"
)

// Call is one invocation of a snap handler.
type Call struct {
	Origin  string  `json:"origin"`
	Handler string  `json:"handler"`
	Request Request `json:"request"`
}

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is an error returned by the snap.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("snap error %d: %s", e.Code, e.Message)
}

// Transport delivers a call to snapID and returns the raw JSON-RPC response.
type Transport interface {
	Invoke(ctx context.Context, snapID string, call Call) ([]byte, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, snapID string, call Call) ([]byte, error)

func (f TransportFunc) Invoke(ctx context.Context, snapID string, call Call) ([]byte, error) {
	return f(ctx, snapID, call)
}

// Client is the keyring's view of the snaps.
type Client struct {
	transport Transport
	origin    string
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithOrigin sets the origin announced to snaps.
func WithOrigin(origin string) Option {
	return func(c *Client) {
		if origin != "" {
			c.origin = origin
		}
	}
}

// New returns a Client sending calls through transport.
func New(transport Transport, opts ...Option) *Client {
	c := &Client{
		transport: transport,
		origin:    DefaultOrigin,
		logger:    slog.Default().With("component", "snap_client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) call(ctx context.Context, snapID, method string, params any, out any) error {
	req := Request{JSONRPC: "2.0", ID: uuid.NewString(), Method: method, Params: params}
	c.logger.Debug("invoking snap", "snap_id", snapID, "method", method, "rpc_id", req.ID)

	raw, err := c.transport.Invoke(ctx, snapID, Call{Origin: c.origin, Handler: HandlerName, Request: req})
	if err != nil {
		return fmt.Errorf("invoke %s: %w", method, err)
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if resp.ID != req.ID {
		return fmt.Errorf("%s: response id %q does not match request id %q", method, resp.ID, req.ID)
	}
	if resp.Error != nil {
		return resp.Error
	}
	if out == nil {
		return nil
	}
	if len(resp.Result) == 0 {
		return fmt.Errorf("%s: response has no result", method)
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}

// SubmitRequest implements keyring.Client.
func (c *Client) SubmitRequest(ctx context.Context, snapID string, req models.KeyringRequest) (*models.KeyringResponse, error) {
	var resp models.KeyringResponse
	if err := c.call(ctx, snapID, MethodSubmitRequest, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Pending && len(resp.Result) == 0 {
		return nil, fmt.Errorf("%s: synchronous response has no result", MethodSubmitRequest)
	}
	return &resp, nil
}

// ListAccounts implements keyring.Client.
func (c *Client) ListAccounts(ctx context.Context, snapID string) ([]models.Account, error) {
	var accounts []models.Account
	if err := c.call(ctx, snapID, MethodListAccounts, nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// DeleteAccount implements keyring.Client.
func (c *Client) DeleteAccount(ctx context.Context, snapID, accountID string) error {
	return c.call(ctx, snapID, MethodDeleteAccount, map[string]string{"id": accountID}, nil)
}
