package keyring

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"slices"

	"github.com/google/uuid"

	"github.com/olehkaliuzhnyi/snap-keyring/internal/deferred"
	"github.com/olehkaliuzhnyi/snap-keyring/internal/kerr"
	"github.com/olehkaliuzhnyi/snap-keyring/internal/registry"
	"github.com/olehkaliuzhnyi/snap-keyring/pkg/models"
)

// submitRequest forwards method to the snap owning addr and returns the
// snap's raw result, waiting for an approval event if the snap answers
// asynchronously.
func (k *Keyring) submitRequest(ctx context.Context, addr, method string, params any, scope string) (json.RawMessage, error) {
	acc, snapID, err := k.resolveAddress(addr)
	if err != nil {
		return nil, err
	}
	if !acc.Supports(method) {
		return nil, kerr.Unsupported("method '%s' not supported for account %s", method, acc.Address)
	}

	// The record must exist before dispatch: the snap may answer while the
	// client call is still in flight.
	cell := deferred.New[json.RawMessage]()
	k.mu.Lock()
	id := uuid.NewString()
	for k.requests.Has(snapID, id) {
		id = uuid.NewString()
	}
	err = k.requests.Set(id, registry.Entry[*pendingRequest]{Value: &pendingRequest{cell: cell}, Owner: snapID})
	k.mu.Unlock()
	if err != nil {
		return nil, err
	}

	log := k.logger.With("snap_id", snapID, "request_id", id, "method", method)
	log.Debug("submitting request", "account_id", acc.ID, "scope", scope)

	resp, err := k.client.SubmitRequest(ctx, snapID, models.KeyringRequest{
		ID:      id,
		Scope:   scope,
		Account: acc.ID,
		Request: models.Request{Method: method, Params: params},
	})
	if err != nil {
		k.dropRequest(snapID, id)
		return nil, kerr.Remote(snapID, err)
	}

	if !resp.Pending {
		k.dropRequest(snapID, id)
		log.Debug("request answered synchronously")
		return resp.Result, nil
	}

	if r := resp.Redirect; r != nil && (r.URL != "" || r.Message != "") {
		if r.URL != "" {
			if err := k.checkRedirect(ctx, snapID, r.URL); err != nil {
				k.dropRequest(snapID, id)
				return nil, err
			}
		}
		if err := k.callbacks.RedirectUser(ctx, snapID, r.URL, r.Message); err != nil {
			k.dropRequest(snapID, id)
			return nil, fmt.Errorf("redirect user: %w", err)
		}
	}

	log.Debug("waiting for snap")
	// Cancelling ctx stops this caller waiting; the request stays pending
	// until the snap approves or rejects it.
	return cell.Wait(ctx)
}

func (k *Keyring) dropRequest(snapID, id string) {
	k.mu.Lock()
	k.requests.Delete(snapID, id)
	k.mu.Unlock()
}

// checkRedirect verifies that rawURL points to an origin snapID declared.
// Without a directory there is nothing to check against.
func (k *Keyring) checkRedirect(ctx context.Context, snapID, rawURL string) error {
	if k.directory == nil {
		return nil
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return kerr.Validation("invalid redirect URL %q", rawURL)
	}
	origin := u.Scheme + "://" + u.Host

	info, err := k.directory.Snap(ctx, snapID)
	if err != nil {
		return fmt.Errorf("look up snap %q: %w", snapID, err)
	}
	if info == nil {
		return kerr.NotFound("Snap", snapID)
	}
	if !slices.Contains(info.AllowedOrigins, origin) {
		return kerr.Validation("redirect URL domain '%s' is not an allowed origin by snap '%s'", origin, snapID)
	}
	return nil
}
