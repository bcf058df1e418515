package keyring

import (
	"context"
	"fmt"
	"slices"

	"github.com/olehkaliuzhnyi/snap-keyring/internal/address"
	"github.com/olehkaliuzhnyi/snap-keyring/internal/casemap"
	"github.com/olehkaliuzhnyi/snap-keyring/internal/registry"
	"github.com/olehkaliuzhnyi/snap-keyring/pkg/models"
)

// Accounts returns the addresses of all accounts in host form.
func (k *Keyring) Accounts() []string {
	return uniqueAddresses(k.entries(), func(registry.Entry[models.Account]) bool { return true })
}

// AccountsBySnapID returns the addresses of the accounts owned by snapID.
func (k *Keyring) AccountsBySnapID(snapID string) []string {
	return uniqueAddresses(k.entries(), func(e registry.Entry[models.Account]) bool { return e.Owner == snapID })
}

// uniqueAddresses lists the host form of each matching address once.
func uniqueAddresses(entries []registry.Entry[models.Account], keep func(registry.Entry[models.Account]) bool) []string {
	seen := casemap.New[struct{}]()
	out := []string{}
	for _, e := range entries {
		if !keep(e) || seen.Has(e.Value.Address) {
			continue
		}
		seen.Set(e.Value.Address, struct{}{})
		out = append(out, address.HostForm(e.Value.Address))
	}
	return out
}

// ListAccounts returns every account with its host metadata. Snap details
// are omitted for snaps the directory cannot describe.
func (k *Keyring) ListAccounts(ctx context.Context) []models.InternalAccount {
	entries := k.entries()
	snaps := make(map[string]*models.SnapMetadata)
	out := make([]models.InternalAccount, 0, len(entries))
	for _, e := range entries {
		meta, seen := snaps[e.Owner]
		if !seen {
			meta = k.snapMetadata(ctx, e.Owner)
			snaps[e.Owner] = meta
		}
		out = append(out, k.internalAccount(e.Value, meta))
	}
	return out
}

// AccountByAddress returns the account registered under addr.
func (k *Keyring) AccountByAddress(ctx context.Context, addr string) (*models.InternalAccount, error) {
	acc, snapID, err := k.resolveAddress(addr)
	if err != nil {
		return nil, err
	}
	ia := k.internalAccount(acc, k.snapMetadata(ctx, snapID))
	return &ia, nil
}

func (k *Keyring) internalAccount(acc models.Account, snap *models.SnapMetadata) models.InternalAccount {
	acc.Address = address.HostForm(acc.Address)
	return models.InternalAccount{
		Account: acc,
		Metadata: models.AccountMetadata{
			Keyring: models.KeyringMetadata{Type: k.typ},
			Snap:    snap,
		},
	}
}

func (k *Keyring) snapMetadata(ctx context.Context, snapID string) *models.SnapMetadata {
	if k.directory == nil {
		return nil
	}
	info, err := k.directory.Snap(ctx, snapID)
	if err != nil {
		k.logger.Warn("snap lookup failed", "snap_id", snapID, "error", err)
		return nil
	}
	if info == nil {
		return nil
	}
	return &models.SnapMetadata{ID: snapID, Name: info.Name, Enabled: info.Enabled}
}

// RemoveAccount deletes the account registered under addr, then asks the
// owning snap to delete it too. A snap failure is logged and ignored.
func (k *Keyring) RemoveAccount(ctx context.Context, addr string) error {
	acc, snapID, err := k.resolveAddress(addr)
	if err != nil {
		return err
	}

	k.mu.Lock()
	k.accounts.Delete(snapID, acc.ID)
	k.mu.Unlock()

	if err := k.client.DeleteAccount(ctx, snapID, acc.ID); err != nil {
		k.logger.Warn("snap failed to delete account",
			"snap_id", snapID,
			"account_id", acc.ID,
			"error", err,
		)
	}
	return nil
}

// RemoveSnapAccounts drops every account owned by snapID, typically after
// the snap was uninstalled, and persists the result. It returns the number
// of accounts removed.
func (k *Keyring) RemoveSnapAccounts(ctx context.Context, snapID string) (int, error) {
	k.mu.Lock()
	var ids []string
	for e := range k.accounts.Values() {
		if e.Owner == snapID {
			ids = append(ids, e.Value.ID)
		}
	}
	for _, id := range ids {
		k.accounts.Delete(snapID, id)
	}
	k.mu.Unlock()

	if len(ids) == 0 {
		return 0, nil
	}
	k.logger.Info("removed snap accounts", "snap_id", snapID, "count", len(ids))
	if err := k.callbacks.SaveState(ctx); err != nil {
		return len(ids), fmt.Errorf("save state: %w", err)
	}
	return len(ids), nil
}

// AccountDrift lists the differences between the keyring and a snap.
type AccountDrift struct {
	// MissingInSnap are account ids the keyring holds but the snap does not.
	MissingInSnap []string `json:"missingInSnap"`
	// UnknownToKeyring are account ids the snap holds but the keyring does not.
	UnknownToKeyring []string `json:"unknownToKeyring"`
}

// InSync reports whether the keyring and the snap agree.
func (d *AccountDrift) InSync() bool {
	return len(d.MissingInSnap) == 0 && len(d.UnknownToKeyring) == 0
}

// CheckSnapAccounts compares the accounts held for snapID with the ones the
// snap reports. Nothing is changed on either side.
func (k *Keyring) CheckSnapAccounts(ctx context.Context, snapID string) (*AccountDrift, error) {
	remote, err := k.client.ListAccounts(ctx, snapID)
	if err != nil {
		return nil, fmt.Errorf("list snap accounts: %w", err)
	}

	theirs := casemap.New[struct{}]()
	for _, a := range remote {
		theirs.Set(a.ID, struct{}{})
	}

	drift := &AccountDrift{}
	ours := casemap.New[struct{}]()
	for _, e := range k.entries() {
		if e.Owner != snapID {
			continue
		}
		ours.Set(e.Value.ID, struct{}{})
		if !theirs.Has(e.Value.ID) {
			drift.MissingInSnap = append(drift.MissingInSnap, e.Value.ID)
		}
	}
	for _, a := range remote {
		if !ours.Has(a.ID) {
			drift.UnknownToKeyring = append(drift.UnknownToKeyring, a.ID)
		}
	}
	slices.Sort(drift.MissingInSnap)
	slices.Sort(drift.UnknownToKeyring)

	if !drift.InSync() {
		k.logger.Warn("snap accounts out of sync",
			"snap_id", snapID,
			"missing_in_snap", len(drift.MissingInSnap),
			"unknown_to_keyring", len(drift.UnknownToKeyring),
		)
	}
	return drift, nil
}
