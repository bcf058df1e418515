package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/olehkaliuzhnyi/snap-keyring/internal/host"
	"github.com/olehkaliuzhnyi/snap-keyring/internal/keyring"
	"github.com/olehkaliuzhnyi/snap-keyring/internal/snapclient"
	"github.com/olehkaliuzhnyi/snap-keyring/internal/storage"
)

var errSnapsOffline = errors.New("snaps are not reachable from keyringctl")

// offline stands in for the snap transport when the keyring runs outside
// its host. Every call fails; the keyring tolerates that where it can.
var offline = snapclient.TransportFunc(func(context.Context, string, snapclient.Call) ([]byte, error) {
	return nil, errSnapsOffline
})

// session is a keyring restored from the state database.
type session struct {
	store   *storage.SQLiteStateStore
	host    *host.Host
	keyring *keyring.Keyring
}

func openSession(ctx context.Context, opts *RootOptions) (*session, error) {
	cfg := opts.Config
	slog.Debug("opening state database", "path", cfg.StatePath)
	store, err := storage.OpenSQLite(cfg.StatePath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	rt := host.NewRuntime(cfg, store, offline)
	if err := rt.Host.Restore(ctx); err != nil {
		store.Close()
		return nil, WrapExitError(ExitCommandError, "failed to restore keyring", err)
	}
	return &session{store: store, host: rt.Host, keyring: rt.Keyring}, nil
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}
