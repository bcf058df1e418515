package host

import (
	"github.com/olehkaliuzhnyi/snap-keyring/internal/config"
	"github.com/olehkaliuzhnyi/snap-keyring/internal/events"
	"github.com/olehkaliuzhnyi/snap-keyring/internal/keyring"
	"github.com/olehkaliuzhnyi/snap-keyring/internal/snapclient"
	"github.com/olehkaliuzhnyi/snap-keyring/internal/storage"
)

// Runtime is a keyring wired to its host, snap client and event pump.
type Runtime struct {
	Host      *Host
	Keyring   *keyring.Keyring
	Pump      *events.Pump
	Directory *Directory
}

// NewRuntime assembles a Runtime from cfg. The pump is not started.
func NewRuntime(cfg config.Config, store storage.StateStore, transport snapclient.Transport, opts ...Option) *Runtime {
	dir := NewDirectory()
	h := New(store, AutoApprove(cfg.AutoApprove), dir, opts...)
	client := snapclient.New(transport, snapclient.WithOrigin(cfg.Origin))
	k := keyring.New(client, h,
		keyring.WithDirectory(dir),
		keyring.WithType(cfg.KeyringType),
	)
	h.SetKeyring(k)

	return &Runtime{
		Host:      h,
		Keyring:   k,
		Pump:      events.NewPump(k, cfg.EventBuffer),
		Directory: dir,
	}
}
