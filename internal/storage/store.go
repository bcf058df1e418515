// Package storage persists the keyring state on behalf of the host.
package storage

import (
	"context"
	"errors"

	"github.com/olehkaliuzhnyi/snap-keyring/pkg/models"
)

// StateStore holds the single serialized keyring state.
type StateStore interface {
	// Load returns the saved state, or nil if nothing was saved yet.
	Load(ctx context.Context) (*models.KeyringState, error)
	// Save replaces the saved state.
	Save(ctx context.Context, state *models.KeyringState) error
}

// ErrNilState is returned when asked to save a nil state.
var ErrNilState = errors.New("storage: nil keyring state")
