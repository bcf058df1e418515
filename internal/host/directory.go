package host

import (
	"context"
	"sync"

	"github.com/olehkaliuzhnyi/snap-keyring/pkg/models"
)

// Directory is an in-memory snap registry. It implements
// keyring.Directory.
type Directory struct {
	mu    sync.RWMutex
	snaps map[string]models.SnapInfo
}

func NewDirectory() *Directory {
	return &Directory{snaps: make(map[string]models.SnapInfo)}
}

// Register adds or replaces a snap.
func (d *Directory) Register(snapID string, info models.SnapInfo) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.snaps[snapID] = info
}

// Remove forgets a snap.
func (d *Directory) Remove(snapID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.snaps, snapID)
}

// SetEnabled flips a registered snap's enabled flag.
func (d *Directory) SetEnabled(snapID string, enabled bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	info, ok := d.snaps[snapID]
	if !ok {
		return false
	}
	info.Enabled = enabled
	d.snaps[snapID] = info
	return true
}

// Snap returns a copy of the snap's info, or nil if it is unknown.
func (d *Directory) Snap(ctx context.Context, snapID string) (*models.SnapInfo, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	info, ok := d.snaps[snapID]
	if !ok {
		return nil, nil
	}
	info.AllowedOrigins = append([]string(nil), info.AllowedOrigins...)
	return &info, nil
}
