package snapshot

import (
	"context"
	"encoding/json"
	"time"

	"github.com/complypoint/complyctl/pkg/intake"
)

// WizardStore adapts Store to the wizard's persistence interface, JSON
// encoding the snapshot under a fixed key.
type WizardStore struct {
	store *Store
	key   string
}

var _ intake.SnapshotStore = (*WizardStore)(nil)

func NewWizardStore(store *Store) *WizardStore {
	return &WizardStore{store: store, key: DefaultKey}
}

func (ws *WizardStore) Save(snap intake.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return ws.store.Put(context.Background(), ws.key, payload, snap.SavedAt)
}

func (ws *WizardStore) Clear() error {
	return ws.store.Clear(context.Background(), ws.key)
}

// Load returns the stored snapshot if one exists and is still fresh. Stale
// snapshots are discarded on sight and never offered for restoration.
func (ws *WizardStore) Load(ctx context.Context, now time.Time) (intake.Snapshot, bool, error) {
	payload, savedAt, ok, err := ws.store.Get(ctx, ws.key)
	if err != nil || !ok {
		return intake.Snapshot{}, false, err
	}
	if !Fresh(savedAt, now, DefaultFreshness) {
		_ = ws.store.Clear(ctx, ws.key)
		return intake.Snapshot{}, false, nil
	}
	var snap intake.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return intake.Snapshot{}, false, err
	}
	if snap.SavedAt.IsZero() {
		snap.SavedAt = savedAt
	}
	return snap, true, nil
}
