package storage

import (
	"fmt"
	"time"

	"zmrun/zmachine"
)

var _ zmachine.Storage = (*InMemoryProvider)(nil)

// InMemoryProvider keeps saves in process memory only, keyed by
// description. Grounded on the teacher's zmachine/savestates.go
// InMemorySaveStateCache (a plain slice of captured states, append-only),
// generalized into the full Storage interface - useful as a host's fast
// path (a browser host backed by an async key-value store can route
// through this for the common case and only hit its real backing store on
// an explicit export).
type InMemoryProvider struct {
	Release uint16
	Serial  [6]byte

	entries []inMemoryEntry
}

type inMemoryEntry struct {
	description string
	snapshot    zmachine.Snapshot
	savedAt     time.Time
}

func (p *InMemoryProvider) SaveSnapshot(state zmachine.Snapshot, description string) error {
	for i, e := range p.entries {
		if e.description == description {
			p.entries[i] = inMemoryEntry{description: description, snapshot: state, savedAt: time.Now()}
			return nil
		}
	}
	p.entries = append(p.entries, inMemoryEntry{description: description, snapshot: state, savedAt: time.Now()})
	return nil
}

func (p *InMemoryProvider) LoadSnapshot() (zmachine.Snapshot, error) {
	if len(p.entries) == 0 {
		return zmachine.Snapshot{}, fmt.Errorf("storage: no in-memory saves")
	}
	return p.entries[len(p.entries)-1].snapshot, nil
}

func (p *InMemoryProvider) ListSaves() ([]zmachine.SaveInfo, error) {
	saves := make([]zmachine.SaveInfo, len(p.entries))
	for i, e := range p.entries {
		saves[i] = zmachine.SaveInfo{
			Description: e.description,
			PC:          e.snapshot.PC,
			Release:     p.Release,
			Serial:      p.Serial,
		}
	}
	return saves, nil
}

func (p *InMemoryProvider) GetSaveInfo() (zmachine.SaveInfo, error) {
	if len(p.entries) == 0 {
		return zmachine.SaveInfo{}, fmt.Errorf("storage: no in-memory saves")
	}
	last := p.entries[len(p.entries)-1]
	return zmachine.SaveInfo{Description: last.description, PC: last.snapshot.PC, Release: p.Release, Serial: p.Serial}, nil
}
