package main

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// SnapshotRecords encodes every live entity of a world as region-keyed
// records. Caller holds the world lock.
func SnapshotRecords(w *World) ([]EntityRecord, error) {
	var out []EntityRecord
	add := func(kind EntityKind, id string, x, y float64, v interface{}) error {
		data, err := msgpack.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %c %s: %w", kind, id, err)
		}
		out = append(out, EntityRecord{
			WorldID: w.ID,
			Kind:    kind,
			ID:      id,
			Region:  w.Index.RegionOf(x, y),
			Data:    data,
		})
		return nil
	}

	for _, id := range sortedKeys(w.Tanks) {
		t := w.Tanks[id]
		if !t.Alive {
			continue
		}
		if err := add(KindTank, id, t.X, t.Y, t.ToState()); err != nil {
			return nil, err
		}
	}
	for _, id := range sortedKeys(w.Projectiles) {
		p := w.Projectiles[id]
		if err := add(KindProjectile, id, p.X, p.Y, p.ToState()); err != nil {
			return nil, err
		}
	}
	for _, id := range sortedKeys(w.Mines) {
		m := w.Mines[id]
		st := MineState{ID: m.ID, X: round2(m.X), Y: round2(m.Y), Alliance: m.Alliance, Armed: m.Planted}
		if err := add(KindMine, id, m.X, m.Y, st); err != nil {
			return nil, err
		}
	}
	for _, id := range sortedKeys(w.Smokes) {
		s := w.Smokes[id]
		st := SmokeState{ID: s.ID, X: round2(s.X), Y: round2(s.Y), R: s.Radius}
		if err := add(KindSmoke, id, s.X, s.Y, st); err != nil {
			return nil, err
		}
	}
	for _, id := range sortedKeys(w.Pickups) {
		p := w.Pickups[id]
		if !p.Active {
			continue
		}
		x, y := p.Tile.Center()
		st := PickupState{ID: p.ID, X: p.Tile.X, Y: p.Tile.Y, Kind: int(p.Kind), Gun: int(p.Gun)}
		if err := add(KindPickup, id, x, y, st); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DecodeRecord unpacks the entity state stored in a record
func DecodeRecord(r EntityRecord) (interface{}, error) {
	var v interface{}
	var err error
	switch r.Kind {
	case KindTank:
		var s TankState
		err = msgpack.Unmarshal(r.Data, &s)
		v = s
	case KindProjectile:
		var s ProjectileState
		err = msgpack.Unmarshal(r.Data, &s)
		v = s
	case KindMine:
		var s MineState
		err = msgpack.Unmarshal(r.Data, &s)
		v = s
	case KindSmoke:
		var s SmokeState
		err = msgpack.Unmarshal(r.Data, &s)
		v = s
	case KindPickup:
		var s PickupState
		err = msgpack.Unmarshal(r.Data, &s)
		v = s
	default:
		return nil, fmt.Errorf("record kind %q: %w", r.Kind, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.ID, err)
	}
	return v, nil
}

type persistJob struct {
	worldID string
	records []EntityRecord
}

// Persister writes world snapshots off the tick path. Only the newest
// snapshot of each world matters, so a full queue drops the incoming one.
type Persister struct {
	db      *DB
	metrics *Metrics
	log     zerolog.Logger
	jobs    chan persistJob
	stop    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// NewPersister starts the background writer
func NewPersister(db *DB, metrics *Metrics) *Persister {
	p := &Persister{
		db:      db,
		metrics: metrics,
		log:     Logger.With().Str("component", "persister").Logger(),
		jobs:    make(chan persistJob, 8),
		stop:    make(chan struct{}),
	}
	p.wg.Add(1)
	go p.writer()
	return p
}

// Submit queues a snapshot (non-blocking). Returns false when dropped.
func (p *Persister) Submit(worldID string, records []EntityRecord) bool {
	select {
	case p.jobs <- persistJob{worldID: worldID, records: records}:
		return true
	default:
		p.metrics.RecordDropped("persist", len(records))
		p.log.Warn().Str("world", worldID).Int("records", len(records)).Msg("snapshot dropped")
		return false
	}
}

// Stop writes queued snapshots and shuts down. Safe to call twice.
func (p *Persister) Stop() {
	p.once.Do(func() { close(p.stop) })
	p.wg.Wait()
}

func (p *Persister) writer() {
	defer p.wg.Done()
	for {
		select {
		case j := <-p.jobs:
			p.write(j)
		case <-p.stop:
			for {
				select {
				case j := <-p.jobs:
					p.write(j)
				default:
					return
				}
			}
		}
	}
}

func (p *Persister) write(j persistJob) {
	if p.db == nil {
		return
	}
	if err := p.db.ReplaceWorldRecords(j.worldID, j.records); err != nil {
		p.log.Error().Err(err).Str("world", j.worldID).Msg("persist snapshot")
		return
	}
	p.log.Debug().Str("world", j.worldID).Int("records", len(j.records)).Msg("snapshot persisted")
}
