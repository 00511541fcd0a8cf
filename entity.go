package tangle

import (
	"encoding/json"

	"github.com/tangle-db/tangle/jx"
	"github.com/tangle-db/tangle/tangle_errors"
)

// ObjectKey is the reserved wire key holding the entity's own
// identifiers. It is never iterated, merged or snapshotted.
const ObjectKey = "@object"

const wireUid = "uid"

// Entity is a keyed collection of versioned fields. Absence reads as
// state 0; merges only store fields at state >= 1, and Delta treats a
// state-0 record as absent. Wire records loaded by a source
// constructor are kept as given, so one at state 0 is stored and
// reported by Has.
//
// Iteration order is insertion order, stable within a process; it
// carries no semantic meaning.
type Entity struct {
	uid    string
	keys   []string
	fields map[string]*Meta
	obj    map[string]any // extra @object entries beyond the uid
}

// Delta is the outcome of comparing an entity against an update: the
// fields that newly won, and the records they superseded.
type Delta struct {
	Update  *Entity
	History *Entity
}

func newEntity(uid string) *Entity {
	if uid == "" {
		uid = DefaultUidSource.NewUid()
	}
	return &Entity{
		uid:    uid,
		fields: make(map[string]*Meta),
	}
}

// entitySource wraps a wire-format NodeObject. Sub-records must be
// objects; beyond that the shape is trusted. Objects arriving without
// a uid draw one from uids.
func entitySource(obj map[string]any, uids UidSource) (*Entity, error) {
	e := &Entity{fields: make(map[string]*Meta)}
	for k, v := range obj {
		if k == ObjectKey {
			rec, ok := v.(map[string]any)
			if !ok {
				return nil, tangle_errors.ErrMalformedWire
			}
			for ok, ov := range rec {
				if ok == wireUid {
					uid, isstr := ov.(string)
					if !isstr {
						return nil, tangle_errors.ErrMalformedWire
					}
					e.uid = uid
					continue
				}
				if e.obj == nil {
					e.obj = make(map[string]any)
				}
				e.obj[ok] = ov
			}
			continue
		}
		var m *Meta
		switch rec := v.(type) {
		case map[string]any:
			var err error
			m, err = metaFromWire(rec)
			if err != nil {
				return nil, err
			}
		case *Meta:
			m = rec.Clone()
		default:
			return nil, tangle_errors.ErrMalformedWire
		}
		e.put(k, m)
	}
	if e.uid == "" {
		e.uid = uids.NewUid()
	}
	return e, nil
}

// put stores a record, keeping insertion order for new fields.
func (e *Entity) put(field string, m *Meta) {
	if _, ok := e.fields[field]; !ok {
		e.keys = append(e.keys, field)
	}
	e.fields[field] = m
}

// Uid returns the identifier assigned at construction.
func (e *Entity) Uid() string {
	return e.uid
}

// ObjectMeta returns a copy of the reserved @object record.
func (e *Entity) ObjectMeta() map[string]any {
	rec := make(map[string]any, len(e.obj)+1)
	for k, v := range e.obj {
		rec[k] = jx.Copy(v)
	}
	rec[wireUid] = e.uid
	return rec
}

// Meta returns the metadata record of a field. The record is the
// entity's own storage; callers must not mutate it.
func (e *Entity) Meta(field string) (*Meta, bool) {
	m, ok := e.fields[field]
	return m, ok
}

// Value returns the visible value of a field. Unknown and reserved
// fields read as absent.
func (e *Entity) Value(field string) (any, bool) {
	m, ok := e.fields[field]
	if !ok {
		return nil, false
	}
	return m.Value, true
}

// State returns the Lamport state of a field, 0 when absent.
func (e *Entity) State(field string) uint64 {
	m, ok := e.fields[field]
	if !ok {
		return 0
	}
	return m.State
}

// Len is the number of non-reserved fields.
func (e *Entity) Len() int {
	return len(e.keys)
}

// Has reports field presence.
func (e *Entity) Has(field string) bool {
	_, ok := e.fields[field]
	return ok
}

// Fields returns the field names in iteration order.
func (e *Entity) Fields() []string {
	out := make([]string, len(e.keys))
	copy(out, e.keys)
	return out
}

// Range calls f for every field in iteration order until f returns
// false.
func (e *Entity) Range(f func(field string, m *Meta) bool) {
	for _, k := range e.keys {
		if !f(k, e.fields[k]) {
			return
		}
	}
}

// SetMetadata writes a record for the field with the state advanced
// by the clock; any state embedded in the argument is discarded. The
// record is deep-copied, never aliased.
func (e *Entity) SetMetadata(field string, m Meta) error {
	return e.setMetadata(field, m, LamportClock{})
}

func (e *Entity) setMetadata(field string, m Meta, clock Clock) error {
	if field == ObjectKey {
		return tangle_errors.ErrMalformedWire
	}
	if err := jx.Valid(m.Value); err != nil {
		return err
	}
	rec := m.Clone()
	rec.State = clock.Time(e.State(field))
	e.put(field, rec)
	return nil
}

// Snapshot returns the visible field -> value mapping, metadata and
// reserved entries excluded. Values are deep copies.
func (e *Entity) Snapshot() map[string]any {
	snap := make(map[string]any, len(e.keys))
	for _, k := range e.keys {
		snap[k] = jx.Copy(e.fields[k].Value)
	}
	return snap
}

// Overlap returns a new entity holding exactly the fields present in
// both, with metadata taken from the receiver.
func (e *Entity) Overlap(other *Entity) *Entity {
	out := newEntity(e.uid)
	for _, k := range e.keys {
		if other.Has(k) {
			out.put(k, e.fields[k].Clone())
		}
	}
	return out
}

// Rebase replays the receiver's fields on top of target: the result
// starts from target, and every receiver field whose state the target
// matched or passed is reassigned one past the target's state, so the
// receiver's values win subsequent merges.
func (e *Entity) Rebase(target *Entity) *Entity {
	out := newEntity(e.uid)
	target.Range(func(k string, m *Meta) bool {
		out.put(k, m.Clone())
		return true
	})
	for _, k := range e.keys {
		rec := e.fields[k].Clone()
		if ts := target.State(k); ts >= rec.State {
			rec.State = ts + 1
		}
		out.put(k, rec)
	}
	return out
}

// Delta compares an update against the receiver, splitting its fields
// into those that win (update) and those that are superseded
// (history). The receiver is not mutated; applying the delta is the
// merger's job.
func (e *Entity) Delta(update *Entity) *Delta {
	d := &Delta{
		Update:  newEntity(e.uid),
		History: newEntity(e.uid),
	}
	update.Range(func(k string, um *Meta) bool {
		u, c := um.State, e.State(k)
		switch {
		case u == 0 && c == 0:
			// a state-0 record is semantically absent on both sides
		case u > c:
			d.Update.put(k, um.Clone())
			if c > 0 {
				d.History.put(k, e.fields[k].Clone())
			}
		case u < c:
			d.History.put(k, um.Clone())
		default:
			cm := e.fields[k]
			winner := resolve(cm, um)
			if winner != cm {
				d.Update.put(k, winner.Clone())
				d.History.put(k, cm.Clone())
			}
		}
		return true
	})
	return d
}

// Fingerprint is a content hash of the canonical snapshot. Replicas
// holding the same visible state report the same fingerprint.
func (e *Entity) Fingerprint() uint64 {
	h, err := jx.Hash(any(e.Snapshot()))
	if err != nil {
		return 0
	}
	return h
}

func (e *Entity) clone() *Entity {
	out := newEntity(e.uid)
	for k, v := range e.obj {
		if out.obj == nil {
			out.obj = make(map[string]any)
		}
		out.obj[k] = jx.Copy(v)
	}
	for _, k := range e.keys {
		out.put(k, e.fields[k].Clone())
	}
	return out
}

// MarshalJSON emits the wire NodeObject shape.
func (e *Entity) MarshalJSON() ([]byte, error) {
	rec := make(map[string]any, len(e.keys)+1)
	rec[ObjectKey] = e.ObjectMeta()
	for _, k := range e.keys {
		rec[k] = e.fields[k]
	}
	return json.Marshal(rec)
}
