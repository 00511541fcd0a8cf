package tangle

import (
	"encoding/json"

	"github.com/tangle-db/tangle/jx"
	"github.com/tangle-db/tangle/tangle_errors"
)

// Wire keys of a field metadata record. Everything else in the record
// travels in Extras, opaque to the merge.
const (
	wireValue = "value"
	wireState = "state"
)

// Meta is one versioned field: the visible value, its Lamport state,
// and whatever extra annotations the record carried on the wire
// (linked-list pointers, aggregation flags).
type Meta struct {
	Value  any
	State  uint64
	Extras map[string]any
}

// Clone allocates a fresh record sharing no storage with m.
func (m *Meta) Clone() *Meta {
	if m == nil {
		return nil
	}
	c := &Meta{
		Value: jx.Copy(m.Value),
		State: m.State,
	}
	if m.Extras != nil {
		c.Extras = jx.Copy(any(m.Extras)).(map[string]any)
	}
	return c
}

func (m *Meta) MarshalJSON() ([]byte, error) {
	rec := make(map[string]any, len(m.Extras)+2)
	for k, v := range m.Extras {
		rec[k] = v
	}
	rec[wireValue] = m.Value
	rec[wireState] = m.State
	return json.Marshal(rec)
}

// UnmarshalJSON reads a wire FieldMeta. Fractional states are
// accepted and truncated toward zero.
func (m *Meta) UnmarshalJSON(data []byte) error {
	var rec map[string]any
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	parsed, err := metaFromWire(rec)
	if err != nil {
		return err
	}
	*m = *parsed
	return nil
}

func metaFromWire(rec map[string]any) (*Meta, error) {
	m := &Meta{}
	for k, v := range rec {
		switch k {
		case wireValue:
			m.Value = v
		case wireState:
			f, ok := v.(float64)
			if !ok || f < 0 {
				if u, isu := v.(uint64); isu {
					m.State = u
					continue
				}
				if i, isi := v.(int); isi && i >= 0 {
					m.State = uint64(i)
					continue
				}
				return nil, tangle_errors.ErrMalformedWire
			}
			m.State = uint64(f)
		default:
			if m.Extras == nil {
				m.Extras = make(map[string]any)
			}
			m.Extras[k] = v
		}
	}
	return m, nil
}
