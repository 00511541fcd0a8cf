package tangle

import (
	"sort"

	"github.com/tangle-db/tangle/jx"
	"github.com/tangle-db/tangle/tangle_errors"
)

// Node is an entity that knows how to merge. Merging never partially
// applies: incoming values are validated before any field is touched.
type Node struct {
	Entity
	obs   *Observer
	clock Clock
}

// NodeOption configures node construction; the collaborators default
// to LamportClock and DefaultUidSource.
type NodeOption func(*nodeConfig)

type nodeConfig struct {
	clock Clock
	uids  UidSource
}

func WithNodeClock(c Clock) NodeOption {
	return func(cfg *nodeConfig) { cfg.clock = c }
}

func WithNodeUidSource(src UidSource) NodeOption {
	return func(cfg *nodeConfig) { cfg.uids = src }
}

func nodeDefaults(opts []NodeOption) nodeConfig {
	cfg := nodeConfig{clock: LamportClock{}, uids: DefaultUidSource}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// NewNode returns an empty node. An empty uid draws a fresh one from
// the configured uid source.
func NewNode(uid string, opts ...NodeOption) *Node {
	cfg := nodeDefaults(opts)
	if uid == "" {
		uid = cfg.uids.NewUid()
	}
	return &Node{
		Entity: *newEntity(uid),
		obs:    NewObserver(),
		clock:  cfg.clock,
	}
}

// NodeFrom builds a node from plain values, every field at the
// minimum present state.
func NodeFrom(values map[string]any, opts ...NodeOption) (*Node, error) {
	n := NewNode("", opts...)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == ObjectKey {
			return nil, tangle_errors.ErrMalformedWire
		}
		if err := jx.Valid(values[k]); err != nil {
			return nil, err
		}
		n.put(k, &Meta{Value: jx.Copy(values[k]), State: 1})
	}
	return n, nil
}

// NodeSource wraps a wire-format NodeObject directly.
func NodeSource(obj map[string]any, opts ...NodeOption) (*Node, error) {
	cfg := nodeDefaults(opts)
	e, err := entitySource(obj, cfg.uids)
	if err != nil {
		return nil, err
	}
	return &Node{Entity: *e, obs: NewObserver(), clock: cfg.clock}, nil
}

// New returns an empty node carrying the same uid.
func (n *Node) New() *Node {
	return &Node{
		Entity: *newEntity(n.uid),
		obs:    NewObserver(),
		clock:  n.clock,
	}
}

// On registers a listener for update, history or conflict events.
func (n *Node) On(event string, h Handler) *Subscription {
	return n.obs.Subscribe(event, h)
}

// SetMetadata writes a field record through the node's clock.
func (n *Node) SetMetadata(field string, m Meta) error {
	return n.setMetadata(field, m, n.clock)
}

// Merge folds an incoming node (or a plain mapping, for in-process
// writes) into the receiver and returns the delta pair. Events fire
// after the receiver is fully updated: conflict per contested field,
// then history, then update.
func (n *Node) Merge(incoming any) (*Delta, error) {
	in, err := n.coerce(incoming)
	if err != nil {
		return nil, err
	}
	if verr := validateFields(in); verr != nil {
		return nil, verr
	}

	d := n.Entity.Delta(in)

	type contested struct {
		field  string
		winner *Meta
		loser  *Meta
	}
	var conflicts []contested
	d.Update.Range(func(k string, um *Meta) bool {
		if cur, ok := n.fields[k]; ok && cur.State == in.State(k) {
			conflicts = append(conflicts, contested{field: k, winner: um, loser: cur})
		}
		n.put(k, um.Clone())
		return true
	})

	for _, c := range conflicts {
		err = n.obs.emit(Event{
			Name:   EventConflict,
			Field:  c.field,
			Winner: c.winner,
			Loser:  c.loser,
		})
		if err != nil {
			return d, err
		}
	}
	if d.History.Len() > 0 {
		if err = n.obs.emit(Event{Name: EventHistory, Node: wrapNode(d.History)}); err != nil {
			return d, err
		}
	}
	if d.Update.Len() > 0 {
		if err = n.obs.emit(Event{Name: EventUpdate, Node: wrapNode(d.Update)}); err != nil {
			return d, err
		}
	}
	return d, nil
}

// coerce turns the merge operand into an entity. A plain mapping is
// the in-process write path: each value gets the next local state, so
// a local write always advances its own clock.
func (n *Node) coerce(incoming any) (*Entity, error) {
	switch in := incoming.(type) {
	case *Node:
		return &in.Entity, nil
	case *Entity:
		return in, nil
	case map[string]any:
		w := newEntity(n.uid)
		keys := make([]string, 0, len(in))
		for k := range in {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if k == ObjectKey {
				return nil, tangle_errors.ErrMalformedWire
			}
			if err := jx.Valid(in[k]); err != nil {
				return nil, err
			}
			w.put(k, &Meta{
				Value: jx.Copy(in[k]),
				State: n.clock.Time(n.State(k)),
			})
		}
		return w, nil
	default:
		return nil, tangle_errors.ErrMalformedWire
	}
}

func validateFields(e *Entity) error {
	var verr error
	e.Range(func(k string, m *Meta) bool {
		verr = jx.Valid(m.Value)
		return verr == nil
	})
	return verr
}

// Overlap returns a node holding the fields present in both sides,
// metadata from the receiver.
func (n *Node) Overlap(other *Node) *Node {
	return &Node{
		Entity: *n.Entity.Overlap(&other.Entity),
		obs:    NewObserver(),
		clock:  n.clock,
	}
}

// Rebase replays the receiver on top of target; see Entity.Rebase.
func (n *Node) Rebase(target *Node) *Node {
	return &Node{
		Entity: *n.Entity.Rebase(&target.Entity),
		obs:    NewObserver(),
		clock:  n.clock,
	}
}

// Clone deep-copies the node. Listeners do not travel with the copy.
func (n *Node) Clone() *Node {
	return &Node{
		Entity: *n.Entity.clone(),
		obs:    NewObserver(),
		clock:  n.clock,
	}
}

func wrapNode(e *Entity) *Node {
	return &Node{Entity: *e, obs: NewObserver(), clock: LamportClock{}}
}
