package tangle

import (
	"bytes"
	"encoding/json"
	"sort"
	"sync/atomic"

	"github.com/tangle-db/tangle/jx"
	"github.com/tangle-db/tangle/tangle_errors"
	"github.com/tangle-db/tangle/utils"
)

// Graph is an insertion-ordered collection of nodes keyed by uid. A
// node appears in the graph after any merge that referenced it, even
// when the merge delivered no field updates.
type Graph struct {
	keys  []string
	nodes map[string]*Node
	obs   *Observer

	uids   UidSource
	clock  Clock
	logger utils.Logger

	merges         atomic.Uint64
	conflicts      atomic.Uint64
	updatedFields  atomic.Uint64
	historyRecords atomic.Uint64
	avgUpdate      *utils.AvgVal
}

// GraphOption configures a graph's collaborators: the uid source for
// locally created members, the clock their in-process writes advance
// by, and an optional diagnostics logger.
type GraphOption func(*Graph)

func WithUidSource(src UidSource) GraphOption {
	return func(g *Graph) { g.uids = src }
}

func WithClock(c Clock) GraphOption {
	return func(g *Graph) { g.clock = c }
}

func WithLogger(l utils.Logger) GraphOption {
	return func(g *Graph) { g.logger = l }
}

// GraphDelta pairs the update and history graphs a merge produced.
type GraphDelta struct {
	Update  *Graph
	History *Graph
}

// GraphStats is a point-in-time read of a graph's merge counters.
type GraphStats struct {
	Merges          uint64
	Conflicts       uint64
	UpdatedFields   uint64
	HistoryRecords  uint64
	Nodes           int
	Fields          int
	AvgUpdateFields float64
}

func NewGraph(opts ...GraphOption) *Graph {
	g := &Graph{
		nodes:     make(map[string]*Node),
		obs:       NewObserver(),
		uids:      DefaultUidSource,
		clock:     LamportClock{},
		avgUpdate: utils.NewAvgVal(),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// GraphSource wraps a wire-format GraphObject. Members that are not
// already nodes are wrapped by NodeSource. Wire objects carry no
// member order, so members enter in sorted-uid order.
func GraphSource(obj map[string]any) (*Graph, error) {
	g := NewGraph()
	uids := make([]string, 0, len(obj))
	for uid := range obj {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	for _, uid := range uids {
		var n *Node
		switch member := obj[uid].(type) {
		case *Node:
			n = member
		case map[string]any:
			if _, reserved := member[ObjectKey]; !reserved {
				member = withObjectRecord(member, uid)
			}
			var err error
			n, err = NodeSource(member)
			if err != nil {
				return nil, err
			}
		default:
			return nil, tangle_errors.ErrMalformedWire
		}
		if n.Uid() != uid {
			return nil, tangle_errors.ErrMalformedWire
		}
		g.adopt(uid, n)
	}
	return g, nil
}

// withObjectRecord supplies the @object record for wire members that
// arrive without one, deriving the uid from the graph key.
func withObjectRecord(member map[string]any, uid string) map[string]any {
	rec := make(map[string]any, len(member)+1)
	for k, v := range member {
		rec[k] = v
	}
	rec[ObjectKey] = map[string]any{wireUid: uid}
	return rec
}

// New returns an empty graph with the same collaborators; merge uses
// it to allocate delta graphs.
func (g *Graph) New() *Graph {
	return NewGraph(WithUidSource(g.uids), WithClock(g.clock), WithLogger(g.logger))
}

// Create builds a member node from plain values, drawing its uid from
// the graph's uid source, and merges it in. The stored member is
// returned.
func (g *Graph) Create(values map[string]any) (*Node, error) {
	n, err := NodeFrom(values, WithNodeUidSource(g.uids), WithNodeClock(g.clock))
	if err != nil {
		return nil, err
	}
	if _, err = g.Merge(map[string]any{n.Uid(): n}); err != nil {
		return nil, err
	}
	member, _ := g.Value(n.Uid())
	return member, nil
}

// On registers a listener for graph update/history events.
func (g *Graph) On(event string, h Handler) *Subscription {
	return g.obs.Subscribe(event, h)
}

// Value returns the stored node for a uid.
func (g *Graph) Value(uid string) (*Node, bool) {
	n, ok := g.nodes[uid]
	return n, ok
}

// Len is the number of member nodes.
func (g *Graph) Len() int {
	return len(g.keys)
}

// Uids returns the member uids in insertion order.
func (g *Graph) Uids() []string {
	out := make([]string, len(g.keys))
	copy(out, g.keys)
	return out
}

// Range calls f for every member in insertion order until f returns
// false.
func (g *Graph) Range(f func(uid string, n *Node) bool) {
	for _, uid := range g.keys {
		if !f(uid, g.nodes[uid]) {
			return
		}
	}
}

// putNode stores a member, keeping insertion order for new uids.
func (g *Graph) putNode(uid string, n *Node) {
	if _, ok := g.nodes[uid]; !ok {
		g.keys = append(g.keys, uid)
	}
	g.nodes[uid] = n
}

// adopt inserts a member and hooks the graph's conflict counter to
// it; every node that enters the graph as a member goes through here.
func (g *Graph) adopt(uid string, n *Node) {
	g.hookConflicts(n)
	g.putNode(uid, n)
}

func (g *Graph) hookConflicts(n *Node) {
	n.On(EventConflict, func(Event) error {
		g.conflicts.Add(1)
		return nil
	})
}

// Merge folds an incoming graph (or wire-shaped mapping) into the
// receiver, delegating member merges to the nodes and aggregating
// their deltas into parallel update/history graphs. Unknown uids get
// an empty shell first, so they join the graph even when the merge
// carries nothing new. Events fire after the receiver is updated:
// update, then history.
func (g *Graph) Merge(incoming any) (*GraphDelta, error) {
	in, err := coerceGraph(incoming)
	if err != nil {
		return nil, err
	}
	var verr error
	in.Range(func(uid string, n *Node) bool {
		verr = validateFields(&n.Entity)
		return verr == nil
	})
	if verr != nil {
		return nil, verr
	}

	update, history := g.New(), g.New()
	var fieldsWon uint64
	merr := error(nil)
	in.Range(func(uid string, n *Node) bool {
		t, ok := g.Value(uid)
		if !ok {
			t = n.New()
			t.clock = g.clock
			g.adopt(uid, t)
		}
		d, err := t.Merge(n)
		if err != nil {
			merr = err
			return false
		}
		update.adopt(uid, wrapNode(d.Update))
		history.adopt(uid, wrapNode(d.History))
		fieldsWon += uint64(d.Update.Len())
		g.historyRecords.Add(uint64(d.History.Len()))
		return true
	})
	if merr != nil {
		return nil, merr
	}

	g.merges.Add(1)
	g.updatedFields.Add(fieldsWon)
	g.avgUpdate.Add(float64(fieldsWon))
	if g.logger != nil {
		g.logger.Debug("merge applied",
			"members", in.Len(), "fields_won", fieldsWon)
	}

	d := &GraphDelta{Update: update, History: history}
	if err := g.obs.emit(Event{Name: EventUpdate, Graph: update}); err != nil {
		return d, err
	}
	if err := g.obs.emit(Event{Name: EventHistory, Graph: history}); err != nil {
		return d, err
	}
	return d, nil
}

func coerceGraph(incoming any) (*Graph, error) {
	switch in := incoming.(type) {
	case *Graph:
		return in, nil
	case map[string]any:
		return GraphSource(in)
	default:
		return nil, tangle_errors.ErrMalformedWire
	}
}

// Rebase replays the receiver's members on top of target: the result
// sees both, and every shared node is rebased so the receiver's
// fields win subsequent merges against the target.
func (g *Graph) Rebase(target *Graph) (*Graph, error) {
	fresh := g.New()
	if _, err := fresh.Merge(target); err != nil {
		return nil, err
	}
	if _, err := fresh.Merge(g); err != nil {
		return nil, err
	}
	for _, uid := range g.keys {
		tn, ok := target.Value(uid)
		if !ok {
			continue
		}
		fresh.adopt(uid, g.nodes[uid].Rebase(tn))
	}
	return fresh, nil
}

// Overlap returns a graph of the nodes present on both sides, each
// member the field intersection with metadata from the receiver.
// Nodes present on only one side are omitted.
func (g *Graph) Overlap(target *Graph) (*Graph, error) {
	fresh := g.New()
	for _, uid := range g.keys {
		tn, ok := target.Value(uid)
		if !ok {
			continue
		}
		n := g.nodes[uid].Overlap(tn)
		if _, err := fresh.Merge(map[string]any{uid: n}); err != nil {
			return nil, err
		}
	}
	return fresh, nil
}

// Clone deep-copies the graph. Listeners and counters stay behind.
func (g *Graph) Clone() *Graph {
	fresh := g.New()
	for _, uid := range g.keys {
		fresh.adopt(uid, g.nodes[uid].Clone())
	}
	return fresh
}

// Snapshot maps every member uid to its visible field values.
func (g *Graph) Snapshot() map[string]map[string]any {
	snap := make(map[string]map[string]any, len(g.keys))
	for _, uid := range g.keys {
		snap[uid] = g.nodes[uid].Snapshot()
	}
	return snap
}

// Fingerprint is a content hash over the members' fingerprints in
// sorted uid order; equal visible states hash equal.
func (g *Graph) Fingerprint() uint64 {
	uids := make([]string, len(g.keys))
	copy(uids, g.keys)
	sort.Strings(uids)
	fp := make([]any, 0, len(uids)*2)
	for _, uid := range uids {
		fp = append(fp, uid, float64(g.nodes[uid].Fingerprint()))
	}
	h, err := jx.Hash(any(fp))
	if err != nil {
		return 0
	}
	return h
}

// Stats reads the merge counters.
func (g *Graph) Stats() GraphStats {
	fields := 0
	for _, uid := range g.keys {
		fields += g.nodes[uid].Len()
	}
	return GraphStats{
		Merges:          g.merges.Load(),
		Conflicts:       g.conflicts.Load(),
		UpdatedFields:   g.updatedFields.Load(),
		HistoryRecords:  g.historyRecords.Load(),
		Nodes:           len(g.keys),
		Fields:          fields,
		AvgUpdateFields: g.avgUpdate.Val(),
	}
}

// MarshalJSON emits the wire GraphObject in insertion order.
func (g *Graph) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, uid := range g.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(uid)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		member, err := json.Marshal(g.nodes[uid])
		if err != nil {
			return nil, err
		}
		buf.Write(member)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
