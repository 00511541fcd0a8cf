// Package protocol frames graph deltas into TLV packets a host can
// hand to any transport, and decodes them back on the receiving side.
// Bodies are the JSON wire format; the TLV layer only adds typed
// framing so heterogeneous packet streams can interleave.
package protocol

import (
	"encoding/json"

	"github.com/learn-decentralized-systems/toytlv"
	"github.com/pkg/errors"

	"github.com/tangle-db/tangle"
	"github.com/tangle-db/tangle/tangle_errors"
)

// Packet type literals. Unknown literals in a stream are skipped, so
// retired packet kinds from older peers pass through harmlessly.
const (
	// D frames a full delta: a U record followed by an H record.
	PacketDelta = 'D'
	// U frames an update graph on its own.
	PacketUpdate = 'U'
	// H frames a history graph on its own.
	PacketHistory = 'H'
)

// EncodeGraph frames one graph under the given packet literal.
func EncodeGraph(lit byte, g *tangle.Graph) ([]byte, error) {
	body, err := json.Marshal(g)
	if err != nil {
		return nil, err
	}
	return toytlv.Record(lit, body), nil
}

// DecodeGraph unframes a packet encoded by EncodeGraph.
func DecodeGraph(lit byte, pkt []byte) (*tangle.Graph, error) {
	body, _, err := toytlv.TakeWary(lit, pkt)
	if err != nil {
		return nil, errors.Wrap(tangle_errors.ErrBadDeltaPacket, err.Error())
	}
	return unmarshalGraph(body)
}

// EncodeDelta frames a merge outcome as one D packet: the update
// graph, then the history graph.
func EncodeDelta(d *tangle.GraphDelta) ([]byte, error) {
	u, err := json.Marshal(d.Update)
	if err != nil {
		return nil, err
	}
	h, err := json.Marshal(d.History)
	if err != nil {
		return nil, err
	}
	return toytlv.Record(PacketDelta,
		toytlv.Record(PacketUpdate, u),
		toytlv.Record(PacketHistory, h),
	), nil
}

// DecodeDelta unframes a D packet.
func DecodeDelta(pkt []byte) (*tangle.GraphDelta, error) {
	body, _, err := toytlv.TakeWary(PacketDelta, pkt)
	if err != nil {
		return nil, errors.Wrap(tangle_errors.ErrBadDeltaPacket, err.Error())
	}
	ubody, rest, err := toytlv.TakeWary(PacketUpdate, body)
	if err != nil {
		return nil, errors.Wrap(tangle_errors.ErrBadDeltaPacket, "no update record")
	}
	hbody, _, err := toytlv.TakeWary(PacketHistory, rest)
	if err != nil {
		return nil, errors.Wrap(tangle_errors.ErrBadDeltaPacket, "no history record")
	}
	update, err := unmarshalGraph(ubody)
	if err != nil {
		return nil, err
	}
	history, err := unmarshalGraph(hbody)
	if err != nil {
		return nil, err
	}
	return &tangle.GraphDelta{Update: update, History: history}, nil
}

// ParsePacket classifies the first packet of a stream and returns the
// remainder. Unknown literals yield ErrUnknownPacket with the packet
// already consumed, so callers can skip and go on.
func ParsePacket(data []byte) (lit byte, body, rest []byte, err error) {
	lit, hlen, blen := toytlv.ProbeHeader(data)
	if lit == 0 || hlen+blen > len(data) {
		return 0, nil, data, toytlv.ErrIncomplete
	}
	body = data[hlen : hlen+blen]
	rest = data[hlen+blen:]
	switch lit {
	case PacketDelta, PacketUpdate, PacketHistory:
		return lit, body, rest, nil
	default:
		return lit, body, rest, tangle_errors.ErrUnknownPacket
	}
}

func unmarshalGraph(body []byte) (*tangle.Graph, error) {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, errors.Wrap(tangle_errors.ErrBadDeltaPacket, err.Error())
	}
	return tangle.GraphSource(obj)
}
