/*
Package tangle is a delta-state graph CRDT for peer-to-peer
replication of JSON-compatible data.

A Graph is an insertion-ordered collection of Nodes; a Node is a keyed
collection of versioned fields. Every field carries a Lamport state,
and merging picks the higher state per field, breaking equal-state
ties with a fixed total order over canonical JSON forms. Replicas that
have seen the same set of deltas converge to the same visible state no
matter the order or multiplicity of delivery.

Merges return {update, history} delta pairs and announce them through
per-instance observers. The protocol subpackage frames deltas into TLV
packets for whatever transport the host application uses; the library
itself opens no sockets and persists nothing.
*/
package tangle
