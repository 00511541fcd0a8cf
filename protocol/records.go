package protocol

import "github.com/learn-decentralized-systems/toyqueue"

// Records is the batch currency of delta exchange; one record is one
// encoded packet. Batching keeps transports free to writev().
type Records = toyqueue.Records

// TotalLen is the byte length of a batch.
func TotalLen(recs Records) (total int64) {
	for _, r := range recs {
		total += int64(len(r))
	}
	return
}

// WholeRecordPrefix returns the longest prefix of whole records that
// fits the limit, plus the bytes left over from the limit.
func WholeRecordPrefix(recs Records, limit int64) (prefix Records, remainder int64) {
	n := 0
	for n < len(recs) && int64(len(recs[n])) <= limit {
		limit -= int64(len(recs[n]))
		n++
	}
	return recs[:n], limit
}
