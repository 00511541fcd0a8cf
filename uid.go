package tangle

import (
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// UidSource yields globally unique strings. The library never assumes
// a particular scheme; hosts swap in their own.
type UidSource interface {
	NewUid() string
}

// UUIDSource issues random UUIDv4 strings.
type UUIDSource struct{}

func (UUIDSource) NewUid() string {
	return uuid.NewString()
}

// ULIDSource issues ULIDs. ULIDs from one source sort by creation
// time, which keeps freshly created nodes clustered in sorted views.
type ULIDSource struct{}

func (ULIDSource) NewUid() string {
	return ulid.Make().String()
}

// DefaultUidSource backs uid-less constructors.
var DefaultUidSource UidSource = UUIDSource{}
