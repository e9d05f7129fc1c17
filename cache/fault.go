package cache

import (
	"errors"
	"fmt"
)

// ErrNilStore is returned by New when no store is provided.
var ErrNilStore = errors.New("cache: store is nil")

// FaultKind classifies a swallowed cache failure.
type FaultKind string

const (
	FaultStore  FaultKind = "store"
	FaultDecode FaultKind = "decode"
	FaultEncode FaultKind = "encode"
)

// Fault describes a failure inside the cache. It is logged and counted,
// then converted to a miss (reads) or dropped (writes).
type Fault struct {
	Op   string
	Key  string
	Kind FaultKind
	Err  error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("cache: %s %q: %s: %v", f.Op, f.Key, f.Kind, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

var errMissingData = errors.New("entry has no data field")
