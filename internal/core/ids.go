package core

import (
	"crypto/rand"
	"strconv"
	"sync/atomic"
	"time"
)

// IDFunc produces a new unique identifier. Stores and the audit log take one
// so tests can substitute a deterministic sequence.
type IDFunc func() string

const (
	idAlphabet  = "0123456789abcdefghijklmnopqrstuvwxyz"
	idRandomLen = 10
)

// NewID returns a compact identifier: the current Unix time in milliseconds
// in base 36 followed by 10 random base-36 characters.
//
// Identifiers are unique within a process for practical purposes. They are
// not secrets and must not be used as such.
func NewID() string {
	var buf [idRandomLen]byte
	// crypto/rand.Read never fails on supported platforms.
	_, _ = rand.Read(buf[:])

	suffix := make([]byte, idRandomLen)
	for i, b := range buf {
		suffix[i] = idAlphabet[int(b)%len(idAlphabet)]
	}

	return strconv.FormatInt(time.Now().UnixMilli(), 36) + string(suffix)
}

// SequentialIDs returns an IDFunc yielding prefix-1, prefix-2, ... in order.
// Safe for concurrent use.
func SequentialIDs(prefix string) IDFunc {
	var n atomic.Int64
	return func() string {
		return prefix + "-" + strconv.FormatInt(n.Add(1), 10)
	}
}
