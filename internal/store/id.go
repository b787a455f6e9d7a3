package store

import (
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	ulidEntropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	ulidEntropyMu sync.Mutex
)

func NewID() string {
	ulidEntropyMu.Lock()
	defer ulidEntropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}

// NewTransactionRef builds the human-readable transaction reference:
// type prefix + username + millisecond timestamp. Uniqueness is enforced by
// the transactions.ref constraint; a collision means two records for the
// same user in the same millisecond, which is treated as a hard failure.
func NewTransactionRef(prefix, username string) string {
	return prefix + username + strconv.FormatInt(time.Now().UnixMilli(), 10)
}
