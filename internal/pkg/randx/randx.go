/*
Package randx provides identifier generation for messages, connections, and
stored files.

Message ids are time-derived but strictly monotonic, so they stay unique under
burst load while still sorting by creation time. Connection ids and file keys
use standard UUIDs.
*/
package randx

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// lastMessageID holds the most recently issued message id.
var lastMessageID atomic.Int64

// MessageID returns a unique int64 message identifier derived from the current
// unix-millisecond clock. If two calls land on the same millisecond (or the
// clock steps backwards), the id is bumped past the last issued one.
func MessageID() int64 {
	for {
		now := time.Now().UnixMilli()
		last := lastMessageID.Load()

		next := now
		if next <= last {
			next = last + 1
		}

		if lastMessageID.CompareAndSwap(last, next) {
			return next
		}
	}
}

// ConnectionID returns a unique identifier for a live connection. It is not
// stable across reconnects.
func ConnectionID() string {
	return uuid.New().String()
}

// FileKey builds a storage key for an uploaded file, preserving the original
// extension in lowercase.
func FileKey(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("uploads/%s%s", uuid.New().String(), ext)
}
