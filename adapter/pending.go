package adapter

import "github.com/poiesic/flofy/core"

// pendingQueue holds unconfirmed writes, oldest first.
// Not safe for concurrent use; the adapter guards it.
type pendingQueue struct {
	entries []core.PendingEntry
}

func (q *pendingQueue) push(e core.PendingEntry) {
	q.entries = append(q.entries, e)
}

func (q *pendingQueue) front() (core.PendingEntry, bool) {
	if len(q.entries) == 0 {
		return core.PendingEntry{}, false
	}
	return q.entries[0], true
}

func (q *pendingQueue) popFront() {
	if len(q.entries) == 0 {
		return
	}
	q.entries[0] = core.PendingEntry{}
	q.entries = q.entries[1:]
}

// dropKey removes every entry for key and returns how many were removed.
func (q *pendingQueue) dropKey(key string) int {
	kept := q.entries[:0]
	for _, e := range q.entries {
		if e.Key != key {
			kept = append(kept, e)
		}
	}
	dropped := len(q.entries) - len(kept)
	clear(q.entries[len(kept):])
	q.entries = kept
	return dropped
}

func (q *pendingQueue) hasKey(key string) bool {
	for _, e := range q.entries {
		if e.Key == key {
			return true
		}
	}
	return false
}

func (q *pendingQueue) len() int {
	return len(q.entries)
}

func (q *pendingQueue) snapshot() []core.PendingEntry {
	return append([]core.PendingEntry(nil), q.entries...)
}
