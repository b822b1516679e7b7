package descriptors

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/hal/memutils/metadata"
)

// residencyEntry is the GPU visible copy of one staged descriptor range
type residencyEntry struct {
	staging  metadata.Range
	heap     int
	gpu      metadata.Range
	lastUsed uint64
	stale    bool

	prev *residencyEntry
	next *residencyEntry
}

// residencyList orders entries from least to most recently bound
type residencyList struct {
	count int
	head  *residencyEntry
	tail  *residencyEntry
}

func (l *residencyList) Len() int { return l.count }

func (l *residencyList) pushBack(entry *residencyEntry) {
	if l.count == 0 {
		l.head = entry
		l.tail = entry
		l.count = 1
		return
	}

	entry.prev = l.tail
	l.tail.next = entry
	l.tail = entry
	l.count++
}

func (l *residencyList) remove(entry *residencyEntry) {
	prev := entry.prev
	next := entry.next

	if prev != nil {
		prev.next = next
	} else {
		l.head = next
	}

	if next != nil {
		next.prev = prev
	} else {
		l.tail = prev
	}

	entry.prev = nil
	entry.next = nil
	l.count--
}

func (l *residencyList) moveToBack(entry *residencyEntry) {
	if l.tail == entry {
		return
	}

	l.remove(entry)
	l.pushBack(entry)
}

func (l *residencyList) Validate() error {
	actualCount := 0
	var prev *residencyEntry

	for entry := l.head; entry != nil; entry = entry.next {
		if entry.prev != prev {
			return errors.Newf("residency entry for staging range %s has a broken back link", entry.staging)
		}
		if prev != nil && prev.lastUsed > entry.lastUsed {
			return errors.Newf("residency entry for staging range %s was used in frame %d, but follows an entry used in frame %d", entry.staging, entry.lastUsed, prev.lastUsed)
		}

		prev = entry
		actualCount++
	}

	if prev != l.tail {
		return errors.New("the residency list's tail is not its last entry")
	}

	if actualCount != l.count {
		return errors.Newf("the listed number of residency entries (%d) does not match the actual number of entries (%d)", l.count, actualCount)
	}

	return nil
}
