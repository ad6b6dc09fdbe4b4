package kv

import (
	"time"

	"github.com/google/btree"
)

const btreeDegree = 32

type record struct {
	key       string
	value     string
	expiresAt time.Time // zero means the record never expires

	// exp is the record's entry in the expiry index, nil when eternal.
	exp *expiryItem
}

func (r *record) expired(now time.Time) bool {
	return !r.expiresAt.IsZero() && !now.Before(r.expiresAt)
}

type expiryItem struct {
	at  time.Time
	seq uint64 // insertion order, breaks ties between equal instants
	key string
}

func byKey(a, b *record) bool { return a.key < b.key }

func byExpiry(a, b *expiryItem) bool {
	if !a.at.Equal(b.at) {
		return a.at.Before(b.at)
	}
	return a.seq < b.seq
}

// index keeps the point, ordered and expiry views over one record set.
// It is not safe for concurrent use; the Store serializes access.
type index struct {
	points  map[string]*record
	ordered *btree.BTreeG[*record]
	expiry  *btree.BTreeG[*expiryItem]
	seq     uint64
}

func newIndex() *index {
	return &index{
		points:  make(map[string]*record),
		ordered: btree.NewG[*record](btreeDegree, byKey),
		expiry:  btree.NewG[*expiryItem](btreeDegree, byExpiry),
	}
}

func (ix *index) upsert(key, value string, expiresAt time.Time) {
	if r, ok := ix.points[key]; ok {
		r.value = value
		ix.unlinkExpiry(r)
		r.expiresAt = expiresAt
		ix.linkExpiry(r)
		return
	}

	r := &record{key: key, value: value, expiresAt: expiresAt}
	ix.ordered.ReplaceOrInsert(r)
	ix.points[key] = r
	ix.linkExpiry(r)
}

func (ix *index) erase(key string) (*record, bool) {
	r, ok := ix.points[key]
	if !ok {
		return nil, false
	}
	delete(ix.points, key)
	ix.ordered.Delete(r)
	ix.unlinkExpiry(r)
	return r, true
}

func (ix *index) linkExpiry(r *record) {
	if r.expiresAt.IsZero() {
		return
	}
	ix.seq++
	r.exp = &expiryItem{at: r.expiresAt, seq: ix.seq, key: r.key}
	ix.expiry.ReplaceOrInsert(r.exp)
}

func (ix *index) unlinkExpiry(r *record) {
	if r.exp == nil {
		return
	}
	ix.expiry.Delete(r.exp)
	r.exp = nil
}

// popDue removes the earliest expiry entry if it is due at now. The
// returned record is nil when the entry no longer matches a live record.
func (ix *index) popDue(now time.Time) (item *expiryItem, r *record, due bool) {
	item, ok := ix.expiry.Min()
	if !ok || item.at.After(now) {
		return nil, nil, false
	}
	ix.expiry.DeleteMin()

	r, ok = ix.points[item.key]
	if !ok || r.exp != item {
		return item, nil, true
	}
	r.exp = nil
	ix.erase(item.key)
	return item, r, true
}

// ascend calls fn for each record with key >= start in key order until fn
// returns false.
func (ix *index) ascend(start string, fn func(*record) bool) {
	ix.ordered.AscendGreaterOrEqual(&record{key: start}, fn)
}

// expiryFor converts a TTL into an absolute expiration. TTLs are kept at
// whole-second granularity; a positive TTL never rounds down to eternal.
func expiryFor(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	ttl = ttl.Truncate(time.Second)
	if ttl == 0 {
		ttl = time.Second
	}
	return now.Add(ttl)
}
