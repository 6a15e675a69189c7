// Package store keeps an in-memory revision graph of snapshots of a single
// serializable value. Each revision is either a complete text or a reverse
// delta pointing at a newer revision; after every append the previous
// revision is rewritten as a delta whenever that reduces storage.
package store

import (
	"crypto/sha1"
	"encoding/hex"
	"time"
)

// snapshot is one entry of the revision graph: either complete or delta.
// The two variants share nothing beyond revision id and creation time.
type snapshot interface {
	revision() string
	created() time.Time
	// size is the storage footprint used by compaction decisions: the text
	// length for a complete snapshot, the compressed patch length for a
	// delta.
	size() int
}

// completeSnapshot materializes the full encoded text of a revision.
type completeSnapshot struct {
	rev  string
	at   time.Time
	text string
}

func (s *completeSnapshot) revision() string   { return s.rev }
func (s *completeSnapshot) created() time.Time { return s.at }
func (s *completeSnapshot) size() int          { return len(s.text) }

// deltaSnapshot stores a revision as a compressed reverse delta: the patch,
// applied to the snapshot at futureRev, yields this revision's text.
type deltaSnapshot struct {
	rev       string
	at        time.Time
	futureRev string
	blob      string
}

func (s *deltaSnapshot) revision() string   { return s.rev }
func (s *deltaSnapshot) created() time.Time { return s.at }
func (s *deltaSnapshot) size() int          { return len(s.blob) }

// hashText returns the revision id of an encoded text: lowercase hex SHA-1
// of its UTF-8 bytes.
func hashText(text string) string {
	sum := sha1.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}
