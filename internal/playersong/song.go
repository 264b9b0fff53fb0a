// Package playersong defines the queue-facing song value carried
// across the decoder/player boundary: a URI plus trim points and the
// tag snapshot most recently read from the stream.
package playersong

import (
	"time"

	"github.com/google/uuid"

	"sonorad/internal/audio"
)

// TagSnapshot is an immutable set of tag values read from a decoded
// stream at a point in time. A decoder may read a later, more
// complete snapshot mid-stream; the player republishes it as the
// song's updated tag without mutating the original.
type TagSnapshot struct {
	Artist   string
	Album    string
	Title    string
	Track    string
	Genre    string
	Date     string
	Duration audio.SignedSongTime
}

// Song is one playable item handed to the player by the external
// queue. It is immutable once enqueued; the player holds the playing
// song as a Song, and builds a DetachedSong below when the decoder
// publishes a new tag snapshot for it.
type Song struct {
	ID  uuid.UUID
	URI string

	// Start and End trim the underlying stream; End of zero means
	// "play to the end of the stream".
	Start audio.SongTime
	End   audio.SongTime

	Tag *TagSnapshot
}

// NewSong creates a new Song with a freshly generated ID.
func NewSong(uri string, start, end audio.SongTime) Song {
	return Song{
		ID:    uuid.New(),
		URI:   uri,
		Start: start,
		End:   end,
	}
}

// DetachedSong is a standalone copy of a Song plus the decoder's most
// recently observed tag snapshot and the wall-clock time it was
// detached. "Detached" follows the upstream convention: it no longer
// belongs to the queue and can be freely copied across threads.
type DetachedSong struct {
	Song
	LastModified time.Time
	UpdatedTag   *TagSnapshot
}

// Detach produces a DetachedSong from a Song, stamping the current
// time as LastModified.
func Detach(s Song, now time.Time) DetachedSong {
	return DetachedSong{Song: s, LastModified: now}
}

// WithUpdatedTag returns a copy of d carrying a newer tag snapshot,
// as published by the decoder partway through the stream.
func (d DetachedSong) WithUpdatedTag(tag *TagSnapshot) DetachedSong {
	d.UpdatedTag = tag
	return d
}

// Duration returns End-Start, or zero if End is unset.
func (s Song) Duration() audio.SongTime {
	if s.End <= s.Start {
		return 0
	}
	return s.End - s.Start
}
