package world

import "github.com/roach88/dupe/internal/snapshot"

// Capability hooks. An object type opts in by implementing any subset; the
// engine checks with a type assertion and simply skips hooks that are
// absent. None of them is an error to leave out.

// Duplicatable marks an object type as taking part in duplication even when
// its class is not on the allow-list.
type Duplicatable interface {
	Duplicatable()
}

// PreCapturer returns opaque data to store with the object at capture.
type PreCapturer interface {
	PreCapture() []snapshot.Value
}

// PostPaster receives its stored data once the object is spawned.
type PostPaster interface {
	PostPaste(ext []snapshot.Value)
}

// PostPasteAller is called after the last object of a paste is spawned,
// with every spawned object keyed by snapshot index.
type PostPasteAller interface {
	PostPasteAll(objects map[int32]Object)
}

// PostPasteDoner is called once the paste has finished.
type PostPasteDoner interface {
	PostPasteDone()
}
