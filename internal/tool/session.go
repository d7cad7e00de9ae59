package tool

import "github.com/roach88/dupe/internal/snapshot"

// Session is one requester's tool state.
type Session struct {
	requester string
	name      string
	clipboard *snapshot.Snapshot
	skipped   []error
	area      bool
	rotation  float32
	height    float32
}

// Requester returns the owning requester.
func (s *Session) Requester() string { return s.requester }

// SetName sets the name stamped on later copies.
func (s *Session) SetName(name string) { s.name = name }

// Clipboard returns the held snapshot, nil when empty.
func (s *Session) Clipboard() *snapshot.Snapshot { return s.clipboard }

// Skipped returns the record errors for joints the last copy could not
// capture.
func (s *Session) Skipped() []error { return s.skipped }

// AreaCopy reports whether the next Copy captures a box.
func (s *Session) AreaCopy() bool { return s.area }

// RotationOffset is the paste yaw in degrees.
func (s *Session) RotationOffset() float32 { return s.rotation }

// HeightOffset is added to the paste point's Z.
func (s *Session) HeightOffset() float32 { return s.height }

func (s *Session) resetOffsets() {
	s.rotation = 0
	s.height = 0
}
