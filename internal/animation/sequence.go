// Package animation implements keyframe tracks: ordered time to value
// control points evaluated with per-segment easing.
package animation

// Sequence groups tracks that play in parallel.
type Sequence struct {
	Tracks []*Track
}

// Add appends a track to the sequence.
func (s *Sequence) Add(tr *Track) {
	s.Tracks = append(s.Tracks, tr)
}

// Duration is the longest track duration. Infinitely looping tracks count
// with a single pass.
func (s *Sequence) Duration() float64 {
	d := 0.0
	for _, tr := range s.Tracks {
		td := tr.Duration()
		if tr.LoopCount > 1 {
			td *= float64(tr.LoopCount)
		}
		if td > d {
			d = td
		}
	}
	return d
}
