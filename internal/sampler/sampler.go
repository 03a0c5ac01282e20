// Package sampler sweeps a frame range on a scene and yields one transform
// per frame, relative to an optional parent.
package sampler

import (
	"errors"
	"fmt"
	"iter"

	"anim-cfg-export/internal/mathutil"
	"anim-cfg-export/internal/scene"
)

// ErrParentNotFound is returned when the configured parent does not resolve.
var ErrParentNotFound = errors.New("sampler: parent not found")

// ErrConsumed is returned when a Sampler is iterated a second time.
var ErrConsumed = errors.New("sampler: sequence already consumed")

// FrameRange is an inclusive frame interval.
type FrameRange struct {
	Start, End int
}

// NewFrameRange validates start <= end.
func NewFrameRange(start, end int) (FrameRange, error) {
	if start > end {
		return FrameRange{}, fmt.Errorf("sampler: frame start %d after end %d", start, end)
	}
	return FrameRange{Start: start, End: end}, nil
}

// Len is the number of frames in the range.
func (r FrameRange) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// Request names what to sample.
type Request struct {
	Object string
	Parent string // empty: world space
	Frames FrameRange
}

// Sampler is a single-use, ordered sweep over Request.Frames.
type Sampler struct {
	ev       scene.Evaluator
	object   scene.ObjectRef
	parent   scene.ObjectRef
	inParent bool
	frames   FrameRange
	used     bool
}

// New resolves the object and parent without touching the evaluator's frame.
// An unknown parent fails with ErrParentNotFound before any sampling.
func New(ev scene.Evaluator, req Request) (*Sampler, error) {
	if req.Frames.Len() == 0 {
		return nil, fmt.Errorf("sampler: empty frame range [%d, %d]", req.Frames.Start, req.Frames.End)
	}
	s := &Sampler{ev: ev, frames: req.Frames}
	if req.Parent != "" {
		ref, err := ev.ObjectByName(req.Parent)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrParentNotFound, req.Parent, err)
		}
		s.parent = ref
		s.inParent = true
	}
	ref, err := ev.ObjectByName(req.Object)
	if err != nil {
		return nil, fmt.Errorf("sampler: object: %w", err)
	}
	s.object = ref
	return s, nil
}

// Frames yields (frame, relative transform) in ascending frame order. It
// advances the evaluator's current frame; callers restore it with
// scene.PreserveFrame. A second call yields nothing.
func (s *Sampler) Frames() iter.Seq2[int, mathutil.Transform] {
	return func(yield func(int, mathutil.Transform) bool) {
		if s.used {
			return
		}
		s.used = true
		for f := s.frames.Start; f <= s.frames.End; f++ {
			s.ev.SetCurrentFrame(f)
			if !yield(f, s.at()) {
				return
			}
		}
	}
}

func (s *Sampler) at() mathutil.Transform {
	world := s.ev.WorldTransform(s.object)
	if !s.inParent {
		return world
	}
	return mathutil.Relative(s.ev.WorldTransform(s.parent), world)
}

// Collect drains the sweep into a slice.
func (s *Sampler) Collect() ([]mathutil.Transform, error) {
	if s.used {
		return nil, ErrConsumed
	}
	out := make([]mathutil.Transform, 0, s.frames.Len())
	for _, m := range s.Frames() {
		out = append(out, m)
	}
	return out, nil
}

// Sample is New followed by Collect.
func Sample(ev scene.Evaluator, req Request) ([]mathutil.Transform, error) {
	s, err := New(ev, req)
	if err != nil {
		return nil, err
	}
	return s.Collect()
}
