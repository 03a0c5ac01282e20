// Package scene defines the frame evaluator the sampler drives and its
// concrete hosts: a BMD skeleton and a JSON track dump.
package scene

import (
	"errors"
	"fmt"

	"anim-cfg-export/internal/mathutil"
)

// ErrObjectNotFound is returned by ObjectByName for unknown names.
var ErrObjectNotFound = errors.New("scene: object not found")

// ObjectRef identifies an object inside one Evaluator.
type ObjectRef int

// Evaluator is the host: it owns the global current frame and resolves
// world transforms at that frame. It is not safe for concurrent use.
type Evaluator interface {
	CurrentFrame() int
	SetCurrentFrame(f int)
	WorldTransform(ref ObjectRef) mathutil.Transform
	ObjectByName(name string) (ObjectRef, error)
	Objects() []string
}

// Bounded is implemented by evaluators that know their natural frame range.
type Bounded interface {
	FrameBounds() (start, end int)
}

// Armature is implemented by evaluators whose objects form a skeleton.
type Armature interface {
	Bones() []string
}

// PreserveFrame snapshots the evaluator's current frame, runs fn and restores
// the frame on every exit path, including a panic inside fn.
func PreserveFrame(ev Evaluator, fn func() error) error {
	saved := ev.CurrentFrame()
	defer ev.SetCurrentFrame(saved)
	return fn()
}

func notFound(name string) error {
	return fmt.Errorf("%w: %q", ErrObjectNotFound, name)
}
