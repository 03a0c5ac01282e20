package scene

import (
	"anim-cfg-export/internal/bmd"
	"anim-cfg-export/internal/mathutil"
	"anim-cfg-export/internal/skeleton"
)

// SkeletonScene evaluates the bones of a BMD model for one action. Frames
// are key indices; frames outside the action are clamped to its first or
// last key.
type SkeletonScene struct {
	model  *bmd.Model
	action int
	frame  int
	worlds []mathutil.Transform // cached for frame, nil when stale
}

// NewSkeletonScene wraps model for the given action index.
func NewSkeletonScene(model *bmd.Model, action int) *SkeletonScene {
	return &SkeletonScene{model: model, action: action}
}

func (s *SkeletonScene) CurrentFrame() int { return s.frame }

func (s *SkeletonScene) SetCurrentFrame(f int) {
	if f != s.frame {
		s.worlds = nil
	}
	s.frame = f
}

// WorldTransform returns the bone's world matrix at the current frame.
func (s *SkeletonScene) WorldTransform(ref ObjectRef) mathutil.Transform {
	if s.worlds == nil {
		s.worlds = skeleton.WorldMatrices(s.model.Bones, s.action, s.frame)
	}
	i := int(ref)
	if i < 0 || i >= len(s.worlds) {
		return mathutil.Identity()
	}
	return s.worlds[i]
}

// ObjectByName resolves a non-dummy bone by name. The first match wins.
func (s *SkeletonScene) ObjectByName(name string) (ObjectRef, error) {
	for i, b := range s.model.Bones {
		if !b.IsDummy && b.Name == name {
			return ObjectRef(i), nil
		}
	}
	return -1, notFound(name)
}

// Objects lists the names of all non-dummy bones in file order.
func (s *SkeletonScene) Objects() []string {
	var names []string
	for _, b := range s.model.Bones {
		if !b.IsDummy {
			names = append(names, b.Name)
		}
	}
	return names
}

// Bones is Objects: every bone is an exportable channel.
func (s *SkeletonScene) Bones() []string {
	return s.Objects()
}

// FrameBounds returns [0, keys-1] for the action, or [0, 0] when it has no keys.
func (s *SkeletonScene) FrameBounds() (int, int) {
	if s.action < 0 || s.action >= len(s.model.Actions) {
		return 0, 0
	}
	n := s.model.Actions[s.action].NumKeys
	if n <= 0 {
		return 0, 0
	}
	return 0, n - 1
}
