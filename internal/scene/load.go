package scene

import (
	"fmt"
	"path/filepath"
	"strings"

	"anim-cfg-export/internal/bmd"
)

// LoadOptions selects how an input file becomes an Evaluator.
type LoadOptions struct {
	Action int       // BMD action index
	LEAKey *[32]byte // BMD v15 key
}

// Load opens a .bmd model as a SkeletonScene or a .json dump as a TrackScene.
func Load(path string, opts LoadOptions) (Evaluator, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bmd":
		model, err := bmd.Parse(path, bmd.Options{LEAKey: opts.LEAKey})
		if err != nil {
			return nil, err
		}
		if opts.Action < 0 || opts.Action >= len(model.Actions) {
			return nil, fmt.Errorf("scene: %s has %d actions, action %d requested", path, len(model.Actions), opts.Action)
		}
		return NewSkeletonScene(model, opts.Action), nil
	case ".json":
		return LoadTracks(path)
	default:
		return nil, fmt.Errorf("scene: unsupported input %s (want .bmd or .json)", path)
	}
}
