// Package export drives a full model.cfg export: it resolves the channels,
// samples and encodes each one in turn and writes the output files.
package export

import (
	"errors"
	"fmt"
	"os"

	"anim-cfg-export/internal/encoder"
	"anim-cfg-export/internal/event"
	"anim-cfg-export/internal/modelcfg"
	"anim-cfg-export/internal/preview"
	"anim-cfg-export/internal/sampler"
	"anim-cfg-export/internal/scene"
)

var (
	// ErrNoObjectsSelected is returned when there is nothing to export.
	ErrNoObjectsSelected = errors.New("export: no objects selected")
	// ErrArmatureResolution is returned when armature mode finds no bones.
	ErrArmatureResolution = errors.New("export: armature has no bones")
	// ErrFileCollision fails a channel whose file name is already taken.
	ErrFileCollision = errors.New("export: channel file name collision")
)

// Job holds everything one export run needs.
type Job struct {
	Scene     scene.Evaluator
	Output    string
	Selection []string
	Armature  bool
	Parent    string

	// Nil bounds default to the scene's own frame range.
	FrameStart *int
	FrameEnd   *int

	Channel      encoder.ChannelConfig
	CreateFolder bool
	FolderName   string

	Preview     string // "", "webp" or "tga"
	PreviewSize int
}

// Result holds the outcome of exporting one channel.
type Result struct {
	Selection string
	Path      string
	Preview   string
	Frames    int
	Pairs     int
	Success   bool
	Error     string
	Err       error `json:"-"`
}

// Run exports every selected channel sequentially. Channel failures are
// reported in their Result and do not stop the remaining channels. The
// scene's current frame is restored before Run returns.
func Run(job Job) ([]Result, error) {
	selections, err := resolveSelection(job)
	if err != nil {
		return nil, err
	}
	frames, err := FrameRange(job)
	if err != nil {
		return nil, err
	}

	// The parent is shared by every channel; a missing one fails the run
	// before anything touches the disk.
	if job.Parent != "" {
		if _, err := job.Scene.ObjectByName(job.Parent); err != nil {
			return nil, fmt.Errorf("%w: %q: %w", sampler.ErrParentNotFound, job.Parent, err)
		}
	}

	layout := modelcfg.NewLayout(job.Output, len(selections), job.CreateFolder, job.FolderName)

	results := make([]Result, 0, len(selections))
	claimed := map[string]string{} // channel path -> selection
	prepared := false
	err = scene.PreserveFrame(job.Scene, func() error {
		for _, sel := range selections {
			path := layout.ChannelPath(sel)
			if other, ok := claimed[path]; ok {
				err := fmt.Errorf("%w: %q and %q both map to %s", ErrFileCollision, other, sel, path)
				results = append(results, failed(Result{Selection: sel, Path: path}, err))
				continue
			}
			res, out := renderChannel(job, frames, sel, path)
			if res.Err == nil && !prepared {
				if err := layout.Prepare(); err != nil {
					return err
				}
				prepared = true
			}
			if res.Err == nil {
				res = writeChannel(res, out)
			}
			if res.Success {
				claimed[path] = sel
			}
			results = append(results, res)
		}
		return nil
	})
	if err != nil {
		return results, err
	}

	if layout.Multi {
		var done []string
		for _, r := range results {
			if r.Success {
				done = append(done, r.Selection)
			}
		}
		if len(done) > 0 {
			if err := layout.WriteMain(done); err != nil {
				return results, err
			}
		}
	}

	return results, nil
}

func resolveSelection(job Job) ([]string, error) {
	if job.Armature {
		return ArmatureSelection(job.Scene)
	}
	if len(job.Selection) == 0 {
		return nil, ErrNoObjectsSelected
	}
	return job.Selection, nil
}

// ArmatureSelection lists the bones of ev as channel names.
func ArmatureSelection(ev scene.Evaluator) ([]string, error) {
	arm, ok := ev.(scene.Armature)
	if !ok {
		return nil, fmt.Errorf("%w: input is not a skeleton", ErrArmatureResolution)
	}
	bones := arm.Bones()
	if len(bones) == 0 {
		return nil, ErrArmatureResolution
	}
	return bones, nil
}

// FrameRange fills unset bounds from the scene, or 0 when the scene has no
// natural range.
func FrameRange(job Job) (sampler.FrameRange, error) {
	start, end := 0, 0
	if b, ok := job.Scene.(scene.Bounded); ok {
		start, end = b.FrameBounds()
	}
	if job.FrameStart != nil {
		start = *job.FrameStart
	}
	if job.FrameEnd != nil {
		end = *job.FrameEnd
	}
	return sampler.NewFrameRange(start, end)
}

// channelOutput is a rendered channel waiting to be written.
type channelOutput struct {
	cfg     []byte
	preview []byte
}

func failed(res Result, err error) Result {
	res.Err = err
	res.Error = err.Error()
	event.Log.WithFields(event.Fields{"selection": res.Selection, "error": err}).Error("Channel export failed")
	return res
}

// renderChannel samples, encodes and renders one channel in memory.
func renderChannel(job Job, frames sampler.FrameRange, sel, path string) (Result, channelOutput) {
	res := Result{Selection: sel, Path: path}

	ts, err := sampler.Sample(job.Scene, sampler.Request{
		Object: sel,
		Parent: job.Parent,
		Frames: frames,
	})
	if err != nil {
		return failed(res, err), channelOutput{}
	}

	segs := encoder.Encode(ts, job.Channel)
	out := channelOutput{cfg: modelcfg.Render(segs, job.Channel, sel)}
	if job.Preview != "" {
		res.Preview = preview.PathFor(path, job.Preview)
		if out.preview, err = preview.Encode(res.Preview, preview.Render(ts, job.PreviewSize)); err != nil {
			return failed(res, err), channelOutput{}
		}
	}
	res.Frames = len(ts)
	res.Pairs = len(segs)
	return res, out
}

// writeChannel writes the preview first so a failure leaves no channel file.
func writeChannel(res Result, out channelOutput) Result {
	if res.Preview != "" {
		if err := modelcfg.WriteFileAtomic(res.Preview, out.preview); err != nil {
			return failed(res, err)
		}
	}
	if err := modelcfg.WriteFileAtomic(res.Path, out.cfg); err != nil {
		if res.Preview != "" {
			os.Remove(res.Preview)
		}
		return failed(res, err)
	}

	res.Success = true
	event.Log.WithFields(event.Fields{"selection": res.Selection, "file": res.Path}).
		Infof("%d frames exported as %d animation pairs", res.Frames, res.Pairs)
	return res
}

// Failed counts unsuccessful results.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Success {
			n++
		}
	}
	return n
}
