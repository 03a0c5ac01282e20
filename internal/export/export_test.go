package export

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"anim-cfg-export/internal/bmd"
	"anim-cfg-export/internal/encoder"
	"anim-cfg-export/internal/sampler"
	"anim-cfg-export/internal/scene"
)

const tracks = `{
  "objects": [
    {"name": "Door", "samples": [
      {"frame": 0, "position": [10, 0, 0]},
      {"frame": 1, "position": [11, 0, 0]},
      {"frame": 2, "position": [11, 0, 1]}
    ]},
    {"name": "Frame", "samples": [{"frame": 0, "position": [10, 0, 0]}]}
  ]
}`

func trackScene(t *testing.T) *scene.TrackScene {
	t.Helper()
	ts, err := scene.ParseTracks([]byte(tracks))
	if err != nil {
		t.Fatal(err)
	}
	return ts
}

func newJob(t *testing.T, ev scene.Evaluator, out string, sel ...string) Job {
	t.Helper()
	ch, err := encoder.NewChannelConfig("door", encoder.Clamp, 7, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	return Job{
		Scene:        ev,
		Output:       out,
		Selection:    sel,
		Channel:      ch,
		CreateFolder: true,
		FolderName:   "door",
		PreviewSize:  32,
	}
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestRunSingleChannel(t *testing.T) {
	out := filepath.Join(t.TempDir(), "model.cfg")
	ev := trackScene(t)
	ev.SetCurrentFrame(7)

	results, err := Run(newJob(t, ev, out, "Door"))
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || !results[0].Success {
		t.Fatalf("results = %+v", results)
	}
	if r := results[0]; r.Frames != 3 || r.Pairs != 2 || r.Path != out {
		t.Fatalf("result = %+v", r)
	}
	if ev.CurrentFrame() != 7 {
		t.Fatalf("current frame = %d, want 7 restored", ev.CurrentFrame())
	}

	text := read(t, out)
	for _, class := range []string{"door_Door_trans_0", "door_Door_rot_0", "door_Door_trans_1", "door_Door_rot_1"} {
		if !strings.Contains(text, "class "+class+" {") {
			t.Fatalf("missing %s in:\n%s", class, text)
		}
	}
	if !strings.Contains(text, "    axisPos[]  = {11.0000000, 1.0000000, 0.0000000};\n") {
		t.Fatalf("pivot of second rotation not remapped:\n%s", text)
	}
	if strings.Contains(text, "#include") {
		t.Fatal("single channel must not write includes")
	}
}

func TestRunParentRelative(t *testing.T) {
	out := filepath.Join(t.TempDir(), "model.cfg")
	job := newJob(t, trackScene(t), out, "Door")
	job.Parent = "Frame"

	if _, err := Run(job); err != nil {
		t.Fatal(err)
	}
	if text := read(t, out); !strings.Contains(text, "    axisPos[]  = {1.0000000, 0.0000000, 0.0000000};\n") {
		t.Fatalf("pivot not relative to parent:\n%s", text)
	}
}

func TestRunMissingParentWritesNothing(t *testing.T) {
	tests := []struct {
		name string
		sel  []string
	}{
		{"single", []string{"Door"}},
		{"multi", []string{"Door", "Frame"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			out := filepath.Join(dir, "model.cfg")
			ev := trackScene(t)
			ev.SetCurrentFrame(4)
			job := newJob(t, ev, out, tt.sel...)
			job.Parent = "Nope"

			results, err := Run(job)
			if !errors.Is(err, sampler.ErrParentNotFound) {
				t.Fatalf("err = %v, want ErrParentNotFound", err)
			}
			if len(results) != 0 {
				t.Fatalf("results = %+v", results)
			}
			if ev.CurrentFrame() != 4 {
				t.Fatalf("frame changed to %d", ev.CurrentFrame())
			}
			entries, err := os.ReadDir(dir)
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != 0 {
				t.Fatalf("files left behind: %v", entries)
			}
		})
	}
}

func TestRunAllChannelsFailCreatesNoFolder(t *testing.T) {
	dir := t.TempDir()
	job := newJob(t, trackScene(t), filepath.Join(dir, "anim.cfg"), "Ghost", "Phantom")

	results, err := Run(job)
	if err != nil {
		t.Fatal(err)
	}
	if Failed(results) != 2 {
		t.Fatalf("Failed = %d", Failed(results))
	}
	if _, err := os.Stat(filepath.Join(dir, "door")); !os.IsNotExist(err) {
		t.Fatalf("folder created although every channel failed: %v", err)
	}
}

func TestRunPreviewFailureWritesNoChannel(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "anim.cfg")
	job := newJob(t, trackScene(t), out, "Door", "Frame")
	job.Preview = "png"

	results, err := Run(job)
	if err != nil {
		t.Fatal(err)
	}
	if Failed(results) != 2 {
		t.Fatalf("results = %+v", results)
	}
	for _, name := range []string{"anim.cfg", "door"} {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Fatalf("%s exists after preview failure: %v", name, err)
		}
	}
}

func TestRunFileNameCollision(t *testing.T) {
	dir := t.TempDir()
	ts, err := scene.ParseTracks([]byte(`{"objects": [
		{"name": "a/b", "samples": [{"frame": 0, "position": [0, 0, 0]}, {"frame": 1, "position": [1, 0, 0]}]},
		{"name": "a_b", "samples": [{"frame": 0, "position": [0, 0, 0]}, {"frame": 1, "position": [0, 0, 5]}]}
	]}`))
	if err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "anim.cfg")
	job := newJob(t, ts, out, "a/b", "a_b")

	results, err := Run(job)
	if err != nil {
		t.Fatal(err)
	}
	if !results[0].Success {
		t.Fatalf("first channel = %+v", results[0])
	}
	if results[1].Success || !errors.Is(results[1].Err, ErrFileCollision) {
		t.Fatalf("second channel = %+v", results[1])
	}

	text := read(t, filepath.Join(dir, "door", "anim_a_b.hpp"))
	if !strings.Contains(text, "selection  = a/b;") || strings.Contains(text, "selection  = a_b;") {
		t.Fatalf("first channel file overwritten:\n%s", text)
	}
	if got := read(t, out); got != "#include \"door\\anim_a_b.hpp\"\n" {
		t.Fatalf("main = %q", got)
	}
}

func TestRunMultiChannel(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "anim.cfg")
	job := newJob(t, trackScene(t), out, "Door", "Ghost", "Frame")

	results, err := Run(job)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d", len(results))
	}
	if !errors.Is(results[1].Err, scene.ErrObjectNotFound) {
		t.Fatalf("Ghost result = %+v", results[1])
	}

	door := filepath.Join(dir, "door", "anim_Door.hpp")
	if results[0].Path != door {
		t.Fatalf("door path = %q", results[0].Path)
	}
	if !strings.Contains(read(t, door), "class door_Door_trans_1 {") {
		t.Fatal("door file incomplete")
	}
	if _, err := os.Stat(filepath.Join(dir, "door", "anim_Ghost.hpp")); !os.IsNotExist(err) {
		t.Fatal("failed channel left a file")
	}

	want := "#include \"door\\anim_Door.hpp\"\n#include \"door\\anim_Frame.hpp\"\n"
	if got := read(t, out); got != want {
		t.Fatalf("main = %q, want %q", got, want)
	}
}

func TestRunSingleFrameRange(t *testing.T) {
	out := filepath.Join(t.TempDir(), "model.cfg")
	job := newJob(t, trackScene(t), out, "Door")
	one := 1
	job.FrameStart, job.FrameEnd = &one, &one

	results, err := Run(job)
	if err != nil {
		t.Fatal(err)
	}
	if r := results[0]; !r.Success || r.Frames != 1 || r.Pairs != 0 {
		t.Fatalf("result = %+v", r)
	}
	if text := read(t, out); text != "" {
		t.Fatalf("expected empty output, got %q", text)
	}
}

func TestRunErrors(t *testing.T) {
	out := filepath.Join(t.TempDir(), "model.cfg")

	if _, err := Run(newJob(t, trackScene(t), out)); !errors.Is(err, ErrNoObjectsSelected) {
		t.Fatalf("empty selection: err = %v", err)
	}

	job := newJob(t, trackScene(t), out)
	job.Armature = true
	if _, err := Run(job); !errors.Is(err, ErrArmatureResolution) {
		t.Fatalf("armature on tracks: err = %v", err)
	}

	empty := newJob(t, scene.NewSkeletonScene(&bmd.Model{Actions: []bmd.Action{{NumKeys: 1}}}, 0), out)
	empty.Armature = true
	if _, err := Run(empty); !errors.Is(err, ErrArmatureResolution) {
		t.Fatalf("armature without bones: err = %v", err)
	}

	job = newJob(t, trackScene(t), out, "Door")
	start, end := 3, 1
	job.FrameStart, job.FrameEnd = &start, &end
	if _, err := Run(job); err == nil {
		t.Fatal("expected error for reversed frame range")
	}
}

func TestRunArmature(t *testing.T) {
	model := &bmd.Model{
		Actions: []bmd.Action{{NumKeys: 2}},
		Bones: []bmd.Bone{
			{Name: "Root", Parent: -1, Keys: [][]bmd.Key{{
				{},
				{Rotation: [3]float64{0, 0, math.Pi / 2}},
			}}},
			{IsDummy: true, Parent: -1},
			{Name: "Tip", Parent: 0, Keys: [][]bmd.Key{{
				{Position: [3]float64{1, 0, 0}},
				{Position: [3]float64{1, 0, 0}},
			}}},
		},
	}
	dir := t.TempDir()
	out := filepath.Join(dir, "arm.cfg")
	job := newJob(t, scene.NewSkeletonScene(model, 0), out)
	job.Armature = true
	job.CreateFolder = false
	job.Preview = "webp"

	results, err := Run(job)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || results[0].Selection != "Root" || results[1].Selection != "Tip" {
		t.Fatalf("results = %+v", results)
	}
	for _, r := range results {
		if !r.Success || r.Pairs != 1 {
			t.Fatalf("result = %+v", r)
		}
		if _, err := os.Stat(r.Preview); err != nil {
			t.Fatalf("preview: %v", err)
		}
	}

	// Root spins 90 degrees about Z in place; Tip swings from +X to +Y.
	root := read(t, filepath.Join(dir, "arm_Root.hpp"))
	if !strings.Contains(root, "    angle      = 90.0000000;\n") || !strings.Contains(root, "    axisOffset = 0.0000000;\n") {
		t.Fatalf("root:\n%s", root)
	}
	tip := read(t, filepath.Join(dir, "arm_Tip.hpp"))
	if !strings.Contains(tip, "    axisOffset = 1.4142136;\n") {
		t.Fatalf("tip:\n%s", tip)
	}

	if got := read(t, out); got != "#include \"arm_Root.hpp\"\n#include \"arm_Tip.hpp\"\n" {
		t.Fatalf("main = %q", got)
	}
}

func TestFrameRangeDefaults(t *testing.T) {
	r, err := FrameRange(Job{Scene: trackScene(t)})
	if err != nil {
		t.Fatal(err)
	}
	if r.Start != 0 || r.End != 2 {
		t.Fatalf("range = %+v", r)
	}
	end := 1
	if r, _ := FrameRange(Job{Scene: trackScene(t), FrameEnd: &end}); r.End != 1 {
		t.Fatalf("range = %+v", r)
	}
}

func TestWriteManifest(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "anim.cfg")
	job := newJob(t, trackScene(t), out, "Door", "Ghost")

	results, err := Run(job)
	if err != nil {
		t.Fatal(err)
	}
	path := ManifestPath(out)
	if err := WriteManifest(path, job, results); err != nil {
		t.Fatal(err)
	}

	var m Manifest
	if err := json.Unmarshal([]byte(read(t, path)), &m); err != nil {
		t.Fatal(err)
	}
	if m.Main != "anim.cfg" || m.Source != "door" || len(m.Channels) != 2 {
		t.Fatalf("manifest = %+v", m)
	}
	if c := m.Channels[0]; c.File != "door/anim_Door.hpp" || c.Pairs != 2 || c.Error != "" {
		t.Fatalf("door entry = %+v", c)
	}
	if c := m.Channels[1]; c.File != "" || c.Error == "" {
		t.Fatalf("ghost entry = %+v", c)
	}
}
