package export

import (
	"encoding/json"
	"path/filepath"

	"anim-cfg-export/internal/modelcfg"
)

// ManifestEntry represents one channel in the output manifest.
type ManifestEntry struct {
	Selection string `json:"selection"`
	File      string `json:"file,omitempty"`
	Preview   string `json:"preview,omitempty"`
	Frames    int    `json:"frames"`
	Pairs     int    `json:"pairs"`
	Error     string `json:"error,omitempty"`
}

// Manifest summarises one export run.
type Manifest struct {
	Main     string          `json:"main"`
	Source   string          `json:"source"`
	Channels []ManifestEntry `json:"channels"`
}

// ManifestPath is manifest.json next to the main output file.
func ManifestPath(output string) string {
	return filepath.Join(filepath.Dir(output), "manifest.json")
}

// WriteManifest writes the run summary to path. File paths are stored
// relative to the manifest's directory.
func WriteManifest(path string, job Job, results []Result) error {
	dir := filepath.Dir(path)
	rel := func(p string) string {
		if p == "" {
			return ""
		}
		if r, err := filepath.Rel(dir, p); err == nil {
			return filepath.ToSlash(r)
		}
		return p
	}

	m := Manifest{
		Main:     rel(job.Output),
		Source:   job.Channel.SourceName,
		Channels: make([]ManifestEntry, len(results)),
	}
	for i, r := range results {
		e := ManifestEntry{
			Selection: r.Selection,
			Frames:    r.Frames,
			Pairs:     r.Pairs,
			Error:     r.Error,
		}
		if r.Success {
			e.File = rel(r.Path)
			e.Preview = rel(r.Preview)
		}
		m.Channels[i] = e
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return modelcfg.WriteFileAtomic(path, data)
}
