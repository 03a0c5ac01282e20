package modelcfg

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Layout decides where each channel's classes are written.
type Layout struct {
	Main         string // user-chosen output path
	Multi        bool   // more than one channel
	CreateFolder bool
	FolderName   string
}

// NewLayout returns the layout for exporting n channels to main.
func NewLayout(main string, n int, createFolder bool, folderName string) Layout {
	return Layout{
		Main:         main,
		Multi:        n > 1,
		CreateFolder: createFolder,
		FolderName:   folderName,
	}
}

var pathSeparators = strings.NewReplacer("/", "_", `\`, "_")

// FileName is the include file name for a selection: "<stem>_<selection>.hpp".
func (l Layout) FileName(selection string) string {
	base := filepath.Base(l.Main)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem + "_" + pathSeparators.Replace(selection) + ".hpp"
}

// Dir is the directory that holds the per-channel files.
func (l Layout) Dir() string {
	dir := filepath.Dir(l.Main)
	if l.Multi && l.CreateFolder {
		dir = filepath.Join(dir, l.FolderName)
	}
	return dir
}

// ChannelPath is where a selection's classes go. A single channel writes to
// the main file itself.
func (l Layout) ChannelPath(selection string) string {
	if !l.Multi {
		return l.Main
	}
	return filepath.Join(l.Dir(), l.FileName(selection))
}

// IncludeLine is the main-file line that pulls in a selection's file. The
// engine expects a backslash separator.
func (l Layout) IncludeLine(selection string) string {
	prefix := ""
	if l.CreateFolder {
		prefix = l.FolderName + `\`
	}
	return fmt.Sprintf("#include \"%s%s\"\n", prefix, l.FileName(selection))
}

// Prepare creates the output folder. An existing folder is reused.
func (l Layout) Prepare() error {
	if !l.Multi || !l.CreateFolder {
		return nil
	}
	if err := os.MkdirAll(l.Dir(), 0o755); err != nil {
		return fmt.Errorf("modelcfg: create folder: %w", err)
	}
	return nil
}

// WriteMain writes the include lines for the given selections to the main file.
func (l Layout) WriteMain(selections []string) error {
	if !l.Multi {
		return errors.New("modelcfg: main include file only exists for multiple channels")
	}
	var buf bytes.Buffer
	for _, sel := range selections {
		buf.WriteString(l.IncludeLine(sel))
	}
	return WriteFileAtomic(l.Main, buf.Bytes())
}

// WriteFileAtomic writes data to a temp file in the target directory and
// renames it into place.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("modelcfg: write %s: %w", path, err)
	}
	name := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("modelcfg: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("modelcfg: write %s: %w", path, err)
	}
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return fmt.Errorf("modelcfg: write %s: %w", path, err)
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("modelcfg: write %s: %w", path, err)
	}
	return nil
}
