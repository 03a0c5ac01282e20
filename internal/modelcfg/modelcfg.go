// Package modelcfg renders encoded segments as Arma model.cfg animation
// classes and lays out the include files for multi-channel exports.
package modelcfg

import (
	"bytes"
	"fmt"
	"io"
	"regexp"

	"anim-cfg-export/internal/encoder"
	"anim-cfg-export/internal/mathutil"

	"github.com/go-gl/mathgl/mgl64"
)

var unsafeClassChars = regexp.MustCompile(`[^A-Za-z0-9_]`)

// Sanitize replaces every character outside [A-Za-z0-9_] with '_'.
func Sanitize(s string) string {
	return unsafeClassChars.ReplaceAllString(s, "_")
}

// ClassName is "<source>_<selection>_<trans|rot>_<index>", sanitized.
func ClassName(source, selection string, kind encoder.Kind, index int) string {
	return fmt.Sprintf("%s_%s_%s_%d", Sanitize(source), Sanitize(selection), kind, index)
}

// Render returns the model.cfg text for one channel.
func Render(segs []encoder.Segment, cfg encoder.ChannelConfig, selection string) []byte {
	var buf bytes.Buffer
	_ = Write(&buf, segs, cfg, selection)
	return buf.Bytes()
}

// Write renders one translation and one rotation class per segment, in order.
func Write(w io.Writer, segs []encoder.Segment, cfg encoder.ChannelConfig, selection string) error {
	for _, s := range segs {
		for _, rec := range s.Records() {
			if err := writeRecord(w, rec, cfg, selection); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeRecord(w io.Writer, rec encoder.Record, cfg encoder.ChannelConfig, selection string) error {
	p := cfg.Precision
	num := func(v float64) string { return mathutil.FormatFixed(v, p) }
	vec := func(v mgl64.Vec3) string { return "{" + num(v[0]) + ", " + num(v[1]) + ", " + num(v[2]) + "}" }

	axisPos, angle, offset := "{0, 0, 0}", "0", "0"
	if rec.Kind == encoder.Rotation {
		axisPos, angle = vec(rec.AxisPos), num(rec.Angle)
	} else {
		offset = num(rec.AxisOffset)
	}

	var address string
	if cfg.SourceAddress != "" && cfg.SourceAddress != encoder.Clamp {
		address = fmt.Sprintf("    sourceAddress = %s;\n", cfg.SourceAddress)
	}

	_, err := fmt.Fprintf(w, "class %s {\n"+
		"    type       = direct;\n"+
		"    source     = %s;\n"+
		"%s"+
		"    selection  = %s;\n"+
		"    axisPos[]  = %s;\n"+
		"    axisDir[]  = %s;\n"+
		"    angle      = %s;\n"+
		"    axisOffset = %s;\n"+
		"    minValue   = %s;\n"+
		"    maxValue   = %s;\n"+
		"};\n",
		ClassName(cfg.SourceName, selection, rec.Kind, rec.Index),
		cfg.SourceName,
		address,
		selection,
		axisPos,
		vec(rec.AxisDir),
		angle,
		offset,
		num(rec.MinValue),
		num(rec.MaxValue),
	)
	return err
}
