// Package replay reads recorded point cloud frames for offline
// processing. The frame log format is plain text: one "x,y,z" point per
// line, blank lines separate frames, '#' starts a comment line.
package replay

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/banshee-data/motiongrid/internal/voxmap"
)

// FrameReader reads point cloud frames from a frame log stream.
type FrameReader struct {
	scanner *bufio.Scanner
	line    int
	done    bool
}

// NewFrameReader creates a FrameReader over r.
func NewFrameReader(r io.Reader) *FrameReader {
	sc := bufio.NewScanner(r)
	// Frame logs can have long comment lines from export tools.
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &FrameReader{scanner: sc}
}

// Next returns the next frame in the log, or io.EOF when the stream is
// exhausted. Empty frames (consecutive blank lines) are skipped.
func (fr *FrameReader) Next() ([]voxmap.Point, error) {
	if fr.done {
		return nil, io.EOF
	}

	var points []voxmap.Point
	for fr.scanner.Scan() {
		fr.line++
		text := strings.TrimSpace(fr.scanner.Text())
		if text == "" {
			if len(points) > 0 {
				return points, nil
			}
			continue
		}
		if strings.HasPrefix(text, "#") {
			continue
		}

		p, err := parsePoint(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", fr.line, err)
		}
		points = append(points, p)
	}
	if err := fr.scanner.Err(); err != nil {
		return nil, err
	}

	fr.done = true
	if len(points) > 0 {
		return points, nil
	}
	return nil, io.EOF
}

func parsePoint(text string) (voxmap.Point, error) {
	parts := strings.Split(text, ",")
	if len(parts) != 3 {
		return voxmap.Point{}, fmt.Errorf("expected 3 fields, got %d in %q", len(parts), text)
	}

	var coords [3]float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return voxmap.Point{}, fmt.Errorf("bad coordinate %q: %w", part, err)
		}
		coords[i] = v
	}
	return voxmap.Point{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}
