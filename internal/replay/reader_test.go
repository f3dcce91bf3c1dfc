package replay

import (
	"io"
	"strings"
	"testing"
)

func TestFrameReaderSplitsFrames(t *testing.T) {
	input := "# recorded 2026-08-12\n" +
		"0.1,0.2,0.3\n" +
		"1.0,2.0,3.0\n" +
		"\n" +
		"-1.5, 0.5, 2.25\n" +
		"\n"
	fr := NewFrameReader(strings.NewReader(input))

	first, err := fr.Next()
	if err != nil {
		t.Fatalf("first frame: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("first frame has %d points, want 2", len(first))
	}
	if first[1].X != 1.0 || first[1].Y != 2.0 || first[1].Z != 3.0 {
		t.Errorf("first frame point = %+v", first[1])
	}

	second, err := fr.Next()
	if err != nil {
		t.Fatalf("second frame: %v", err)
	}
	if len(second) != 1 || second[0].X != -1.5 {
		t.Errorf("second frame = %+v", second)
	}

	if _, err := fr.Next(); err != io.EOF {
		t.Errorf("expected io.EOF at end, got %v", err)
	}
	if _, err := fr.Next(); err != io.EOF {
		t.Errorf("EOF is not sticky, got %v", err)
	}
}

func TestFrameReaderNoTrailingBlankLine(t *testing.T) {
	fr := NewFrameReader(strings.NewReader("1,2,3\n4,5,6"))
	frame, err := fr.Next()
	if err != nil {
		t.Fatal(err)
	}
	if len(frame) != 2 {
		t.Errorf("frame has %d points, want 2", len(frame))
	}
	if _, err := fr.Next(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestFrameReaderSkipsEmptyFrames(t *testing.T) {
	fr := NewFrameReader(strings.NewReader("\n\n\n1,2,3\n\n\n\n"))
	frame, err := fr.Next()
	if err != nil {
		t.Fatal(err)
	}
	if len(frame) != 1 {
		t.Errorf("frame has %d points, want 1", len(frame))
	}
	if _, err := fr.Next(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestFrameReaderBadLine(t *testing.T) {
	cases := []string{
		"1,2\n",
		"1,2,3,4\n",
		"a,b,c\n",
	}
	for _, input := range cases {
		fr := NewFrameReader(strings.NewReader(input))
		if _, err := fr.Next(); err == nil {
			t.Errorf("input %q: expected parse error", input)
		}
	}
}

func TestFrameReaderEmptyInput(t *testing.T) {
	fr := NewFrameReader(strings.NewReader(""))
	if _, err := fr.Next(); err != io.EOF {
		t.Errorf("expected io.EOF for empty input, got %v", err)
	}
}
