package voice

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// writeDCAFile writes frames as a raw DCA stream and returns the path.
func writeDCAFile(t *testing.T, frames [][]byte) string {
	t.Helper()
	var buf bytes.Buffer
	for _, frame := range frames {
		if err := binary.Write(&buf, binary.LittleEndian, uint16(len(frame))); err != nil {
			t.Fatalf("write frame length: %v", err)
		}
		buf.Write(frame)
	}
	path := filepath.Join(t.TempDir(), "test.dca")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write dca file: %v", err)
	}
	return path
}

func TestDCAReaderRoundTrip(t *testing.T) {
	frames := [][]byte{
		{0x01},
		{0xAA, 0xBB, 0xCC},
		bytes.Repeat([]byte{0x42}, 960),
	}
	path := writeDCAFile(t, frames)

	r, err := OpenDCAFile(path)
	if err != nil {
		t.Fatalf("OpenDCAFile: %v", err)
	}
	defer r.Close()

	for i, want := range frames {
		got, err := r.Next()
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("frame %d: got %x, want %x", i, got, want)
		}
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected io.EOF at end, got %v", err)
	}
}

func TestDCAReaderSkipsDCA1Header(t *testing.T) {
	meta := []byte(`{"dca":{"version":1}}`)
	var buf bytes.Buffer
	buf.WriteString("DCA1")
	binary.Write(&buf, binary.LittleEndian, int32(len(meta)))
	buf.Write(meta)
	frame := []byte{0xDE, 0xAD}
	binary.Write(&buf, binary.LittleEndian, uint16(len(frame)))
	buf.Write(frame)

	r, err := NewDCAReader(&buf)
	if err != nil {
		t.Fatalf("NewDCAReader: %v", err)
	}
	got, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !bytes.Equal(got, frame) {
		t.Errorf("got %x, want %x", got, frame)
	}
}

func TestDCAReaderTruncatedFrame(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint16(100))
	buf.Write([]byte{0x01, 0x02}) // far short of 100 bytes

	r, err := NewDCAReader(&buf)
	if err != nil {
		t.Fatalf("NewDCAReader: %v", err)
	}
	if _, err := r.Next(); err == nil || err == io.EOF {
		t.Errorf("expected truncation error, got %v", err)
	}
}

func TestDCAReaderRejectsImplausibleLength(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint16(0xFFFF))
	buf.Write(bytes.Repeat([]byte{0}, 16))

	r, err := NewDCAReader(&buf)
	if err != nil {
		t.Fatalf("NewDCAReader: %v", err)
	}
	if _, err := r.Next(); err == nil {
		t.Error("expected error for oversized frame length")
	}
}
