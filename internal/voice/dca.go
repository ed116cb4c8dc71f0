package voice

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// maxFrameSize caps a single opus frame read from a DCA stream; anything
// larger indicates a corrupt or non-DCA file.
const maxFrameSize = 1 << 13

// DCAReader reads length-prefixed opus frames from a DCA stream: each frame
// is a little-endian uint16 byte count followed by that many bytes of opus
// data. A leading "DCA1" magic with its JSON metadata block is skipped.
type DCAReader struct {
	r      *bufio.Reader
	closer io.Closer
}

// OpenDCAFile opens a pre-encoded DCA file as a frame source.
func OpenDCAFile(path string) (*DCAReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dca file: %w", err)
	}
	r, err := NewDCAReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// NewDCAReader wraps a DCA stream, consuming the DCA1 header if present.
func NewDCAReader(src io.Reader) (*DCAReader, error) {
	br := bufio.NewReaderSize(src, 16384)

	magic, err := br.Peek(4)
	if err == nil && string(magic) == "DCA1" {
		if _, err := br.Discard(4); err != nil {
			return nil, fmt.Errorf("failed to read dca header: %w", err)
		}
		var metaLen int32
		if err := binary.Read(br, binary.LittleEndian, &metaLen); err != nil {
			return nil, fmt.Errorf("failed to read dca metadata length: %w", err)
		}
		if metaLen < 0 || metaLen > 1<<20 {
			return nil, fmt.Errorf("implausible dca metadata length %d", metaLen)
		}
		if _, err := br.Discard(int(metaLen)); err != nil {
			return nil, fmt.Errorf("failed to skip dca metadata: %w", err)
		}
	}

	return &DCAReader{r: br}, nil
}

// Next returns the next opus frame, or io.EOF at end of stream.
func (d *DCAReader) Next() ([]byte, error) {
	var frameLen uint16
	err := binary.Read(d.r, binary.LittleEndian, &frameLen)
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read frame length: %w", err)
	}
	if frameLen == 0 || frameLen > maxFrameSize {
		return nil, fmt.Errorf("implausible frame length %d", frameLen)
	}

	frame := make([]byte, frameLen)
	if _, err := io.ReadFull(d.r, frame); err != nil {
		return nil, fmt.Errorf("truncated frame: %w", err)
	}
	return frame, nil
}

func (d *DCAReader) Close() error {
	if d.closer != nil {
		return d.closer.Close()
	}
	return nil
}
