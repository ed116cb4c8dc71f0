package voice

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os/exec"

	"layeh.com/gopus"
)

const (
	sampleRate   = 48000 // discord voice wants 48kHz
	channelCount = 2
	frameSamples = 960 // 20ms per frame at 48kHz
	maxOpusBytes = 4000
)

// Transcoder converts an arbitrary audio file into a stream of opus frames.
type Transcoder interface {
	Open(ctx context.Context, path string) (frameSource, error)
}

// FFmpegTranscoder decodes any container ffmpeg understands into raw PCM and
// opus-encodes it on the fly. The ffmpeg process is the external decoding
// collaborator; this type only frames and encodes its output.
type FFmpegTranscoder struct {
	// Binary overrides the ffmpeg executable name; empty means "ffmpeg" from PATH.
	Binary string
}

func (t *FFmpegTranscoder) Open(ctx context.Context, path string) (frameSource, error) {
	bin := t.Binary
	if bin == "" {
		bin = "ffmpeg"
	}

	cmd := exec.CommandContext(ctx, bin,
		"-i", path,
		"-f", "s16le",
		"-ar", fmt.Sprint(sampleRate),
		"-ac", fmt.Sprint(channelCount),
		"pipe:1",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open ffmpeg pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	enc, err := gopus.NewEncoder(sampleRate, channelCount, gopus.Audio)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, fmt.Errorf("failed to create opus encoder: %w", err)
	}

	return &transcodeSource{
		cmd: cmd,
		r:   bufio.NewReaderSize(stdout, 16384),
		enc: enc,
	}, nil
}

type transcodeSource struct {
	cmd *exec.Cmd
	r   *bufio.Reader
	enc *gopus.Encoder
}

func (s *transcodeSource) Next() ([]byte, error) {
	pcm := make([]int16, frameSamples*channelCount)
	err := binary.Read(s.r, binary.LittleEndian, &pcm)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read pcm: %w", err)
	}

	frame, err := s.enc.Encode(pcm, frameSamples, maxOpusBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode opus frame: %w", err)
	}
	return frame, nil
}

func (s *transcodeSource) Close() error {
	_ = s.cmd.Process.Kill()
	_ = s.cmd.Wait()
	return nil
}
