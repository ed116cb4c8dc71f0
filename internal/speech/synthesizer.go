package speech

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// ErrSynthesisFailed wraps any failure to turn text into audio.
var ErrSynthesisFailed = errors.New("speech synthesis failed")

// Request holds the synthesis parameters. All four fields participate in the
// cache fingerprint; Pitch is carried for backends that support it.
type Request struct {
	Text  string
	Voice string
	Rate  float64
	Pitch float64
}

// Synthesizer converts text to audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) ([]byte, error)
}

// OpenAIClient synthesizes speech through the OpenAI audio API. Rate maps to
// the API's speed parameter; the API has no pitch control, so Pitch only
// affects cache identity.
type OpenAIClient struct {
	client *openai.Client
	model  openai.SpeechModel
}

func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  openai.TTSModel1,
	}
}

func (c *OpenAIClient) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	resp, err := c.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          c.model,
		Input:          req.Text,
		Voice:          openai.SpeechVoice(req.Voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
		Speed:          req.Rate,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrSynthesisFailed, err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrSynthesisFailed)
	}
	return audio, nil
}
