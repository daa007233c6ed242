package listen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"voxchat/pkg/audioconv"
)

type HostedOptions struct {
	APIKey     string
	BaseURL    string // empty = api.openai.com
	Model      string
	HTTPClient *http.Client
}

// HostedRecognizer uploads the utterance as WAV to an OpenAI-compatible
// /audio/transcriptions endpoint.
type HostedRecognizer struct {
	api   openai.Client
	model string
}

func NewHosted(opts HostedOptions) (*HostedRecognizer, error) {
	if opts.APIKey == "" {
		return nil, errors.New("hosted recognizer: empty api key")
	}
	if opts.Model == "" {
		opts.Model = "whisper-1"
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	return &HostedRecognizer{api: openai.NewClient(reqOpts...), model: opts.Model}, nil
}

func (h *HostedRecognizer) Recognize(ctx context.Context, pcm []float32, language string) (string, error) {
	wav, err := audioconv.EncodeWAV(pcm, audioconv.TargetRate)
	if err != nil {
		return "", fmt.Errorf("encode wav: %w", err)
	}

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(wav), "utterance.wav", "audio/wav"),
		Model: openai.AudioModel(h.model),
	}
	if language != "" {
		params.Language = openai.String(language)
	}

	resp, err := h.api.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}
	return resp.Text, nil
}
