package speech

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	azureOutputFormat = "audio-16khz-128kbitrate-mono-mp3"
	azureSampleRate   = 16000
	maxAudioBytes     = 50 << 20
)

// AzureTTSConfig holds configuration for the Azure Speech REST backend.
type AzureTTSConfig struct {
	Key      string
	Region   string
	Endpoint string // default: https://{region}.tts.speech.microsoft.com/cognitiveservices/v1
}

// AzureTTS synthesizes speech with the Azure Speech REST API.
type AzureTTS struct {
	cfg        AzureTTSConfig
	httpClient *http.Client
}

func NewAzureTTS(cfg AzureTTSConfig) *AzureTTS {
	if cfg.Endpoint == "" {
		cfg.Endpoint = AzureEndpoint(cfg.Region)
	}
	return &AzureTTS{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// AzureEndpoint is the regional synthesis endpoint.
func AzureEndpoint(region string) string {
	return fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", region)
}

func (a *AzureTTS) Name() string { return "azure-speech" }

// Synthesize posts SSML for the voice and returns the MP3 body.
func (a *AzureTTS) Synthesize(ctx context.Context, req SynthesisRequest) (*SynthesisResult, error) {
	ssml, err := buildSSML(req.Input, req.Voice.ID, req.Voice.Locale)
	if err != nil {
		return nil, fmt.Errorf("build ssml: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.Endpoint, strings.NewReader(ssml))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/ssml+xml")
	httpReq.Header.Set("X-Microsoft-OutputFormat", azureOutputFormat)
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", a.cfg.Key)
	httpReq.Header.Set("User-Agent", "narrator")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("azure tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("azure tts: %w", &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)})
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}

	return &SynthesisResult{
		Audio:       audio,
		ContentType: "audio/mpeg",
		Format:      "mp3",
		SampleRate:  azureSampleRate,
	}, nil
}

func buildSSML(text, voice, locale string) (string, error) {
	var body bytes.Buffer
	if err := xml.EscapeText(&body, []byte(text)); err != nil {
		return "", err
	}
	var attr bytes.Buffer
	if err := xml.EscapeText(&attr, []byte(voice)); err != nil {
		return "", err
	}
	if locale == "" {
		locale = "en-US"
	}
	return fmt.Sprintf(
		`<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis" xml:lang="%s"><voice name="%s">%s</voice></speak>`,
		locale, attr.String(), body.String(),
	), nil
}
