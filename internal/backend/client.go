// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Endpoint paths.
const (
	PathSendMessage    = "/api/send-message"
	PathStart          = "/api/start-conversation"
	PathSwitchRoles    = "/api/switch-roles"
	PathSwitchScenario = "/api/switch-scenario"
	PathAnalyze        = "/api/analyze-conversation"
	PathReset          = "/api/reset-conversation"
	PathSpeechToText   = "/api/speech-to-text"
	PathTextToSpeech   = "/api/text-to-speech"
)

// Upload parameters for /api/speech-to-text.
const (
	UploadField       = "file"
	UploadFilename    = "recording.wav"
	UploadContentType = "audio/wav"
)

// DefaultBaseURL is where the backend listens when run locally.
const DefaultBaseURL = "http://localhost:8000"

// Client talks to the training backend.
type Client struct {
	http    *resty.Client
	baseURL string
	logger  *zap.Logger
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{baseURL: baseURL, logger: zap.NewNop()}
	c.http = c.configure(resty.New())
	return c
}

func (c *Client) configure(rc *resty.Client) *resty.Client {
	return rc.
		SetBaseURL(c.baseURL).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "salescoach-tui").
		SetRetryCount(0).
		SetLogger(c.logger.Sugar())
}

// WithTimeout bounds every request. Zero means no limit.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.http.SetTimeout(d)
	return c
}

// WithLogger sets the logger used for request tracing.
func (c *Client) WithLogger(l *zap.Logger) *Client {
	if l == nil {
		l = zap.NewNop()
	}
	c.logger = l
	c.http.SetLogger(l.Sugar())
	return c
}

// WithHTTPClient replaces the transport, mostly for tests. A timeout set
// earlier with WithTimeout carries over unless hc has its own.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	timeout := c.http.GetClient().Timeout
	c.http = c.configure(resty.NewWithClient(hc))
	if hc.Timeout == 0 && timeout > 0 {
		c.http.SetTimeout(timeout)
	}
	return c
}

// Timeout returns the per-request limit, zero for none.
func (c *Client) Timeout() time.Duration {
	return c.http.GetClient().Timeout
}

// BaseURL returns the backend URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// CONVERSATION ENDPOINTS
// =============================================================================

// SendMessage sends the user's turn and returns the assistant reply.
func (c *Client) SendMessage(ctx context.Context, content string) (*SendResponse, error) {
	var out SendResponse
	if err := c.postJSON(ctx, "send", PathSendMessage, SendRequest{Content: content}, &out, MsgSendFailed); err != nil {
		return nil, err
	}
	return &out, nil
}

// StartConversation begins a conversation with the given roles and scenario.
// The assistant role is echoed from the request when the server omits it.
func (c *Client) StartConversation(ctx context.Context, req StartRequest) (*RolesResponse, error) {
	var out RolesResponse
	if err := c.postJSON(ctx, "start", PathStart, req, &out, MsgStartFailed); err != nil {
		return nil, err
	}
	if out.SystemRole == "" {
		out.SystemRole = req.SystemRole
	}
	if out.AssistantRole == "" {
		out.AssistantRole = req.AssistantRole
	}
	if out.Scenario == "" {
		out.Scenario = req.Scenario
	}
	return &out, nil
}

// SwitchRoles swaps the user and assistant roles.
func (c *Client) SwitchRoles(ctx context.Context) (*RolesResponse, error) {
	var out RolesResponse
	if err := c.postJSON(ctx, "switch-roles", PathSwitchRoles, nil, &out, MsgSwitchFailed); err != nil {
		return nil, err
	}
	return &out, nil
}

// SwitchScenario changes the scenario of the running conversation.
func (c *Client) SwitchScenario(ctx context.Context, systemRole, scenario string) (*ScenarioResponse, error) {
	var out ScenarioResponse
	req := StartRequest{SystemRole: systemRole, Scenario: scenario}
	if err := c.postJSON(ctx, "switch-scenario", PathSwitchScenario, req, &out, MsgScenarioFailed); err != nil {
		return nil, err
	}
	if out.Scenario == "" {
		out.Scenario = scenario
	}
	return &out, nil
}

// AnalyzeConversation asks for coaching feedback. A failed analysis is
// reported inside the returned Feedback, not as an error.
func (c *Client) AnalyzeConversation(ctx context.Context, includeSuggestions bool) (*Feedback, error) {
	var out AnalyzeResponse
	req := AnalyzeRequest{IncludeSuggestions: includeSuggestions}
	if err := c.postJSON(ctx, "analyze", PathAnalyze, req, &out, MsgAnalyzeFailed); err != nil {
		return nil, err
	}
	if out.Feedback == nil {
		return &Feedback{Error: MsgNoFeedback}, nil
	}
	return out.Feedback, nil
}

// ResetConversation clears the server-side history.
func (c *Client) ResetConversation(ctx context.Context) error {
	var out Envelope
	return c.postJSON(ctx, "reset", PathReset, nil, &out, MsgResetFailed)
}

// =============================================================================
// AUDIO ENDPOINTS
// =============================================================================

// Transcribe uploads a WAV recording and returns the recognized text.
func (c *Client) Transcribe(ctx context.Context, wav []byte) (string, error) {
	if len(wav) == 0 {
		return "", ErrEmptyAudio
	}

	req := c.http.R().
		SetContext(ctx).
		SetMultipartField(UploadField, UploadFilename, UploadContentType, bytes.NewReader(wav))

	start := time.Now()
	resp, err := req.Post(PathSpeechToText)

	var out TranscribeResponse
	if err := c.decode("transcribe", PathSpeechToText, start, resp, err, &out, MsgTranscribeFailed); err != nil {
		return "", err
	}
	return out.Text, nil
}

// Synthesize converts text to speech and returns the decoded MP3 bytes.
func (c *Client) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	var out SpeechResponse
	if err := c.postJSON(ctx, "synthesize", PathTextToSpeech, SpeechRequest{Text: text, Voice: voice}, &out, MsgSynthesizeFailed); err != nil {
		return nil, err
	}
	if out.Audio == "" {
		return nil, fmt.Errorf("%s: %w", MsgSynthesizeFailed, ErrEmptyAudio)
	}
	audio, err := base64.StdEncoding.DecodeString(out.Audio)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAudio, err)
	}
	return audio, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (c *Client) postJSON(ctx context.Context, op, path string, body any, out enveloped, fallback string) error {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	start := time.Now()
	resp, err := req.Post(path)
	return c.decode(op, path, start, resp, err, out, fallback)
}

// decode turns a resty result into the envelope outcome.
func (c *Client) decode(op, path string, start time.Time, resp *resty.Response, err error, out enveloped, fallback string) error {
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("op", op),
			zap.String("path", path),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return &NetworkError{Op: op, Err: err}
	}

	status := resp.StatusCode()
	if jsonErr := json.Unmarshal(resp.Body(), out); jsonErr != nil {
		c.logger.Warn("undecodable response",
			zap.String("op", op),
			zap.Int("http_status", status),
			zap.Error(jsonErr))
		return &APIError{Op: op, StatusCode: status, Message: fallback}
	}

	env := out.envelope()
	c.logger.Debug("request done",
		zap.String("op", op),
		zap.String("path", path),
		zap.Int("http_status", status),
		zap.String("status", env.Status),
		zap.Duration("elapsed", elapsed))

	if !env.OK() {
		msg := strings.TrimSpace(env.Message)
		if msg == "" {
			msg = fallback
		}
		return &APIError{Op: op, StatusCode: status, Status: env.Status, Message: msg}
	}
	return nil
}
