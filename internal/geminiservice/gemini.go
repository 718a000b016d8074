package geminiservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultRequestTimeout = 30 * time.Second
	structuredMimeType    = "application/json"
	maxErrorBody          = 4 << 10
)

// ErrNoContent is returned when a response has no candidate text.
var ErrNoContent = errors.New("no content found in Gemini response")

// --- Structs for Gemini API Request/Response ---

type GeminiPayload struct {
	Contents          []GeminiContent   `json:"contents"`
	SystemInstruction *GeminiContent    `json:"systemInstruction,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
	Tools             []GeminiTool      `json:"tools,omitempty"`
	ToolConfig        *ToolConfig       `json:"toolConfig,omitempty"`
}

type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

type GeminiPart struct {
	Text string `json:"text,omitempty"`
}

type GenerationConfig struct {
	ResponseMimeType string        `json:"responseMimeType"`
	ResponseSchema   *GeminiSchema `json:"responseSchema,omitempty"`
}

// GeminiTool enables a server-side tool. Only Maps grounding is used.
type GeminiTool struct {
	GoogleMaps *struct{} `json:"googleMaps,omitempty"`
}

type ToolConfig struct {
	RetrievalConfig *RetrievalConfig `json:"retrievalConfig,omitempty"`
}

type RetrievalConfig struct {
	LatLng *LatLng `json:"latLng,omitempty"`
}

type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type GeminiResponse struct {
	Candidates []Candidate `json:"candidates"`
}

type Candidate struct {
	Content struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"content"`
	GroundingMetadata *GroundingMetadata `json:"groundingMetadata,omitempty"`
}

type GroundingMetadata struct {
	GroundingChunks []GroundingChunk `json:"groundingChunks"`
}

// GroundingChunk is one source the answer was grounded on. Either field
// may be set, or both.
type GroundingChunk struct {
	Web  *WebChunk  `json:"web,omitempty"`
	Maps *MapsChunk `json:"maps,omitempty"`
}

type WebChunk struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

type MapsChunk struct {
	URI     string `json:"uri"`
	Title   string `json:"title"`
	Address string `json:"address"`
	PlaceID string `json:"placeId"`
	// Rating arrives as a number or a string depending on the source.
	Rating any `json:"rating"`
}

// Text concatenates the text parts of the first candidate.
func (r *GeminiResponse) Text() string {
	if r == nil || len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// Chunks returns the grounding chunks of the first candidate.
func (r *GeminiResponse) Chunks() []GroundingChunk {
	if r == nil || len(r.Candidates) == 0 || r.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	return r.Candidates[0].GroundingMetadata.GroundingChunks
}

// Generator performs one generateContent call.
type Generator interface {
	GenerateContent(ctx context.Context, apiKey string, payload *GeminiPayload) (*GeminiResponse, error)
}

// Client talks to the Gemini REST API.
type Client struct {
	baseURL    string
	model      string
	defaultKey string
	httpClient *http.Client
}

// NewClient builds a client. defaultKey is used when a call carries no
// personal key.
func NewClient(baseURL, model, defaultKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		defaultKey: defaultKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// resolveKey picks the personal key over the configured one.
func (c *Client) resolveKey(apiKey string) string {
	if apiKey != "" {
		return apiKey
	}
	return c.defaultKey
}

// GenerateContent sends a single request. There is no retry; callers decide
// what a failure means.
func (c *Client) GenerateContent(ctx context.Context, apiKey string, payload *GeminiPayload) (*GeminiResponse, error) {
	log := zerolog.Ctx(ctx)

	key := c.resolveKey(apiKey)
	if key == "" {
		log.Warn().Msg("No API Key provided. Calls may fail.")
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("x-goog-api-key", key)
	}

	log.Debug().Str("model", c.model).Msg("Calling Gemini API...")
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("API returned non-200 status: %s, Body: %s", resp.Status, string(body))
	}

	var geminiResp GeminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	log.Debug().Dur("took", time.Since(start)).Int("candidates", len(geminiResp.Candidates)).Msg("Gemini API responded")
	return &geminiResp, nil
}
