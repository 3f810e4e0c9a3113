package notegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/clinote/clinote-backend/internal/models"
	"gorm.io/datatypes"
)

const generatePrompt = `You are an expert medical scribe assistant for a Chiropractor.
Your task is to convert the consultation transcript into a structured CHIROPRACTIC PATIENT RECORD.

CONTEXT & INSTRUCTIONS:
1. Speaker Identification: Infer who is speaking (Doctor vs Patient) from context if not labeled.
2. Extraction: Fill the record strictly based on the conversation.
3. Narrative Story-Telling: For 'mainProblem', 'historyDetails' and 'diagnosis', write a cohesive natural story rather than short phrases.
4. Missing Info: Use "Denied" or "None" if explicitly denied. Leave empty if not discussed.
5. Medical Terminology: Convert layperson terms to medical terminology where appropriate.

Visit Type: %s

TRANSCRIPT:
"""
%s
"""`

// GeminiConfig holds settings for the Gemini generation client
type GeminiConfig struct {
	APIKey   string
	Model    string
	Endpoint string
	Timeout  time.Duration
}

// GeminiGenerator implements Generator against the Gemini
// generateContent HTTP API
type GeminiGenerator struct {
	client   *http.Client
	apiKey   string
	model    string
	endpoint string
}

// NewGeminiGenerator creates a Gemini-backed generator
func NewGeminiGenerator(cfg GeminiConfig) *GeminiGenerator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &GeminiGenerator{
		client:   &http.Client{Timeout: timeout},
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		endpoint: cfg.Endpoint,
	}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Generate calls the model and returns the structured record as JSON
func (g *GeminiGenerator) Generate(ctx context.Context, transcript string, visitType models.VisitType) (datatypes.JSON, error) {
	prompt := fmt.Sprintf(generatePrompt, visitType, transcript)

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:      0.1,
			ResponseMimeType: "application/json",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build generation request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.endpoint, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("generation request returned %d: %s", resp.StatusCode, data)
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode generation response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no response generated from model")
	}

	text := parsed.Candidates[0].Content.Parts[0].Text
	if !json.Valid([]byte(text)) {
		return nil, fmt.Errorf("model returned malformed record")
	}

	return datatypes.JSON(text), nil
}
