package agent

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

	"Vibe/config"
	"Vibe/logger"
	"Vibe/model"
)

// SystemPersona is sent as the system message of every completion.
const SystemPersona = "You are a music expert and track recommender."

// ErrEmptyCompletion is returned when the upstream answers without a choice.
var ErrEmptyCompletion = errors.New("no response choices returned")

// MusicAgentConfig contains configuration for the music agent.
type MusicAgentConfig struct {
	APIBaseURL  string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// ConfigFrom builds the agent settings from the application config.
func ConfigFrom(cfg *config.Config) *MusicAgentConfig {
	return &MusicAgentConfig{
		APIBaseURL:  strings.TrimRight(cfg.AIBaseURL, "/"),
		APIKey:      cfg.OpenRouterAPIKey,
		Model:       cfg.AIModel,
		MaxTokens:   cfg.AIMaxTokens,
		Temperature: cfg.AITemperature,
	}
}

// MusicAgent sends prompts to an OpenAI-compatible chat completion API.
type MusicAgent struct {
	config     *MusicAgentConfig
	httpClient *http.Client
}

func NewMusicAgent(config *MusicAgentConfig) *MusicAgent {
	return &MusicAgent{
		config: config,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// WithHTTPClient replaces the client used for upstream calls.
func (a *MusicAgent) WithHTTPClient(c *http.Client) *MusicAgent {
	a.httpClient = c
	return a
}

func (a *MusicAgent) buildMessages(userMessage string) []model.OpenAIChatMessage {
	return []model.OpenAIChatMessage{
		{Role: model.RoleSystem, Content: SystemPersona},
		{Role: model.RoleUser, Content: userMessage},
	}
}

// Ask returns the completion text for a single user message.
func (a *MusicAgent) Ask(ctx context.Context, message string) (string, error) {
	reqBody := model.OpenAIChatRequest{
		Model:       a.config.Model,
		Messages:    a.buildMessages(message),
		MaxTokens:   a.config.MaxTokens,
		Temperature: a.config.Temperature,
		Stream:      false,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.APIBaseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.config.APIKey)

	start := time.Now()
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp model.OpenAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if chatResp.Error != nil && chatResp.Error.Message != "" {
		return "", fmt.Errorf("API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	logger.Debug("Chat completion finished",
		logger.String("model", a.config.Model),
		logger.Duration("elapsed", time.Since(start)),
		logger.String("finishReason", chatResp.Choices[0].FinishReason))

	return chatResp.Choices[0].Message.Content, nil
}

// RecommendArtists asks for three artists similar to the ones behind liked.
// It returns an empty list without calling upstream when no artist is known.
func (a *MusicAgent) RecommendArtists(ctx context.Context, liked []model.Track) ([]model.ArtistRecommendation, error) {
	artists := uniqueArtists(liked)
	if len(artists) == 0 {
		return []model.ArtistRecommendation{}, nil
	}

	content, err := a.Ask(ctx, recommendationPrompt(artists))
	if err != nil {
		return nil, err
	}
	return ParseRecommendations(content), nil
}

func uniqueArtists(tracks []model.Track) []string {
	seen := make(map[string]struct{}, len(tracks))
	var out []string
	for _, t := range tracks {
		name := strings.TrimSpace(t.ArtistName)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func recommendationPrompt(artists []string) string {
	quoted := make([]string, len(artists))
	for i, a := range artists {
		quoted[i] = fmt.Sprintf("%q", a)
	}
	return fmt.Sprintf("I love the following artists: %s. Recommend 3 similar artists, one per line, in the format Artist — Genre or style.",
		strings.Join(quoted, ", "))
}

// ParseRecommendations reads "Artist — Genre" lines. Lines missing either
// side of the dash are dropped.
func ParseRecommendations(content string) []model.ArtistRecommendation {
	out := []model.ArtistRecommendation{}
	for _, line := range strings.Split(content, "\n") {
		parts := strings.Split(line, "—")
		if len(parts) < 2 {
			continue
		}
		name := strings.TrimSpace(parts[0])
		genre := strings.TrimSpace(parts[1])
		if name == "" || genre == "" {
			continue
		}
		out = append(out, model.ArtistRecommendation{Name: name, Genre: genre})
	}
	return out
}
