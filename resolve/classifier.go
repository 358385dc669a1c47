package resolve

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pharmexa/formulary-api/config"
	"github.com/pharmexa/formulary-api/formulary/entities"
	"github.com/pharmexa/formulary-api/interfaces"
)

// classifierHistoryWindow is how many recent turns are sent to the model.
const classifierHistoryWindow = 6

const classifierPrompt = `You decide which drug a pharmacy question is about.

Rules:
1. Return the drug name the question refers to, using the conversation for context
2. On follow-up questions ("side effects?", "what about the dosage?") prefer the previous drug
3. Never invent a drug that the question or conversation does not imply
4. If you have no opinion, return null

Return strict JSON object: {"drug": "name"} or {"drug": null}

Previous drug: %s

Recent conversation:
%s

Question: %s`

// Compile-time check to ensure ChatClassifier implements Classifier
var _ interfaces.Classifier = (*ChatClassifier)(nil)

// ChatClassifier asks an OpenAI-compatible chat-completions endpoint which
// drug a question refers to. It is an optional collaborator; resolution
// works without it.
type ChatClassifier struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewChatClassifier creates a classifier from the configured endpoint, or
// returns nil when no endpoint is configured.
func NewChatClassifier(cfg *config.Config) *ChatClassifier {
	if strings.TrimSpace(cfg.ClassifierBaseURL) == "" || strings.TrimSpace(cfg.ClassifierModel) == "" {
		return nil
	}
	return &ChatClassifier{
		apiKey:     cfg.ClassifierAPIKey,
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.ClassifierBaseURL), "/"),
		model:      cfg.ClassifierModel,
		httpClient: &http.Client{Timeout: cfg.ClassifierTimeout},
	}
}

// ClassifyDrug returns the model's drug opinion, or "" when the model has
// none. Any transport or schema error is returned to the caller, which
// treats it as "no opinion".
func (c *ChatClassifier) ClassifyDrug(ctx context.Context, question, previousDrug string, recentHistory []entities.ChatMessage) (string, error) {
	prompt := fmt.Sprintf(classifierPrompt,
		orNone(previousDrug), formatHistory(recentHistory), question)

	body := map[string]any{
		"model": c.model,
		"messages": []map[string]string{{
			"role":    "user",
			"content": prompt,
		}},
		"max_tokens":  64,
		"temperature": 0,
		"response_format": map[string]string{
			"type": "json_object",
		},
	}

	content, err := c.sendChatCompletion(ctx, body)
	if err != nil {
		return "", err
	}

	var decoded struct {
		Drug *string `json:"drug"`
	}
	decoder := json.NewDecoder(strings.NewReader(content))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&decoded); err != nil {
		return "", fmt.Errorf("parse classifier result: %w", err)
	}
	if decoded.Drug == nil {
		return "", nil
	}
	return strings.TrimSpace(*decoded.Drug), nil
}

func (c *ChatClassifier) sendChatCompletion(ctx context.Context, body map[string]any) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("classifier http %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var decoded struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("empty choices in response")
	}
	content := strings.TrimSpace(decoded.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty content in response")
	}
	return content, nil
}

func formatHistory(history []entities.ChatMessage) string {
	if len(history) > classifierHistoryWindow {
		history = history[len(history)-classifierHistoryWindow:]
	}
	if len(history) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, msg := range history {
		fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
