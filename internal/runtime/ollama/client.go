// internal/runtime/ollama/client.go
//
// Agent runtime backed by a local Ollama server. Each Generate call renders
// the requested role's persona as the system prompt, replays the history as
// chat messages, and asks /api/chat for one completion.

package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/kingrea/kallipolis/internal/council"
	"github.com/kingrea/kallipolis/internal/intent"
	"github.com/kingrea/kallipolis/internal/transcript"
)

// Options configures the client. FromEnv layers environment overrides on
// top of these values.
type Options struct {
	Host        string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// envOverrides uses pointer fields so an unset variable is distinguishable
// from an explicit zero.
type envOverrides struct {
	Host        *string        `env:"KALLIPOLIS_OLLAMA_HOST"`
	Model       *string        `env:"KALLIPOLIS_MODEL"`
	Temperature *float64       `env:"KALLIPOLIS_TEMPERATURE"`
	Timeout     *time.Duration `env:"KALLIPOLIS_TIMEOUT"`
}

// FromEnv applies environment overrides on top of the given defaults and
// fills anything still unset. Temperature is taken as given, zero
// included; the stock 0.7 comes from the config layer.
func FromEnv(defaults Options) (Options, error) {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return Options{}, fmt.Errorf("ollama: parse env: %w", err)
	}
	opts := defaults
	if overrides.Host != nil {
		opts.Host = *overrides.Host
	}
	if overrides.Model != nil {
		opts.Model = *overrides.Model
	}
	if overrides.Temperature != nil {
		opts.Temperature = *overrides.Temperature
	}
	if overrides.Timeout != nil {
		opts.Timeout = *overrides.Timeout
	}
	if opts.Host == "" {
		opts.Host = "http://127.0.0.1:11434"
	}
	if opts.Model == "" {
		opts.Model = "llama3.1:8b-instruct-q8_0"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 2 * time.Minute
	}
	return opts, nil
}

// Client implements the session runtime against one Ollama server.
type Client struct {
	opts     Options
	http     *http.Client
	roster   *council.Roster
	personas map[council.RoleID]string
}

// New builds a client whose personas are derived from the roster, marker
// vocabulary, and budget.
func New(opts Options, roster *council.Roster, markers intent.Markers, budget int) (*Client, error) {
	if roster == nil {
		return nil, fmt.Errorf("ollama: roster is required")
	}
	if strings.TrimSpace(opts.Host) == "" || strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("ollama: host and model are required")
	}
	return &Client{
		opts:     opts,
		http:     &http.Client{Timeout: opts.Timeout},
		roster:   roster,
		personas: buildPersonas(roster, markers, budget),
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Error   string      `json:"error,omitempty"`
}

// Generate produces one message for the given role. Any transport error,
// timeout, or cancellation is returned as-is; the driver treats that as a
// fatal session abort.
func (c *Client) Generate(ctx context.Context, role council.RoleID, history []transcript.Message) (string, error) {
	persona, ok := c.personas[role]
	if !ok {
		return "", fmt.Errorf("ollama: no persona for role %q", role)
	}

	messages := make([]chatMessage, 0, len(history)+1)
	messages = append(messages, chatMessage{Role: "system", Content: persona})
	for _, msg := range history {
		if msg.Speaker == role {
			messages = append(messages, chatMessage{Role: "assistant", Content: msg.Text})
			continue
		}
		messages = append(messages, chatMessage{
			Role:    "user",
			Content: fmt.Sprintf("%s: %s", msg.Speaker, msg.Text),
		})
	}

	body, err := json.Marshal(chatRequest{
		Model:    c.opts.Model,
		Messages: messages,
		Options:  map[string]any{"temperature": c.opts.Temperature},
	})
	if err != nil {
		return "", fmt.Errorf("ollama: encode request: %w", err)
	}

	url := strings.TrimRight(c.opts.Host, "/") + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ollama: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama: chat request for %s: %w", role, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ollama: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama: chat returned %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("ollama: decode response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("ollama: %s", parsed.Error)
	}
	text := strings.TrimSpace(parsed.Message.Content)
	if text == "" {
		return "", fmt.Errorf("ollama: empty completion for %s", role)
	}
	return text, nil
}
