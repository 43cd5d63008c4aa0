package summarize

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	lru "github.com/hashicorp/golang-lru/v2"

	newserrs "github.com/harshitpdoshi/news-app/internal/errors"
)

//go:embed prompt.txt
var systemPrompt string

const (
	temperature = 0.7
	maxTokens   = 1024
	// Pages longer than this are cut before they're sent.
	maxInputRunes = 60_000
)

type Config struct {
	APIKey string
	// Model defaults to Claude Haiku.
	Model   string
	BaseURL string
	// PageTimeout bounds fetching the article page.
	PageTimeout time.Duration
}

type Summarizer struct {
	reader    *Reader
	client    anthropic.Client
	model     anthropic.Model
	summaries *lru.Cache[string, string]
}

// New fails straight away when there is no API key to call Claude with.
func New(cfg Config) (*Summarizer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, newserrs.E(newserrs.KindInvalid, "ANTHROPIC_API_KEY is not set")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := anthropic.ModelClaudeHaiku4_5
	if cfg.Model != "" {
		model = anthropic.Model(cfg.Model)
	}
	cache, _ := lru.New[string, string](defaultCacheSize)

	return &Summarizer{
		reader:    NewReader(cfg.PageTimeout),
		client:    anthropic.NewClient(opts...),
		model:     model,
		summaries: cache,
	}, nil
}

// Reader exposes the page reader the summarizer uses.
func (s *Summarizer) Reader() *Reader {
	return s.reader
}

// Summarize reads the page at link and returns Claude's summary of it.
func (s *Summarizer) Summarize(ctx context.Context, link string) (string, error) {
	if summary, ok := s.summaries.Get(link); ok {
		return summary, nil
	}

	page, err := s.reader.Read(ctx, link)
	if err != nil {
		return "", err
	}
	text := page.Text
	if text == "" {
		return "", newserrs.E(newserrs.KindFetch, "article page has no readable text")
	}
	if r := []rune(text); len(r) > maxInputRunes {
		text = string(r[:maxInputRunes])
	}
	if page.Title != "" {
		text = page.Title + "\n\n" + text
	}

	resp, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       s.model,
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(temperature),
		System: []anthropic.TextBlockParam{{
			Text: systemPrompt,
		}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	})
	// Handle Anthropic rate limit errors
	var claudeErr *anthropic.Error
	if errors.As(err, &claudeErr) && claudeErr.StatusCode == http.StatusTooManyRequests {
		return "", newserrs.E(http.StatusTooManyRequests, "summary rate limit hit, try again later")
	}
	if err != nil {
		return "", fmt.Errorf("error requesting summary: %w", err)
	}

	var summary strings.Builder
	for _, content := range resp.Content {
		if content.Type == "text" {
			summary.WriteString(content.Text)
		}
	}
	out := strings.TrimSpace(summary.String())
	if out == "" {
		return "", errors.New("empty summary returned")
	}

	slog.DebugContext(ctx, "summarized article", "link", link, "input_tokens", resp.Usage.InputTokens)
	s.summaries.Add(link, out)

	return out, nil
}
