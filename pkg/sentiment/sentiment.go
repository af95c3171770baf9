// Package sentiment labels review texts as negative, neutral or positive using
// an external chat-completions API.
package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"golang.org/x/sync/errgroup"

	"github.com/plazareviews/revscope/internal/utils"
	"github.com/plazareviews/revscope/pkg/review"
)

// ErrMissingAPIKey is returned by New when no API key is configured.
var ErrMissingAPIKey = errors.New("sentiment classification requires an API key (set sentiment.api_key in config or OPENAI_API_KEY)")

// Config controls how the classifier behaves.
type Config struct {
	Provider       string
	APIKey         string
	Model          string
	Endpoint       string
	MaxBatch       int
	MaxConcurrency int
	RetryMax       int
	HTTPClient     *http.Client
}

// Classifier labels texts. The result has one entry per input text, in order.
// Empty texts are never sent and come back as review.SentimentUnknown.
type Classifier interface {
	Classify(ctx context.Context, texts []string) ([]review.Sentiment, error)
}

const (
	defaultProvider       = "openai"
	defaultModel          = "gpt-4.1-mini"
	defaultEndpoint       = "https://api.openai.com/v1/chat/completions"
	defaultMaxBatchSize   = 20
	defaultMaxConcurrency = 4
	defaultRetryMax       = 3
)

// New builds a concrete Classifier based on the provided config.
func New(cfg Config) (Classifier, error) {
	cfg.Provider = strings.TrimSpace(strings.ToLower(cfg.Provider))
	if cfg.Provider == "" {
		cfg.Provider = defaultProvider
	}

	switch cfg.Provider {
	case "openai":
		return newOpenAIClassifier(cfg)
	default:
		return nil, fmt.Errorf("unsupported sentiment provider: %s", cfg.Provider)
	}
}

type openAIClassifier struct {
	apiKey         string
	model          string
	endpoint       string
	maxBatchSize   int
	maxConcurrency int
	client         *retryablehttp.Client
}

func newOpenAIClassifier(cfg Config) (*openAIClassifier, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	maxBatch := cfg.MaxBatch
	if maxBatch <= 0 {
		maxBatch = defaultMaxBatchSize
	}

	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = defaultMaxConcurrency
	}

	retryClient := retryablehttp.NewClient()
	retryClient.Logger = log.New(io.Discard, "", 0)
	retryClient.RetryMax = defaultRetryMax
	if cfg.RetryMax > 0 {
		retryClient.RetryMax = cfg.RetryMax
	}
	if cfg.HTTPClient != nil {
		retryClient.HTTPClient = cfg.HTTPClient
	} else {
		retryClient.HTTPClient.Timeout = 45 * time.Second
	}

	return &openAIClassifier{
		apiKey:         apiKey,
		model:          model,
		endpoint:       endpoint,
		maxBatchSize:   maxBatch,
		maxConcurrency: maxConcurrency,
		client:         retryClient,
	}, nil
}

// batchItem is one text sent to the model; id is its index in the Classify input.
type batchItem struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

func (c *openAIClassifier) Classify(ctx context.Context, texts []string) ([]review.Sentiment, error) {
	out := make([]review.Sentiment, len(texts))

	var pending []batchItem
	for i, t := range texts {
		if t = strings.TrimSpace(t); t != "" {
			pending = append(pending, batchItem{ID: i, Text: t})
		}
	}
	if len(pending) == 0 {
		return out, nil
	}

	var batches [][]batchItem
	for start := 0; start < len(pending); start += c.maxBatchSize {
		end := start + c.maxBatchSize
		if end > len(pending) {
			end = len(pending)
		}
		batches = append(batches, pending[start:end])
	}
	utils.Log.Debugf("[sentiment] classifying %d texts in %d batches", len(pending), len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxConcurrency)
	for n, batch := range batches {
		n, batch := n, batch
		g.Go(func() error {
			labels, err := c.queryLLM(gctx, batch)
			if err != nil {
				utils.Log.Debugf("[sentiment] batch %d failed: %v", n, err)
				return err
			}
			// Batches cover disjoint indexes of out.
			for _, item := range batch {
				out[item.ID] = labels[item.ID]
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *openAIClassifier) queryLLM(ctx context.Context, batch []batchItem) (map[int]review.Sentiment, error) {
	payload := `{"reviews":[]}`
	for _, item := range batch {
		var err error
		if payload, err = sjson.Set(payload, "reviews.-1", item); err != nil {
			return nil, err
		}
	}

	reqBody := openAIChatRequest{
		Model: c.model,
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: payload},
		},
		Temperature:    0,
		ResponseFormat: openAIResponseFormat{Type: "json_object"},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 300 {
		if msg := gjson.GetBytes(body, "error.message").String(); msg != "" {
			return nil, fmt.Errorf("sentiment classification: %s", msg)
		}
		return nil, fmt.Errorf("sentiment classification failed with HTTP %d", resp.StatusCode)
	}

	content := strings.TrimSpace(gjson.GetBytes(body, "choices.0.message.content").String())
	if content == "" {
		return nil, errors.New("sentiment classification returned an empty response")
	}
	if !gjson.Valid(content) {
		return nil, fmt.Errorf("unable to parse sentiment response: %q", content)
	}

	labels := make(map[int]review.Sentiment, len(batch))
	gjson.Get(content, "items").ForEach(func(_, item gjson.Result) bool {
		labels[int(item.Get("id").Int())] = review.ParseSentiment(item.Get("sentiment").String())
		return true
	})
	for _, item := range batch {
		if _, ok := labels[item.ID]; !ok {
			utils.Log.Warnf("[sentiment] no label returned for review %d", item.ID)
		}
	}
	return labels, nil
}

const systemPrompt = `You are a sentiment analysis assistant for reviews of a public plaza.

Classify the sentiment of every review you receive as "negative", "neutral" or "positive".

Return ONLY JSON following this schema:
{
  "items": [
    {"id": 0, "sentiment": "positive"}
  ]
}

Every input id must appear exactly once.`

type openAIChatRequest struct {
	Model          string               `json:"model"`
	Messages       []openAIMessage      `json:"messages"`
	Temperature    float64              `json:"temperature"`
	ResponseFormat openAIResponseFormat `json:"response_format"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponseFormat struct {
	Type string `json:"type"`
}
