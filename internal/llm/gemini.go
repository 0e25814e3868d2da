// Package llm implements the Gemini-backed extraction fallback.
package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/dteproject/shopscraper/internal/scrape"
)

// DefaultEnvVar is where the API key is expected.
const DefaultEnvVar = "GEMINI_API_KEY"

const defaultMaxChars = 12000

// Config tunes the fallback client.
type Config struct {
	Model    string
	MaxChars int
}

// KeyResolver returns the API key at first use. Resolution is deferred
// so a run that never needs the fallback never asks for a key.
type KeyResolver func() (string, error)

// EnvKeyResolver reads the key from env and prompts interactively on
// the given reader/writer when the variable is unset.
func EnvKeyResolver(envVar string, in io.Reader, out io.Writer) KeyResolver {
	if envVar == "" {
		envVar = DefaultEnvVar
	}
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stderr
	}
	return func() (string, error) {
		if key := strings.TrimSpace(os.Getenv(envVar)); key != "" {
			return key, nil
		}
		fmt.Fprintf(out, "Please enter your Gemini API key: ")
		scanner := bufio.NewScanner(in)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", fmt.Errorf("read api key: %w", err)
			}
			return "", errors.New("no api key provided")
		}
		key := strings.TrimSpace(scanner.Text())
		if key == "" {
			return "", errors.New("no api key provided")
		}
		return key, nil
	}
}

// StaticKeyResolver returns a fixed key (tests, pre-resolved config).
func StaticKeyResolver(key string) KeyResolver {
	return func() (string, error) {
		if key == "" {
			return "", errors.New("no api key provided")
		}
		return key, nil
	}
}

// Client implements scrape.FallbackExtractor against the Gemini API.
// The underlying SDK client is created lazily on the first call and
// the resolved key is cached for the rest of the run.
type Client struct {
	cfg     Config
	resolve KeyResolver
	logger  *zap.Logger

	mu    sync.Mutex
	genai *genai.Client
}

// NewClient builds a Client; the API connection is not opened yet.
func NewClient(cfg Config, resolve KeyResolver, logger *zap.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = defaultMaxChars
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{cfg: cfg, resolve: resolve, logger: logger}
}

// Close releases the SDK client if one was ever created.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.genai == nil {
		return nil
	}
	err := c.genai.Close()
	c.genai = nil
	if err != nil {
		return fmt.Errorf("close genai client: %w", err)
	}
	return nil
}

func (c *Client) client(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.genai != nil {
		return c.genai, nil
	}
	key, err := c.resolve()
	if err != nil {
		return nil, fmt.Errorf("resolve api key: %w", err)
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(key))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	c.genai = client
	return client, nil
}

// ExtractFields asks the model for the same field set the primary path
// produces and validates its JSON answer.
func (c *Client) ExtractFields(ctx context.Context, pageText, pageURL string) (scrape.Fields, error) {
	client, err := c.client(ctx)
	if err != nil {
		return scrape.Fields{}, err
	}

	model := client.GenerativeModel(c.cfg.Model)
	model.SetTemperature(0)

	prompt := BuildPrompt(pageText, pageURL, c.cfg.MaxChars)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return scrape.Fields{}, fmt.Errorf("generate content: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return scrape.Fields{}, errors.New("empty model response")
	}
	raw, err := ExtractJSON(text)
	if err != nil {
		return scrape.Fields{}, err
	}

	var payload responsePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return scrape.Fields{}, fmt.Errorf("decode model json: %w", err)
	}
	c.logger.Debug("llm extraction succeeded", zap.String("url", pageURL))
	return payload.fields(), nil
}

const promptHeader = `Extract product information from this Shopify product page text. Return ONLY a JSON object with these exact fields:
- id: the numeric Shopify product ID, or the URL slug if no numeric ID appears
- name: full product name
- vendor: brand or manufacturer
- type: product category/type
- price: price as a decimal string, e.g. "34.95"
- sku: stock keeping unit
- description: full product description text
- availability: "in stock", "out of stock", or "pre-order"
- tags: array of product tags/keywords
- images: array of product image URLs

If a field is not found, use null. For arrays, use an empty array.
Return ONLY the JSON object, no other text.`

// BuildPrompt assembles the extraction prompt with the page text
// truncated to maxChars.
func BuildPrompt(pageText, pageURL string, maxChars int) string {
	if maxChars > 0 && len(pageText) > maxChars {
		pageText = pageText[:maxChars]
	}
	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString("\n\nProduct page URL: ")
	b.WriteString(pageURL)
	b.WriteString("\n\nPage text:\n")
	b.WriteString(pageText)
	return b.String()
}

var jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)

// ExtractJSON pulls the first JSON object out of a model answer that
// may be wrapped in prose or a code fence.
func ExtractJSON(text string) (string, error) {
	m := jsonBlockRe.FindString(text)
	if m == "" {
		return "", errors.New("no json object in model response")
	}
	return m, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return strings.TrimSpace(b.String())
}

// responsePayload tolerates the shape drift LLMs produce: ids and
// prices arrive as strings or numbers.
type responsePayload struct {
	ID           json.RawMessage `json:"id"`
	Name         string          `json:"name"`
	Vendor       string          `json:"vendor"`
	Type         string          `json:"type"`
	Price        json.RawMessage `json:"price"`
	SKU          string          `json:"sku"`
	Description  string          `json:"description"`
	Availability string          `json:"availability"`
	Tags         []string        `json:"tags"`
	Images       []string        `json:"images"`
}

func (p responsePayload) fields() scrape.Fields {
	return scrape.Fields{
		ID:           flexString(p.ID),
		Title:        p.Name,
		Vendor:       p.Vendor,
		ProductType:  p.Type,
		Price:        flexString(p.Price),
		SKU:          p.SKU,
		Description:  p.Description,
		Tags:         p.Tags,
		Images:       p.Images,
		Availability: p.Availability,
	}
}

func flexString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n == float64(int64(n)) {
			return strconv.FormatInt(int64(n), 10)
		}
		return strconv.FormatFloat(n, 'f', 2, 64)
	}
	return ""
}
