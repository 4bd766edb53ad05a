package deckapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjack/blackjack"
)

// maxBodyBytes bounds how much of a response the client reads.
const maxBodyBytes = 1 << 20

// Client talks to a deckofcardsapi.com compatible service.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	logger  *log.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout bounds each request. Zero means no limit beyond the caller's context.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, logger *log.Logger, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		logger:  logger.WithPrefix("deckapi"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewShoe asks the service for a freshly shuffled shoe of deckCount decks.
func (c *Client) NewShoe(ctx context.Context, deckCount int) (string, error) {
	q := url.Values{}
	q.Set("deck_count", strconv.Itoa(deckCount))

	resp, err := c.get(ctx, "/api/deck/new/shuffle/", q)
	if err != nil {
		return "", err
	}
	if resp.DeckID == "" {
		return "", fmt.Errorf("%w: response has no deck_id", blackjack.ErrSourceUnavailable)
	}

	c.logger.Debug("Shuffled new shoe", "shoe", resp.DeckID, "remaining", resp.Remaining)
	return resp.DeckID, nil
}

// Draw takes count cards from the top of the shoe.
func (c *Client) Draw(ctx context.Context, shoeID string, count int) ([]blackjack.Card, error) {
	if shoeID == "" {
		return nil, fmt.Errorf("%w: empty shoe id", blackjack.ErrInvalidShoe)
	}
	q := url.Values{}
	q.Set("count", strconv.Itoa(count))

	resp, err := c.get(ctx, "/api/deck/"+url.PathEscape(shoeID)+"/draw/", q)
	if err != nil {
		return nil, err
	}
	if len(resp.Cards) != count {
		return nil, fmt.Errorf("%w: asked for %d cards, got %d", blackjack.ErrSourceUnavailable, count, len(resp.Cards))
	}

	cards := make([]blackjack.Card, len(resp.Cards))
	for i, wc := range resp.Cards {
		card, err := wc.ToCard()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", blackjack.ErrSourceUnavailable, err)
		}
		cards[i] = card
	}

	c.logger.Debug("Drew cards", "shoe", shoeID, "cards", blackjack.Hand(cards), "remaining", resp.Remaining)
	return cards, nil
}

// get performs a request and classifies the outcome. Transport failures,
// unexpected status codes and bodies that do not decode mean the source is
// unavailable; an explicit failure from the service means the shoe is bad.
func (c *Client) get(ctx context.Context, path string, q url.Values) (*Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	endpoint := c.baseURL + path
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", blackjack.ErrSourceUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", blackjack.ErrSourceUnavailable, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", blackjack.ErrSourceUnavailable, err)
	}

	var resp Response
	decodeErr := json.Unmarshal(body, &resp)

	switch {
	case httpResp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", blackjack.ErrInvalidShoe, describe(resp, httpResp.Status))
	case httpResp.StatusCode < 200 || httpResp.StatusCode > 299:
		return nil, fmt.Errorf("%w: %s", blackjack.ErrSourceUnavailable, describe(resp, httpResp.Status))
	case decodeErr != nil:
		return nil, fmt.Errorf("%w: malformed response: %w", blackjack.ErrSourceUnavailable, decodeErr)
	case !resp.Success:
		return nil, fmt.Errorf("%w: %s", blackjack.ErrInvalidShoe, describe(resp, "request refused"))
	}
	return &resp, nil
}

func describe(resp Response, fallback string) string {
	if resp.Error != "" {
		return resp.Error
	}
	return fallback
}
