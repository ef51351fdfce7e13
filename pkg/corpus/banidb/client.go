// Package banidb is a read-only client for a BaniDB-style corpus API. It
// supports the two operations the alignment engine needs: first-letter verse
// search (to resolve a matched line to its containing shabad) and shabad
// retrieval by id (ordered verse lines plus previous/next navigation).
//
// Responses are cached in-process with a configurable TTL so repeated
// boundary checks and re-anchors do not hammer the API.
package banidb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/banilabs/banitrack/internal/cache"
	"github.com/banilabs/banitrack/internal/gurmukhi"
	"github.com/banilabs/banitrack/pkg/corpus"
)

const (
	defaultBaseURL   = "https://api.banidb.com/v2"
	defaultUserAgent = "banitrack/1.0"
	defaultTimeout   = 10 * time.Second
	defaultCacheTTL  = 5 * time.Minute

	// firstLetterSearchType selects BaniDB's first-letter-anywhere search.
	firstLetterSearchType = 7
)

// ErrNotFound is returned when the API has no verse or shabad for the query.
var ErrNotFound = errors.New("banidb: not found")

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint. Useful for tests and mirrors.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = base }
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithCacheTTL sets how long fetched shabads and search results are cached.
// Zero disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.cacheTTL = ttl }
}

// Client talks to the corpus API. It implements [corpus.Fetcher] and
// [corpus.Resolver]. Safe for concurrent use.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	cacheTTL  time.Duration

	docs     *cache.TTL[string, *corpus.Document]
	searches *cache.TTL[string, string]
}

// New creates a Client with the given options.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:   defaultBaseURL,
		userAgent: defaultUserAgent,
		http:      &http.Client{Timeout: defaultTimeout},
		cacheTTL:  defaultCacheTTL,
	}
	for _, o := range opts {
		o(c)
	}
	c.docs = cache.New[string, *corpus.Document](c.cacheTTL)
	c.searches = cache.New[string, string](c.cacheTTL)
	return c
}

// searchResponse is the subset of the search payload we consume.
type searchResponse struct {
	Verses []struct {
		ShabadID json.Number `json:"shabadId"`
		Verse    struct {
			Unicode string `json:"unicode"`
		} `json:"verse"`
	} `json:"verses"`
}

// shabadResponse is the subset of the shabad payload we consume.
type shabadResponse struct {
	ShabadInfo struct {
		ShabadID json.Number `json:"shabadId"`
		PageNo   int         `json:"pageNo"`
		Source   struct {
			English string `json:"english"`
		} `json:"source"`
		Raag struct {
			English string `json:"english"`
		} `json:"raag"`
		Writer struct {
			English string `json:"english"`
		} `json:"writer"`
	} `json:"shabadInfo"`
	Verses []struct {
		Verse struct {
			Unicode string `json:"unicode"`
		} `json:"verse"`
	} `json:"verses"`
	Navigation struct {
		Previous json.Number `json:"previous"`
		Next     json.Number `json:"next"`
	} `json:"navigation"`
}

// ResolveDocument finds the shabad containing line using the API's
// first-letter search over the line's first-letter key. Returns
// [ErrNotFound] when the API has no verse for the key.
func (c *Client) ResolveDocument(ctx context.Context, line corpus.Line) (string, error) {
	key := line.FirstLetters
	if key == "" {
		key = gurmukhi.FirstLetters(line.Raw)
	}
	if key == "" {
		return "", fmt.Errorf("banidb: resolve: empty first-letter key: %w", ErrNotFound)
	}

	if id, ok := c.searches.Get(key); ok {
		return id, nil
	}

	endpoint := fmt.Sprintf("%s/search/%s?source=all&searchtype=%d&writer=all&page=1",
		c.baseURL, url.PathEscape(key), firstLetterSearchType)

	var resp searchResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return "", fmt.Errorf("banidb: search %q: %w", key, err)
	}
	if len(resp.Verses) == 0 {
		return "", fmt.Errorf("banidb: search %q: %w", key, ErrNotFound)
	}

	id := resp.Verses[0].ShabadID.String()
	if id == "" {
		return "", fmt.Errorf("banidb: search %q: verse without shabad id: %w", key, ErrNotFound)
	}

	c.searches.Set(key, id)
	return id, nil
}

// FetchDocument retrieves the shabad with the given id: its ordered verse
// lines, previous/next navigation, and display metadata.
func (c *Client) FetchDocument(ctx context.Context, id string) (*corpus.Document, error) {
	if id == "" {
		return nil, errors.New("banidb: fetch: empty shabad id")
	}

	if doc, ok := c.docs.Get(id); ok {
		return doc, nil
	}

	endpoint := fmt.Sprintf("%s/shabads/%s", c.baseURL, url.PathEscape(id))

	var resp shabadResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("banidb: shabad %s: %w", id, err)
	}
	if len(resp.Verses) == 0 {
		return nil, fmt.Errorf("banidb: shabad %s: %w", id, ErrNotFound)
	}

	doc := &corpus.Document{
		ID: id,
		Nav: corpus.Nav{
			Previous: numberOrEmpty(resp.Navigation.Previous),
			Next:     numberOrEmpty(resp.Navigation.Next),
		},
		Meta: corpus.Meta{
			Ang:    resp.ShabadInfo.PageNo,
			Raag:   resp.ShabadInfo.Raag.English,
			Writer: resp.ShabadInfo.Writer.English,
			Source: resp.ShabadInfo.Source.English,
		},
	}
	doc.Lines = make([]corpus.Line, 0, len(resp.Verses))
	for _, v := range resp.Verses {
		doc.Lines = append(doc.Lines, corpus.NewLine(v.Verse.Unicode))
	}

	c.docs.Set(id, doc)
	return doc, nil
}

// getJSON performs a GET request and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// numberOrEmpty renders a JSON number as a string id, treating null/zero as
// "no neighbour".
func numberOrEmpty(n json.Number) string {
	s := n.String()
	if s == "" || s == "0" || s == "null" {
		return ""
	}
	if _, err := strconv.ParseInt(s, 10, 64); err != nil {
		return ""
	}
	return s
}
