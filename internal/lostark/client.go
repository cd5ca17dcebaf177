// Package lostark downloads character snapshots from the game's open API.
package lostark

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const DefaultBaseURL = "https://developer-lostark.game.onstove.com"

// ErrNotFound is returned when the API answers 200 with a null body, which is
// how it reports an unknown character name.
var ErrNotFound = errors.New("character not found")

type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

func NewClient(token string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 25 * time.Second},
		baseURL:    DefaultBaseURL,
		token:      token,
	}
}

// WithBaseURL points the client at another API host.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = strings.TrimRight(base, "/")
	return c
}

// FetchCharacter returns the raw armories/characters document for name.
func (c *Client) FetchCharacter(ctx context.Context, name string) ([]byte, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("empty character name")
	}
	u := c.baseURL + "/armories/characters/" + url.PathEscape(name)
	body, err := c.getJSON(ctx, u)
	if err != nil {
		return nil, err
	}
	if doc := gjson.ParseBytes(body); doc.Type == gjson.Null {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return body, nil
}

func (c *Client) getJSON(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("lostark api status %d for %s: %s", resp.StatusCode, u, string(b))
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body from %s: %w", u, err)
	}
	if !gjson.ValidBytes(b) {
		return nil, fmt.Errorf("decode json from %s: invalid document", u)
	}
	return b, nil
}
