// Package randomuser fetches generated identities used to seed new roommates.
package randomuser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"roommates/internal/core"
	"roommates/internal/log"
)

const DefaultURL = "https://randomuser.me/api"

var ErrEmptyResponse = errors.New("random user response has no results")

type apiResponse struct {
	Results []struct {
		Name struct {
			First string `json:"first"`
			Last  string `json:"last"`
		} `json:"name"`
		Email string `json:"email"`
	} `json:"results"`
}

type Client struct {
	url  string
	http *http.Client
}

func New(url string, timeout time.Duration) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		url:  url,
		http: &http.Client{Timeout: timeout},
	}
}

// Fetch returns the first generated identity. The email may be empty; callers
// decide whether that is acceptable.
func (c *Client) Fetch(ctx context.Context) (core.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return core.Identity{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return core.Identity{}, fmt.Errorf("get random user: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 256))
		return core.Identity{}, fmt.Errorf("random user status %d: %s", res.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var body apiResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return core.Identity{}, fmt.Errorf("decode random user: %w", err)
	}
	if len(body.Results) == 0 {
		return core.Identity{}, ErrEmptyResponse
	}

	r := body.Results[0]
	id := core.Identity{
		Nombre: strings.TrimSpace(r.Name.First + " " + r.Name.Last),
		Email:  strings.TrimSpace(r.Email),
	}
	slog.DebugContext(ctx, "Fetched random user",
		log.FieldComponent, log.ComponentRandomUser,
		"nombre", id.Nombre)
	return id, nil
}
