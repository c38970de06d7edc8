// Package rpcclient talks to a Transmission-style daemon over HTTP
// JSON-RPC: torrent-get, torrent-set-location, torrent-remove, and
// torrent-start, with the session-token handshake the protocol requires.
package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/docker/go-units"
	"github.com/rs/zerolog/log"

	"seedcurator/internal/seederr"
)

const sessionHeader = "X-Transmission-Session-Id"

// maxAttempts bounds the retry budget per RPC call (spec.md §4.4).
const maxAttempts = 4

// Torrent is the subset of torrent-get fields the engine consumes.
type Torrent struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	DownloadDir  string     `json:"downloadDir"`
	Files        []FileInfo `json:"files"`
	PercentDone  float64    `json:"percentDone"`
	SizeWhenDone int64      `json:"sizeWhenDone"`
	Status       int        `json:"status"`
	ActivityDate int64      `json:"activityDate"`
}

// FileInfo is one entry of torrent-get's files field.
type FileInfo struct {
	Name   string `json:"name"`
	Length int64  `json:"length"`
}

// torrentGetFields is the exact field set the engine requests, matching
// spec.md §4.4's returns column.
var torrentGetFields = []string{
	"id", "name", "downloadDir", "files", "percentDone",
	"sizeWhenDone", "status", "activityDate",
}

// Client is a Transmission JSON-RPC client.
type Client struct {
	baseURL string
	http    *http.Client

	mu        sync.Mutex
	sessionID string
}

// New returns a Client talking to the daemon's RPC endpoint at baseURL
// (e.g. "http://127.0.0.1:9091/transmission/rpc").
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

type rpcRequest struct {
	Method    string      `json:"method"`
	Arguments interface{} `json:"arguments,omitempty"`
}

type rpcResponse struct {
	Result    string          `json:"result"`
	Arguments json.RawMessage `json:"arguments"`
}

// call issues one RPC method with the session-header retry dance: a 409
// indicates a stale or missing token, which is refreshed via a bodiless GET
// before retrying. Up to maxAttempts are made before giving up with a
// transient-network error.
func (c *Client) call(ctx context.Context, method string, args interface{}, out interface{}) error {
	reqBody, err := json.Marshal(rpcRequest{Method: method, Arguments: args})
	if err != nil {
		return fmt.Errorf("rpcclient: marshal %s arguments: %w", method, err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := c.doOnce(ctx, reqBody)
		if err != nil {
			lastErr = err
			log.Debug().
				Err(err).
				Str("method", method).
				Int("attempt", attempt).
				Str("body-size", units.HumanSize(float64(len(reqBody)))).
				Msg("rpc attempt failed")
			continue
		}
		if resp.StatusCode == http.StatusConflict {
			resp.Body.Close()
			if err := c.refreshSession(ctx); err != nil {
				lastErr = err
				continue
			}
			lastErr = fmt.Errorf("rpcclient: %s: stale session token", method)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("rpcclient: %s: read response: %w", method, err)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("rpcclient: %s: unexpected status %d", method, resp.StatusCode)
			continue
		}

		var parsed rpcResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			lastErr = fmt.Errorf("rpcclient: %s: decode response: %w", method, err)
			continue
		}
		if parsed.Result != "success" {
			lastErr = fmt.Errorf("rpcclient: %s: daemon returned %q", method, parsed.Result)
			continue
		}
		if out != nil && len(parsed.Arguments) > 0 {
			if err := json.Unmarshal(parsed.Arguments, out); err != nil {
				return fmt.Errorf("rpcclient: %s: decode arguments: %w", method, err)
			}
		}
		return nil
	}
	return seederr.Transient(fmt.Errorf("rpcclient: %s: exhausted %d attempts: %w", method, maxAttempts, lastErr))
}

func (c *Client) doOnce(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	c.mu.Lock()
	token := c.sessionID
	c.mu.Unlock()
	if token != "" {
		req.Header.Set(sessionHeader, token)
	}
	return c.http.Do(req)
}

// refreshSession issues a bodiless GET to recover the current session
// token from the response header, per spec.md §4.4.
func (c *Client) refreshSession(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	token := resp.Header.Get(sessionHeader)
	if token == "" {
		return fmt.Errorf("rpcclient: refresh: no %s header in response", sessionHeader)
	}
	c.mu.Lock()
	c.sessionID = token
	c.mu.Unlock()
	return nil
}

// TorrentGet fetches the torrent-get fields for ids, or for every torrent
// known to the daemon when ids is empty.
func (c *Client) TorrentGet(ctx context.Context, ids []int64) ([]Torrent, error) {
	args := map[string]interface{}{"fields": torrentGetFields}
	if len(ids) > 0 {
		args["ids"] = ids
	}
	var out struct {
		Torrents []Torrent `json:"torrents"`
	}
	if err := c.call(ctx, "torrent-get", args, &out); err != nil {
		return nil, err
	}
	return out.Torrents, nil
}

// TorrentSetLocation relocates id's download directory to location,
// instructing the daemon to keep seeding from there.
func (c *Client) TorrentSetLocation(ctx context.Context, id int64, location string) error {
	args := map[string]interface{}{"ids": []int64{id}, "location": location}
	return c.call(ctx, "torrent-set-location", args, nil)
}

// TorrentRemove removes ids, deleting their local data.
func (c *Client) TorrentRemove(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	args := map[string]interface{}{"ids": ids, "delete-local-data": true}
	return c.call(ctx, "torrent-remove", args, nil)
}

// TorrentStart resumes every paused torrent.
func (c *Client) TorrentStart(ctx context.Context) error {
	return c.call(ctx, "torrent-start", nil, nil)
}
