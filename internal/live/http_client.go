package live

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
)

const userAgent = "livescribe/0.1"

// HTTPConfig carries the settings for the platform API client.
type HTTPConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// HTTPClient implements Client against the Bilibili live HTTP API.
type HTTPClient struct {
	cfg        HTTPConfig
	httpClient *http.Client
}

// HTTPOption customizes the client.
type HTTPOption func(*HTTPClient)

// WithHTTPClient overrides the default HTTP client (used in tests).
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(c *HTTPClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewHTTPClient builds a platform client.
func NewHTTPClient(cfg HTTPConfig, opts ...HTTPOption) (*HTTPClient, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("live api base url is required")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	client := &HTTPClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// envelope is the platform's standard response wrapper.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type roomPlayInfo struct {
	LiveStatus int    `json:"live_status"`
	LiveTime   int64  `json:"live_time"`
	Title      string `json:"title"`
}

type playURLData struct {
	DURL []struct {
		URL   string `json:"url"`
		Order int    `json:"order"`
	} `json:"durl"`
}

// RoomInfo implements Client.
func (c *HTTPClient) RoomInfo(ctx context.Context, roomID int64) (RoomInfo, error) {
	query := url.Values{}
	query.Set("room_id", strconv.FormatInt(roomID, 10))
	query.Set("protocol", "0,1")
	query.Set("format", "0,1,2")
	query.Set("codec", "0,1")

	var data roomPlayInfo
	if err := c.get(ctx, "/xlive/web-room/v1/index/getRoomPlayInfo", query, &data); err != nil {
		return RoomInfo{}, err
	}
	return RoomInfo{LiveStatus: data.LiveStatus, LiveTime: data.LiveTime, Title: data.Title}, nil
}

// PlayURLs implements Client.
func (c *HTTPClient) PlayURLs(ctx context.Context, roomID int64) ([]PlayURL, error) {
	query := url.Values{}
	query.Set("cid", strconv.FormatInt(roomID, 10))
	query.Set("platform", "web")
	query.Set("qn", "10000")

	var data playURLData
	if err := c.get(ctx, "/room/v1/Room/playUrl", query, &data); err != nil {
		return nil, err
	}

	urls := make([]PlayURL, 0, len(data.DURL))
	for _, entry := range data.DURL {
		urls = append(urls, PlayURL{URL: entry.URL, Order: entry.Order})
	}
	return urls, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.cfg.BaseURL + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request %s: status %d", path, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode %s envelope: %w", path, err)
	}
	if env.Code != 0 {
		return fmt.Errorf("live api %s: code %d: %s", path, env.Code, env.Message)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", path, err)
	}
	return nil
}
