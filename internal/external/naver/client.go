package naver

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/propick/pkg/config"
	"github.com/wonny/propick/pkg/httputil"
	"github.com/wonny/propick/pkg/logger"
	"github.com/wonny/propick/pkg/redis"
)

// defaultMaxPages bounds the sise_day scrape (10 rows per page)
const defaultMaxPages = 60

// Client handles communication with Naver Finance
// ⭐ SSOT: Naver Finance 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	cache      *redis.Cache
	logger     *logger.Logger
	baseURL    string // sise_day HTML
	chartURL   string // fchart siseJson
	maxPages   int
	now        func() time.Time
}

// NewClient creates a new Naver Finance client. cache may be nil.
func NewClient(httpClient *httputil.Client, cache *redis.Cache, cfg config.NaverConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		cache:      cache,
		logger:     log,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		chartURL:   strings.TrimRight(cfg.ChartBaseURL, "/"),
		maxPages:   defaultMaxPages,
		now:        time.Now,
	}
}

// WithClock overrides the clock deciding which ranges are already closed
func (c *Client) WithClock(now func() time.Time) *Client {
	c.now = now
	return c
}

// isPast reports whether date lies before today; only such series are final
func (c *Client) isPast(date time.Time) bool {
	y, m, d := c.now().Date()
	return date.Before(time.Date(y, m, d, 0, 0, 0, 0, date.Location()))
}

// fetch GETs a Naver URL with browser headers
func (c *Client) fetch(ctx context.Context, base, path string, params url.Values) ([]byte, error) {
	fullURL := base + path
	if len(params) > 0 {
		fullURL = fmt.Sprintf("%s?%s", fullURL, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Referer", "https://finance.naver.com/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	return httputil.ReadBody(resp)
}
