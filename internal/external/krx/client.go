package krx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/propick/internal/contracts"
	"github.com/wonny/propick/pkg/httputil"
	"github.com/wonny/propick/pkg/logger"
	"github.com/wonny/propick/pkg/redis"
)

const jsonDataPath = "/comm/bldAttendant/getJsonData.cmd"

// Client handles communication with the KRX data portal
// ⭐ SSOT: KRX 시장 데이터 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	cache      *redis.Cache
	logger     *logger.Logger
	baseURL    string
	now        func() time.Time
}

// NewClient creates a new KRX client. cache may be nil.
func NewClient(httpClient *httputil.Client, cache *redis.Cache, baseURL string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		cache:      cache,
		logger:     log,
		baseURL:    strings.TrimRight(baseURL, "/"),
		now:        time.Now,
	}
}

// krxResponse covers both envelope keys the portal uses
type krxResponse[T any] struct {
	OutBlock1 []T `json:"OutBlock_1"`
	Output    []T `json:"output"`
}

func (r *krxResponse[T]) rows() []T {
	if len(r.OutBlock1) > 0 {
		return r.OutBlock1
	}
	return r.Output
}

// fetchRows posts a bld query and decodes its row block
func fetchRows[T any](ctx context.Context, c *Client, bld string, params url.Values) ([]T, error) {
	form := url.Values{
		"bld":         {bld},
		"locale":      {"ko_KR"},
		"csvxls_isNo": {"false"},
	}
	for k, vs := range params {
		form[k] = vs
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+jsonDataPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	// KRX는 브라우저 헤더가 없으면 요청을 차단함
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Origin", c.baseURL)
	req.Header.Set("Referer", c.baseURL+"/contents/MDC/MDI/mdiLoader/index.cmd?menuId=MDC0201020101")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("KRX API request: %w", err)
	}

	body, err := httputil.ReadBody(resp)
	if err != nil {
		return nil, fmt.Errorf("KRX API response: %w", err)
	}

	var apiResp krxResponse[T]
	if err := json.Unmarshal(body, &apiResp); err != nil {
		preview := string(body[:min(500, len(body))])
		c.logger.WithField("response_preview", preview).Error("Failed to parse KRX response")
		return nil, fmt.Errorf("decode KRX response: %w", err)
	}

	return apiResp.rows(), nil
}

// cached serves a daily table from Redis. Only past dates with usable data
// are stored; today's table can still change.
func cached[T any](ctx context.Context, c *Client, key string, date time.Time, fetch func() ([]T, error), usable func([]T) bool) ([]T, error) {
	var rows []T
	if c.cache != nil {
		if found, err := c.cache.Get(ctx, key, &rows); err == nil && found {
			return rows, nil
		}
	}

	rows, err := fetch()
	if err != nil {
		return nil, err
	}

	if c.cache != nil && c.isPast(date) && usable(rows) {
		if err := c.cache.Set(ctx, key, rows, redis.TTLDaily); err != nil {
			c.logger.WithError(err).WithField("key", key).Debug("Cache set failed")
		}
	}
	return rows, nil
}

func (c *Client) isPast(date time.Time) bool {
	y, m, d := c.now().Date()
	return date.Before(time.Date(y, m, d, 0, 0, 0, 0, date.Location()))
}

// marketID maps a segment to the KRX mktId parameter
func marketID(m contracts.Market) (string, error) {
	switch m {
	case contracts.MarketKOSPI:
		return "STK", nil
	case contracts.MarketKOSDAQ:
		return "KSQ", nil
	default:
		return "", fmt.Errorf("unsupported market: %s", m)
	}
}

// parseKRXNumber parses "1,234.5"; "", "-" and garbage are missing
func parseKRXNumber(s string) contracts.Num {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return contracts.Missing()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return contracts.Missing()
	}
	return contracts.Some(v)
}
