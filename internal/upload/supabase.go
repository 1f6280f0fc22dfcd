package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/wonny/propick/internal/contracts"
	"github.com/wonny/propick/internal/storage"
	"github.com/wonny/propick/pkg/config"
	"github.com/wonny/propick/pkg/httputil"
)

const rankingTable = "stock_rankings"

// SupabaseClient talks to Supabase Storage and the REST table API.
// It implements both ObjectStore and RankingIndex.
type SupabaseClient struct {
	httpClient *httputil.Client
	baseURL    string
	key        string
	bucket     string
}

// NewSupabaseClient creates a new Supabase client
func NewSupabaseClient(httpClient *httputil.Client, cfg config.SupabaseConfig) *SupabaseClient {
	return &SupabaseClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		key:        cfg.Key,
		bucket:     cfg.Bucket,
	}
}

func (c *SupabaseClient) newRequest(ctx context.Context, method, rawURL string, body []byte, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

func (c *SupabaseClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	body, err := httputil.ReadBody(resp)
	if err != nil {
		return nil, fmt.Errorf("supabase %s %s: %w: %s", req.Method, req.URL.Path, err, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}

// Exists lists the object's directory and looks for its name
func (c *SupabaseClient) Exists(ctx context.Context, objectPath string) (bool, error) {
	dir, name := path.Split(objectPath)

	payload, err := json.Marshal(map[string]interface{}{
		"prefix": strings.TrimSuffix(dir, "/"),
		"search": name,
		"limit":  100,
	})
	if err != nil {
		return false, err
	}

	req, err := c.newRequest(ctx, http.MethodPost,
		fmt.Sprintf("%s/storage/v1/object/list/%s", c.baseURL, url.PathEscape(c.bucket)),
		payload, "application/json")
	if err != nil {
		return false, err
	}
	body, err := c.do(req)
	if err != nil {
		return false, err
	}

	var objects []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &objects); err != nil {
		return false, fmt.Errorf("decode storage list: %w", err)
	}
	for _, o := range objects {
		if o.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// Upload stores data at objectPath, overwriting an existing object
func (c *SupabaseClient) Upload(ctx context.Context, objectPath string, data []byte) error {
	req, err := c.newRequest(ctx, http.MethodPost,
		fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, url.PathEscape(c.bucket), escapePath(objectPath)),
		data, "text/csv")
	if err != nil {
		return err
	}
	req.Header.Set("x-upsert", "true")

	_, err = c.do(req)
	return err
}

// exists runs "select id ... limit 1" with the given eq filters
func (c *SupabaseClient) exists(ctx context.Context, filters map[string]string) (bool, error) {
	q := url.Values{}
	q.Set("select", "id")
	q.Set("limit", "1")
	for k, v := range filters {
		q.Set(k, "eq."+v)
	}

	req, err := c.newRequest(ctx, http.MethodGet,
		fmt.Sprintf("%s/rest/v1/%s?%s", c.baseURL, rankingTable, q.Encode()), nil, "")
	if err != nil {
		return false, err
	}
	body, err := c.do(req)
	if err != nil {
		return false, err
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return false, fmt.Errorf("decode %s query: %w", rankingTable, err)
	}
	return len(rows) > 0, nil
}

// HashExists reports whether a file with this MD5 was already inserted
func (c *SupabaseClient) HashExists(ctx context.Context, fileHash string) (bool, error) {
	return c.exists(ctx, map[string]string{"file_hash": fileHash})
}

// RankingExists reports whether rows exist for (strategy, refDate)
func (c *SupabaseClient) RankingExists(ctx context.Context, strategy int, refDate time.Time) (bool, error) {
	return c.exists(ctx, map[string]string{
		"strategy_number": fmt.Sprint(strategy),
		"ref_date":        refDate.Format(storage.DateLayout),
	})
}

// remoteRow is one stock_rankings row of the hosted table
type remoteRow struct {
	StrategyNumber int    `json:"strategy_number"`
	StrategyName   string `json:"strategy_name"`
	RefDate        string `json:"ref_date"`

	Ticker string `json:"ticker"`
	Name   string `json:"name"`
	Market string `json:"market"`
	Sector string `json:"sector"` // 시총구간
	Style  string `json:"style"`

	MarketCapBil  contracts.Num `json:"market_cap_bil"` // 억원
	TradingValWon contracts.Num `json:"trading_val_won"`

	TotalScore    float64 `json:"total_score"`
	ValueScore    float64 `json:"value_score"`
	QualityScore  float64 `json:"quality_score"`
	MomentumScore float64 `json:"momentum_score"`
	RiskScore     float64 `json:"risk_score"`

	PER      contracts.Num `json:"per"`
	PBR      contracts.Num `json:"pbr"`
	DivYield contracts.Num `json:"div_yield"`
	Mom3     contracts.Num `json:"mom_3m"`
	Mom12    contracts.Num `json:"mom_12m"`

	StoragePath string `json:"storage_path"`
	FileHash    string `json:"file_hash"`
}

// SaveRanking inserts the rows in one request. Missing numbers go out as null.
func (c *SupabaseClient) SaveRanking(ctx context.Context, run *contracts.RankingRun) error {
	records := storage.RecordsFromRun(run)
	rows := make([]remoteRow, len(records))
	for i, r := range records {
		rows[i] = remoteRow{
			StrategyNumber: r.StrategyNumber,
			StrategyName:   r.StrategyName,
			RefDate:        r.RefDate,
			Ticker:         r.Ticker,
			Name:           r.Name,
			Market:         r.Market,
			Sector:         r.CapBucket,
			Style:          r.Style,
			MarketCapBil:   r.MarketCapEok,
			TradingValWon:  r.TradingValue,
			TotalScore:     r.TotalScore,
			ValueScore:     r.ValueScore,
			QualityScore:   r.QualityScore,
			MomentumScore:  r.MomentumScore,
			RiskScore:      r.RiskScore,
			PER:            r.PER,
			PBR:            r.PBR,
			DivYield:       r.DIV,
			Mom3:           r.Mom3,
			Mom12:          r.Mom12,
			StoragePath:    r.StoragePath,
			FileHash:       r.FileHash,
		}
	}

	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode ranking rows: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost,
		fmt.Sprintf("%s/rest/v1/%s", c.baseURL, rankingTable), payload, "application/json")
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "return=minimal")

	_, err = c.do(req)
	return err
}
