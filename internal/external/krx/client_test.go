package krx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/propick/internal/contracts"
	"github.com/wonny/propick/pkg/httputil"
	"github.com/wonny/propick/pkg/logger"
	"github.com/wonny/propick/pkg/redis"
)

// krxServer answers getJsonData.cmd by bld and mktId
func krxServer(t *testing.T, handle func(form map[string]string) interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, jsonDataPath, r.URL.Path)
		assert.NoError(t, r.ParseForm())

		form := make(map[string]string)
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(handle(form))
	}))
}

func newTestClient(url string) *Client {
	httpClient := httputil.New(logger.Nop()).DisableRetry()
	return NewClient(httpClient, redis.NewCache(redis.Disabled(), "test"), url, logger.Nop())
}

func day(s string) time.Time {
	t, _ := time.Parse("20060102", s)
	return t
}

func TestFetchMarketCaps(t *testing.T) {
	srv := krxServer(t, func(form map[string]string) interface{} {
		assert.Equal(t, "dbms/MDC/STAT/standard/MDCSTAT01501", form["bld"])
		assert.Equal(t, "STK", form["mktId"])
		assert.Equal(t, "20240102", form["trdDd"])
		return map[string]interface{}{"OutBlock_1": []map[string]string{
			{"ISU_SRT_CD": "005930", "ISU_ABBRV": "삼성전자", "TDD_CLSPRC": "79,600", "ACC_TRDVOL": "17,142,847",
				"ACC_TRDVAL": "1,364,740,122,850", "MKTCAP": "475,195,569,138,000", "LIST_SHRS": "5,969,782,550"},
			{"ISU_SRT_CD": "000020", "ISU_ABBRV": "동화약품", "TDD_CLSPRC": "-", "ACC_TRDVOL": "", "ACC_TRDVAL": "0",
				"MKTCAP": "280,453,000,000", "LIST_SHRS": "27,931,470"},
			{"ISU_SRT_CD": "", "ISU_ABBRV": "blank"},
		}}
	})
	defer srv.Close()

	caps, err := newTestClient(srv.URL).FetchMarketCaps(context.Background(), day("20240102"), contracts.MarketKOSPI)
	require.NoError(t, err)
	require.Len(t, caps, 2)

	assert.Equal(t, "005930", caps[0].Ticker)
	assert.Equal(t, "삼성전자", caps[0].Name)
	assert.Equal(t, 79600.0, caps[0].Close.V)
	assert.Equal(t, 1364740122850.0, caps[0].TradingValue.V)
	assert.Equal(t, 475195569138000.0, caps[0].MarketCap.V)

	assert.False(t, caps[1].Close.Valid())
	assert.False(t, caps[1].Volume.Valid())
	assert.True(t, caps[1].TradingValue.Valid())
}

func TestFetchFundamentals_OutputEnvelope(t *testing.T) {
	srv := krxServer(t, func(form map[string]string) interface{} {
		assert.Equal(t, "dbms/MDC/STAT/standard/MDCSTAT03501", form["bld"])
		assert.Equal(t, "KSQ", form["mktId"])
		return map[string]interface{}{"output": []map[string]string{
			{"ISU_SRT_CD": "091990", "EPS": "1,012", "PER": "71.34", "BPS": "21,011", "PBR": "3.44", "DVD_YLD": "0.23"},
			{"ISU_SRT_CD": "263750", "EPS": "-", "PER": "-", "BPS": "30,151", "PBR": "1.66", "DVD_YLD": "0.00"},
		}}
	})
	defer srv.Close()

	rows, err := newTestClient(srv.URL).FetchFundamentals(context.Background(), day("20240102"), contracts.MarketKOSDAQ)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 71.34, rows[0].PER.V)
	assert.Equal(t, 0.23, rows[0].DIV.V)
	assert.False(t, rows[1].PER.Valid())
	assert.False(t, rows[1].EPS.Valid())
	assert.Equal(t, 0.0, rows[1].DIV.V)
	assert.True(t, rows[1].DIV.Valid())
}

func TestFetchPriceChanges(t *testing.T) {
	srv := krxServer(t, func(form map[string]string) interface{} {
		assert.Equal(t, "dbms/MDC/STAT/standard/MDCSTAT01602", form["bld"])
		assert.Equal(t, "20231003", form["strtDd"])
		assert.Equal(t, "20240102", form["endDd"])
		assert.Equal(t, "2", form["adjStkPrc"])
		return map[string]interface{}{"OutBlock_1": []map[string]string{
			{"ISU_SRT_CD": "005930", "FLUC_RT": "16.95"},
			{"ISU_SRT_CD": "000660", "FLUC_RT": "-3.10"},
		}}
	})
	defer srv.Close()

	rows, err := newTestClient(srv.URL).FetchPriceChanges(context.Background(), day("20231003"), day("20240102"), contracts.MarketKOSPI)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 16.95, rows[0].ChangeRate.V)
	assert.Equal(t, -3.10, rows[1].ChangeRate.V)
}

func TestTotalMarketCap(t *testing.T) {
	srv := krxServer(t, func(form map[string]string) interface{} {
		if form["trdDd"] == "20240106" { // 토요일
			return map[string]interface{}{"OutBlock_1": []map[string]string{
				{"ISU_SRT_CD": "005930", "MKTCAP": "0"},
			}}
		}
		caps := map[string]string{"STK": "2,000", "KSQ": "-500"}
		return map[string]interface{}{"OutBlock_1": []map[string]string{
			{"ISU_SRT_CD": "000001", "MKTCAP": caps[form["mktId"]]},
			{"ISU_SRT_CD": "000002", "MKTCAP": "-"},
		}}
	})
	defer srv.Close()

	client := newTestClient(srv.URL)

	total, err := client.TotalMarketCap(context.Background(), day("20240105"))
	require.NoError(t, err)
	assert.Equal(t, 2500.0, total)

	total, err = client.TotalMarketCap(context.Background(), day("20240106"))
	require.NoError(t, err)
	assert.Equal(t, 0.0, total)
}

func TestFetchRows_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("mktId") == "STK" {
			http.Error(w, "blocked", http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte("<html>LOGOUT</html>"))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	_, err := client.FetchMarketCaps(context.Background(), day("20240102"), contracts.MarketKOSPI)
	assert.ErrorContains(t, err, "403")

	_, err = client.FetchMarketCaps(context.Background(), day("20240102"), contracts.MarketKOSDAQ)
	assert.ErrorContains(t, err, "decode KRX response")

	_, err = client.FetchMarketCaps(context.Background(), day("20240102"), contracts.Market("KONEX"))
	assert.ErrorContains(t, err, "unsupported market")
}

func TestParseKRXNumber(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		valid bool
	}{
		{"1,459,781", 1459781, true},
		{"-3.10", -3.10, true},
		{" 0 ", 0, true},
		{"-", 0, false},
		{"", 0, false},
		{"N/A", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseKRXNumber(tt.input)
			assert.Equal(t, tt.valid, got.Valid())
			if tt.valid {
				assert.Equal(t, tt.want, got.V)
			}
		})
	}
}
