package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/wonny/propick/internal/contracts"
)

// RankingFile is a ranking CSV read back from disk
type RankingFile struct {
	Path     string
	Strategy int
	Stamp    time.Time
	Rows     []contracts.LabeledRecord
}

// ReadRankingCSV parses a file written by WriteRanking. Rank follows row
// order and market cap is converted back from 억 to 원.
func ReadRankingCSV(path string) (*RankingFile, error) {
	strategy, stamp, err := ParseFileName(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	if r, _, err := br.ReadRune(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	} else if r != '\ufeff' {
		_ = br.UnreadRune()
	}

	cr := csv.NewReader(br)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	if _, ok := col["종목코드"]; !ok {
		return nil, fmt.Errorf("%s: missing 종목코드 column", path)
	}

	file := &RankingFile{Path: path, Strategy: strategy, Stamp: stamp, Rows: make([]contracts.LabeledRecord, 0)}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		field := func(name string) string {
			if i, ok := col[name]; ok && i < len(rec) {
				return rec[i]
			}
			return ""
		}
		num := func(name string) contracts.Num { return parseNum(field(name)) }
		score := func(name string) float64 { return num(name).Or(0) }

		marcap := num("시가총액")
		if marcap.Valid() {
			marcap = contracts.Some(marcap.V * 1e8)
		}

		file.Rows = append(file.Rows, contracts.LabeledRecord{
			ScoredRecord: contracts.ScoredRecord{
				Instrument: contracts.Instrument{
					Ticker:       PadTicker(field("종목코드")),
					Name:         field("종목명"),
					Market:       contracts.Market(field("시장")),
					MarketCap:    marcap,
					TradingValue: num("거래대금"),
					Volume:       num("거래량"),
					Close:        num("종가"),
					PER:          num("PER"),
					PBR:          num("PBR"),
					DIV:          num("DIV"),
					EPS:          num("EPS"),
					BPS:          num("BPS"),
					Mom3:         num("mom_3m"),
					Mom12:        num("mom_12m"),
				},
				ValueScore:    score("value_score"),
				QualityScore:  score("quality_score"),
				MomentumScore: score("momentum_score"),
				RiskScore:     score("risk_score"),
				TotalScore:    score("total_score"),
			},
			Rank:       len(file.Rows) + 1,
			CapBucket:  field("시총구간"),
			RiskBucket: field("리스크구간"),
			Style:      field("스타일"),
		})
	}

	return file, nil
}

// parseNum: 빈 값, "inf", "nan" 등은 missing
func parseNum(s string) contracts.Num {
	if s == "" {
		return contracts.Missing()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return contracts.Missing()
	}
	return contracts.Some(v)
}
