package contracts

import (
	"strings"
	"time"
)

// Market is the listing segment
type Market string

const (
	MarketKOSPI  Market = "KOSPI"  // primary
	MarketKOSDAQ Market = "KOSDAQ" // secondary
)

// Instrument is one ticker's raw attributes as of a date
// ⭐ SSOT: Attribute Provider → Scorer 전달 레코드
type Instrument struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
	Market Market `json:"market"`

	// Fundamentals
	PER Num `json:"per"`
	PBR Num `json:"pbr"`
	DIV Num `json:"div"` // 배당수익률 (%)
	EPS Num `json:"eps"`
	BPS Num `json:"bps"`

	// Market data
	MarketCap    Num `json:"market_cap"`    // 원
	TradingValue Num `json:"trading_value"` // 거래대금 (원)
	Volume       Num `json:"volume"`
	Close        Num `json:"close"`

	// Momentum (%)
	Mom3  Num `json:"mom_3m"`
	Mom12 Num `json:"mom_12m"`
}

// Column names one raw attribute column
type Column int

const (
	ColPER Column = iota
	ColPBR
	ColDIV
	ColEPS
	ColBPS
	ColMarketCap
	ColTradingValue
	ColVolume
	ColClose
	ColMom3
	ColMom12
	numColumns
)

var columnNames = [numColumns]string{
	"PER", "PBR", "DIV", "EPS", "BPS",
	"marcap", "trading_value", "volume", "close",
	"mom_3m", "mom_12m",
}

func (c Column) String() string {
	if c < 0 || c >= numColumns {
		return "unknown"
	}
	return columnNames[c]
}

// ColumnSet is the set of columns a provider actually supplied
type ColumnSet uint32

// AllColumns is a ColumnSet with every column present
const AllColumns = ColumnSet(1<<numColumns - 1)

// Columns builds a ColumnSet
func Columns(cols ...Column) ColumnSet {
	var s ColumnSet
	for _, c := range cols {
		s |= 1 << c
	}
	return s
}

// Has reports whether c is in the set
func (s ColumnSet) Has(c Column) bool {
	return s&(1<<c) != 0
}

// Without returns the set minus cols
func (s ColumnSet) Without(cols ...Column) ColumnSet {
	return s &^ Columns(cols...)
}

// AttributeTable is the per-ticker raw attribute table for one date.
// A column absent from Columns is absent for every row; a present column may
// still have missing cells.
type AttributeTable struct {
	AsOf    time.Time    `json:"as_of"`
	Rows    []Instrument `json:"rows"`
	Columns ColumnSet    `json:"columns"`
}

// MissingColumns returns the required columns the table does not carry
func (t *AttributeTable) MissingColumns(required ...Column) []Column {
	var missing []Column
	for _, c := range required {
		if !t.Columns.Has(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// JoinColumns renders columns as "PER, PBR"
func JoinColumns(cols []Column) string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.String()
	}
	return strings.Join(names, ", ")
}
