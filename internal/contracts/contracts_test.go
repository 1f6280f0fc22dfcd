package contracts

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSome_NonFiniteIsMissing(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want bool
	}{
		{"finite", 1.5, true},
		{"zero", 0, true},
		{"nan", math.NaN(), false},
		{"+inf", math.Inf(1), false},
		{"-inf", math.Inf(-1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Some(tt.in).Valid())
		})
	}
}

func TestNum_MissingIf(t *testing.T) {
	isZero := func(v float64) bool { return v == 0 }

	assert.False(t, Some(0).MissingIf(isZero).Valid())
	assert.Equal(t, 3.0, Some(3).MissingIf(isZero).Or(-1))
	assert.True(t, math.IsNaN(Missing().Float()))
}

func TestNum_JSONNull(t *testing.T) {
	in := Instrument{Ticker: "005930", PER: Some(12.5), PBR: Missing()}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"per":12.5`)
	assert.Contains(t, string(data), `"pbr":null`)

	var out Instrument
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, 12.5, out.PER.V)
	assert.True(t, out.PER.Valid())
	assert.False(t, out.PBR.Valid())
}

func TestAttributeTable_MissingColumns(t *testing.T) {
	table := &AttributeTable{Columns: AllColumns.Without(ColEPS, ColMom12)}

	missing := table.MissingColumns(ColPER, ColEPS, ColMom12)
	assert.Equal(t, []Column{ColEPS, ColMom12}, missing)
	assert.Equal(t, "EPS, mom_12m", JoinColumns(missing))

	assert.Empty(t, (&AttributeTable{Columns: AllColumns}).MissingColumns(ColPER, ColMom3))
}
