package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloat_MarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   Float
		want string
	}{
		{"finite", 1.5, "1.5"},
		{"negative", -2, "-2"},
		{"nan", Float(math.NaN()), "null"},
		{"pos inf", Float(math.Inf(1)), "null"},
		{"neg inf", Float(math.Inf(-1)), "null"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

func TestFloat_UnmarshalJSON(t *testing.T) {
	var f Float
	require.NoError(t, json.Unmarshal([]byte("null"), &f))
	assert.True(t, math.IsNaN(float64(f)))

	require.NoError(t, json.Unmarshal([]byte("2.5"), &f))
	assert.Equal(t, 2.5, float64(f))
}

func TestDifferentialRow_JSONShape(t *testing.T) {
	data, err := json.Marshal(DifferentialRow{
		PrimaryID:    "P12345",
		FoldChange:   Float(math.NaN()),
		Significance: 3,
		SourceTerm:   "P12345",
	})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Nil(t, decoded["foldChange"], "NaN serializes as null")
	assert.Equal(t, float64(3), decoded["significant"])
	assert.Equal(t, "P12345", decoded["source_pid"])
	assert.NotContains(t, decoded, "uniprot", "empty optional fields are omitted")
}

func TestParseMatchType(t *testing.T) {
	for _, valid := range []string{"primaryID", "primaryID-uniprot", "geneNames"} {
		mt, err := ParseMatchType(valid)
		require.NoError(t, err)
		assert.Equal(t, MatchType(valid), mt)
	}

	_, err := ParseMatchType("fuzzy")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}
