package uniprot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAccession(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		found bool
	}{
		{"plain O-series", "P12345", "P12345", true},
		{"plain Q-series", "Q9Y6K9", "Q9Y6K9", true},
		{"ten-char A-series", "A0A024R161", "A0A024R161", true},
		{"isoform suffix stripped", "P12345-2", "P12345", true},
		{"fasta composite", "sp|Q9Y6K9|NEMO_HUMAN", "Q9Y6K9", true},
		{"gene symbol", "EGFR", "", false},
		{"empty", "", "", false},
		{"lowercase not matched", "p12345", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseAccession(tt.input)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeID_FallsBackToInput(t *testing.T) {
	assert.Equal(t, "EGFR", NormalizeID("EGFR"))
	assert.Equal(t, "", NormalizeID(""))
}

func TestNormalizeID_Idempotent(t *testing.T) {
	inputs := []string{"P12345", "P12345-2", "sp|Q9Y6K9|NEMO_HUMAN", "EGFR", "A0A024R161"}
	for _, in := range inputs {
		once := NormalizeID(in)
		assert.Equal(t, once, NormalizeID(once), "NormalizeID(%q) must be idempotent", in)
	}
}
