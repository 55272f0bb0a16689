package domain

import (
	"encoding/json"
	"math"
	"strconv"
)

// MatchType selects the strategy used to match query identifiers against
// session rows.
type MatchType string

// Matching strategies. The wire values are fixed by the public API.
const (
	MatchPrimaryID        MatchType = "primaryID"
	MatchPrimaryIDUniProt MatchType = "primaryID-uniprot"
	MatchGeneNames        MatchType = "geneNames"
)

// ParseMatchType validates a wire-format match type string.
func ParseMatchType(s string) (MatchType, error) {
	switch MatchType(s) {
	case MatchPrimaryID, MatchPrimaryIDUniProt, MatchGeneNames:
		return MatchType(s), nil
	}
	return "", ErrValidation("unknown match type %q", s)
}

// CompareRequest is a submitted cross-session comparison. Immutable once
// handed to the worker.
type CompareRequest struct {
	SessionIDs  []string
	QueryTerms  []string
	MatchType   MatchType
	ChannelName string
}

// Float is a float64 whose non-finite values (NaN, ±Inf) serialize as JSON
// null. Transform steps may produce NaN for rows with out-of-domain values
// and those rows are carried through rather than dropped.
type Float float64

// MarshalJSON renders non-finite values as null.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(v, 'g', -1, 64)), nil
}

// UnmarshalJSON accepts null as NaN.
func (f *Float) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Float(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// DifferentialRow is one matched row of a session's differential table,
// normalized to the shared output schema. SourceTerm always traces back to a
// literal member of the submitted query identifier list.
type DifferentialRow struct {
	PrimaryID    string `json:"primaryID"`
	UniProt      string `json:"uniprot,omitempty"`
	FoldChange   Float  `json:"foldChange"`
	Significance Float  `json:"significant"`
	Comparison   string `json:"comparison,omitempty"`
	GeneNames    string `json:"Gene Names,omitempty"`
	SourceTerm   string `json:"source_pid"`
}

// RawRow is one row of a session's raw table restricted to its sample
// columns plus the identifier, keyed "primaryID".
type RawRow map[string]string

// SessionComparison is the per-session slice of a comparison result.
type SessionComparison struct {
	Differential []DifferentialRow            `json:"differential"`
	Raw          []RawRow                     `json:"raw"`
	SampleMap    map[string]map[string]string `json:"sampleMap"`
}

// CompareResult maps session link IDs to their comparison output. Every
// accessible requested session appears as a key, possibly with empty rows.
type CompareResult map[string]*SessionComparison
