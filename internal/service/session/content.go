// Package session implements session CRUD and retrieval of stored session
// payloads from object storage.
package session

import (
	"encoding/json"
	"fmt"
)

// StringList decodes a JSON value that is either a single string or an array
// of strings. Session payloads written by older frontend versions use the
// scalar form for single comparison selections.
type StringList []string

// UnmarshalJSON accepts "x", ["x", "y"], or null.
func (l *StringList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = nil
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*l = nil
		} else {
			*l = StringList{single}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("comparison selection must be a string or string array: %w", err)
	}
	*l = many
	return nil
}

// DifferentialForm declares which columns of the processed table play which
// role, plus the transforms the session originally applied.
type DifferentialForm struct {
	PrimaryIDs           string     `json:"_primaryIDs"`
	FoldChange           string     `json:"_foldChange"`
	Significant          string     `json:"_significant"`
	Comparison           string     `json:"_comparison"`
	ComparisonSelect     StringList `json:"_comparisonSelect"`
	TransformFC          bool       `json:"_transformFC"`
	TransformSignificant bool       `json:"_transformSignificant"`
}

// RawForm declares the identifier column of the raw table.
type RawForm struct {
	PrimaryIDs string `json:"_primaryIDs"`
}

// Settings carries the subset of session UI settings the comparison engine
// needs: the sample-to-condition mapping whose keys are the raw table's
// sample column names.
type Settings struct {
	SampleMap map[string]map[string]string `json:"sampleMap"`
}

// Content is the stored session payload: column-role metadata plus the raw
// and processed datasets as TSV strings.
type Content struct {
	DifferentialForm DifferentialForm `json:"differentialForm"`
	RawForm          RawForm          `json:"rawForm"`
	Settings         Settings         `json:"settings"`
	Processed        string           `json:"processed"`
	Raw              string           `json:"raw"`
}

// Validate checks the column-role metadata the comparison engine depends on.
func (c *Content) Validate() error {
	if c.DifferentialForm.PrimaryIDs == "" {
		return fmt.Errorf("differential form is missing a primary ID column")
	}
	if c.DifferentialForm.FoldChange == "" {
		return fmt.Errorf("differential form is missing a fold change column")
	}
	if c.DifferentialForm.Significant == "" {
		return fmt.Errorf("differential form is missing a significance column")
	}
	if c.RawForm.PrimaryIDs == "" {
		return fmt.Errorf("raw form is missing a primary ID column")
	}
	return nil
}
