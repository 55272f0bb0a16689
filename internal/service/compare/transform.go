package compare

import (
	"math"
	"strconv"
	"strings"

	"curtainbe/internal/domain"
	"curtainbe/internal/service/session"
	"curtainbe/internal/uniprot"
)

// workRow is one differential-table row normalized to the roles the matching
// engine operates on. geneNames is filled in only for the gene-name strategy,
// after the annotation lookup completes.
type workRow struct {
	primaryID    string
	uniprot      string
	foldChange   domain.Float
	significance domain.Float
	comparison   string
	geneNames    string
}

// workTable is a session's transformed differential table plus the context
// needed to assemble its slice of the final result.
type workTable struct {
	linkID      string
	rows        []workRow
	comparisons []string
	rawTable    *Table
	rawPIDCol   string
	sampleMap   map[string]map[string]string
}

// buildWorkTable applies the session's originally configured pipeline to its
// processed table: comparison-group subset selection first, then the numeric
// transforms. The transforms run exactly once here; rows with out-of-domain
// values become NaN and are carried through.
func buildWorkTable(linkID string, content *session.Content, processed, raw *Table) *workTable {
	form := content.DifferentialForm

	var comparisons []string
	filterComparisons := len(form.ComparisonSelect) > 0 && processed.ColumnIndex(form.Comparison) >= 0
	if filterComparisons {
		comparisons = append(comparisons, form.ComparisonSelect...)
	}
	selected := make(map[string]struct{}, len(comparisons))
	for _, c := range comparisons {
		selected[c] = struct{}{}
	}

	wt := &workTable{
		linkID:      linkID,
		comparisons: comparisons,
		rawTable:    raw,
		rawPIDCol:   content.RawForm.PrimaryIDs,
		sampleMap:   content.Settings.SampleMap,
	}

	for _, row := range processed.Rows {
		comparison := ""
		if filterComparisons {
			comparison = processed.Cell(row, form.Comparison)
			if _, ok := selected[comparison]; !ok {
				continue
			}
		}

		fc := parseFloat(processed.Cell(row, form.FoldChange))
		if form.TransformFC {
			fc = transformFoldChange(fc)
		}
		sig := parseFloat(processed.Cell(row, form.Significant))
		if form.TransformSignificant {
			sig = -math.Log10(sig)
		}

		pid := processed.Cell(row, form.PrimaryIDs)
		wt.rows = append(wt.rows, workRow{
			primaryID:    pid,
			uniprot:      uniprot.NormalizeID(pid),
			foldChange:   domain.Float(fc),
			significance: domain.Float(sig),
			comparison:   comparison,
		})
	}
	return wt
}

// transformFoldChange applies the sign-preserving log2 transform: v >= 0
// maps to log2(v), negative v maps to -log2(-v). Zero becomes -Inf.
func transformFoldChange(v float64) float64 {
	if v >= 0 {
		return math.Log2(v)
	}
	return -math.Log2(-v)
}

// parseFloat reads a table cell as a float. Blank or unparseable cells
// become NaN, which serializes as JSON null downstream.
func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
