package compare

import (
	"strings"

	"curtainbe/internal/domain"
	"curtainbe/internal/uniprot"
)

// queryIndex is the query identifier list prepared for matching: the literal
// term set for direct matches and the accession-to-original-term mapping for
// the accession-based strategies. queryAnnotations is populated only for the
// gene-name strategy, after the annotation lookup.
type queryIndex struct {
	terms            []string
	termSet          map[string]struct{}
	accToTerm        map[string]string
	queryAnnotations []uniprot.Annotation
}

func newQueryIndex(terms []string) *queryIndex {
	q := &queryIndex{
		terms:     terms,
		termSet:   make(map[string]struct{}, len(terms)),
		accToTerm: make(map[string]string),
	}
	for _, term := range terms {
		q.termSet[term] = struct{}{}
		if acc, ok := uniprot.ParseAccession(term); ok {
			if _, exists := q.accToTerm[acc]; !exists {
				q.accToTerm[acc] = term
			}
		}
	}
	return q
}

// queryAccessions returns the parsed query accessions in term order.
func (q *queryIndex) queryAccessions() []string {
	seen := make(map[string]struct{}, len(q.accToTerm))
	out := make([]string, 0, len(q.accToTerm))
	for _, term := range q.terms {
		if acc, ok := uniprot.ParseAccession(term); ok {
			if _, dup := seen[acc]; !dup {
				seen[acc] = struct{}{}
				out = append(out, acc)
			}
		}
	}
	return out
}

// matcher reduces a session's work table to the rows relevant to the query.
// Every emitted row's SourceTerm is a literal member of the submitted query
// identifier list.
type matcher interface {
	Match(wt *workTable, q *queryIndex) []domain.DifferentialRow
}

func matcherFor(mt domain.MatchType) matcher {
	switch mt {
	case domain.MatchPrimaryIDUniProt:
		return uniprotMatcher{}
	case domain.MatchGeneNames:
		return geneNamesMatcher{}
	default:
		return primaryIDMatcher{}
	}
}

// primaryIDMatcher retains rows whose primary ID is an exact member of the
// query list.
type primaryIDMatcher struct{}

func (primaryIDMatcher) Match(wt *workTable, q *queryIndex) []domain.DifferentialRow {
	var out []domain.DifferentialRow
	for _, row := range wt.rows {
		if _, ok := q.termSet[row.primaryID]; !ok {
			continue
		}
		out = append(out, domain.DifferentialRow{
			PrimaryID:    row.primaryID,
			FoldChange:   row.foldChange,
			Significance: row.significance,
			Comparison:   row.comparison,
			SourceTerm:   row.primaryID,
		})
	}
	return out
}

// uniprotMatcher retains rows whose normalized accession matches a normalized
// query identifier. SourceTerm is recovered as the original query string, not
// the accession.
type uniprotMatcher struct{}

func (uniprotMatcher) Match(wt *workTable, q *queryIndex) []domain.DifferentialRow {
	var out []domain.DifferentialRow
	for _, row := range wt.rows {
		term, ok := q.accToTerm[row.uniprot]
		if !ok {
			continue
		}
		out = append(out, domain.DifferentialRow{
			PrimaryID:    row.primaryID,
			UniProt:      row.uniprot,
			FoldChange:   row.foldChange,
			Significance: row.significance,
			Comparison:   row.comparison,
			SourceTerm:   term,
		})
	}
	return out
}

// geneNamesMatcher matches on gene symbols. For each query accession's
// gene-name set, the first row in the session's own row order sharing any
// symbol wins; further matching rows for that query are discarded.
type geneNamesMatcher struct{}

func (geneNamesMatcher) Match(wt *workTable, q *queryIndex) []domain.DifferentialRow {
	var out []domain.DifferentialRow
	for _, ann := range q.queryAnnotations {
		term, ok := q.accToTerm[ann.From]
		if !ok {
			continue
		}
		symbols := splitGeneSymbols(ann.GeneNames)
		if len(symbols) == 0 {
			continue
		}
		want := make(map[string]struct{}, len(symbols))
		for _, s := range symbols {
			want[s] = struct{}{}
		}

		for _, row := range wt.rows {
			if !rowHasSymbol(row.geneNames, want) {
				continue
			}
			out = append(out, domain.DifferentialRow{
				PrimaryID:    row.primaryID,
				UniProt:      row.uniprot,
				FoldChange:   row.foldChange,
				Significance: row.significance,
				Comparison:   row.comparison,
				GeneNames:    row.geneNames,
				SourceTerm:   term,
			})
			break
		}
	}
	return out
}

func rowHasSymbol(geneNames string, want map[string]struct{}) bool {
	for _, s := range splitGeneSymbols(geneNames) {
		if _, ok := want[s]; ok {
			return true
		}
	}
	return false
}

// splitGeneSymbols explodes a space-separated gene-name string into
// individual uppercase symbols.
func splitGeneSymbols(s string) []string {
	return strings.Fields(strings.ToUpper(s))
}
