package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curtainbe/internal/domain"
	"curtainbe/internal/uniprot"
)

func workTableOf(rows ...workRow) *workTable {
	return &workTable{linkID: "link-1", rows: rows}
}

func TestPrimaryIDMatcher_ExactOnly(t *testing.T) {
	wt := workTableOf(
		workRow{primaryID: "P12345", uniprot: "P12345", foldChange: 1},
		workRow{primaryID: "P12345-2", uniprot: "P12345", foldChange: 2},
		workRow{primaryID: "Q9Y6K9", uniprot: "Q9Y6K9", foldChange: 3},
	)
	q := newQueryIndex([]string{"P12345"})

	out := primaryIDMatcher{}.Match(wt, q)

	require.Len(t, out, 1, "isoform variants are not exact matches")
	assert.Equal(t, "P12345", out[0].PrimaryID)
	assert.Equal(t, "P12345", out[0].SourceTerm)
	assert.Empty(t, out[0].UniProt)
}

func TestUniprotMatcher_NormalizedBothSides(t *testing.T) {
	wt := workTableOf(
		workRow{primaryID: "P12345-2", uniprot: "P12345", foldChange: 1},
		workRow{primaryID: "Q9Y6K9", uniprot: "Q9Y6K9", foldChange: 2},
	)
	q := newQueryIndex([]string{"sp|P12345|AATM_RABIT"})

	out := uniprotMatcher{}.Match(wt, q)

	require.Len(t, out, 1)
	assert.Equal(t, "P12345-2", out[0].PrimaryID)
	assert.Equal(t, "P12345", out[0].UniProt)
	assert.Equal(t, "sp|P12345|AATM_RABIT", out[0].SourceTerm,
		"the source term is the literal submitted identifier, not the accession")
}

func TestUniprotMatcher_MultipleRowsAllKept(t *testing.T) {
	wt := workTableOf(
		workRow{primaryID: "P12345", uniprot: "P12345", comparison: "A"},
		workRow{primaryID: "P12345-2", uniprot: "P12345", comparison: "B"},
	)
	q := newQueryIndex([]string{"P12345"})

	out := uniprotMatcher{}.Match(wt, q)
	assert.Len(t, out, 2)
}

func TestGeneNamesMatcher_FirstRowWins(t *testing.T) {
	wt := workTableOf(
		workRow{primaryID: "X1", uniprot: "X1", geneNames: "OTHER"},
		workRow{primaryID: "P12345", uniprot: "P12345", geneNames: "GOT2 KAT4"},
		workRow{primaryID: "P12345-2", uniprot: "P12345", geneNames: "GOT2"},
	)
	q := newQueryIndex([]string{"P12345"})
	q.queryAnnotations = []uniprot.Annotation{
		{From: "P12345", GeneNames: "GOT2"},
	}

	out := geneNamesMatcher{}.Match(wt, q)

	require.Len(t, out, 1, "only the first matching row in row order is kept")
	assert.Equal(t, "P12345", out[0].PrimaryID)
	assert.Equal(t, "GOT2 KAT4", out[0].GeneNames)
	assert.Equal(t, "P12345", out[0].SourceTerm)
}

func TestGeneNamesMatcher_SharedSymbolAcrossQueries(t *testing.T) {
	wt := workTableOf(
		workRow{primaryID: "A", uniprot: "A0A024R161", geneNames: "IKBKG"},
	)
	q := newQueryIndex([]string{"Q9Y6K9", "P12345"})
	q.queryAnnotations = []uniprot.Annotation{
		{From: "Q9Y6K9", GeneNames: "IKBKG NEMO"},
		{From: "P12345", GeneNames: "IKBKG"},
	}

	out := geneNamesMatcher{}.Match(wt, q)

	require.Len(t, out, 2, "each query term claims its own match independently")
	assert.Equal(t, "Q9Y6K9", out[0].SourceTerm)
	assert.Equal(t, "P12345", out[1].SourceTerm)
}

func TestGeneNamesMatcher_NoAnnotationNoMatch(t *testing.T) {
	wt := workTableOf(workRow{primaryID: "P12345", uniprot: "P12345", geneNames: "GOT2"})
	q := newQueryIndex([]string{"P12345"})

	assert.Empty(t, geneNamesMatcher{}.Match(wt, q))
}

func TestMatcherFor(t *testing.T) {
	assert.IsType(t, primaryIDMatcher{}, matcherFor(domain.MatchPrimaryID))
	assert.IsType(t, uniprotMatcher{}, matcherFor(domain.MatchPrimaryIDUniProt))
	assert.IsType(t, geneNamesMatcher{}, matcherFor(domain.MatchGeneNames))
}

func TestQueryIndex_Accessions(t *testing.T) {
	q := newQueryIndex([]string{"sp|P12345|AATM_RABIT", "EGFR", "P12345-2", "Q9Y6K9"})

	assert.Equal(t, []string{"P12345", "Q9Y6K9"}, q.queryAccessions(),
		"deduplicated, in term order, non-accession terms skipped")
	assert.Equal(t, "sp|P12345|AATM_RABIT", q.accToTerm["P12345"],
		"the first term producing an accession owns it")
}
