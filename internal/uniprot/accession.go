// Package uniprot provides UniProt accession parsing and a batched client
// for the UniProt ID-mapping service.
package uniprot

import "regexp"

// accessionPattern matches canonical UniProtKB accessions: the 6-character
// O/P/Q series and the 6- or 10-character A-N/R-Z series. Isoform suffixes
// ("-2") and FASTA-style composite IDs ("sp|P12345|NAME_HUMAN") contain a
// plain accession as a substring, so a search (not a full match) extracts it.
var accessionPattern = regexp.MustCompile(`[OPQ][0-9][A-Z0-9]{3}[0-9]|[A-NR-Z][0-9](?:[A-Z][A-Z0-9]{2}[0-9]){1,2}`)

// ParseAccession extracts the first UniProt accession embedded in s. The
// second return value reports whether one was found.
func ParseAccession(s string) (string, bool) {
	acc := accessionPattern.FindString(s)
	return acc, acc != ""
}

// NormalizeID returns the accession embedded in s, or s unchanged when no
// accession syntax is recognized. It never fails and is idempotent.
func NormalizeID(s string) string {
	if acc, ok := ParseAccession(s); ok {
		return acc
	}
	return s
}
