// Package document abstracts the multi-page payslip source. The pipeline
// only needs a page count, per-page text and a way to export a single page;
// how those pages are stored is the reader's concern.
package document

// Reader is the payslip document collaborator.
//
// PageText failures are non-fatal for the pipeline: a page whose text
// cannot be extracted simply matches nobody.
type Reader interface {
	// PageCount returns the number of pages in the document.
	PageCount() int
	// PageText returns the raw text of the page at index (0-based).
	PageText(index int) (string, error)
	// SavePage writes the page at index as a standalone artifact. base is
	// the destination path without extension; the reader appends its own
	// artifact extension and returns the final path.
	SavePage(index int, base string) (string, error)
}
