package domain

// EmployeeRecord is one validated roster row. It is created once per run
// from the roster file and never mutated by the pipeline; per-page results
// live in PageAssignment and are merged by the orchestrator.
type EmployeeRecord struct {
	Name       string `json:"name"`
	IBAN       string `json:"iban"`
	IBANMasked string `json:"iban_masked"`
	TargetDir  string `json:"target_dir"`
}

// PageAssignment maps one payslip page to the employee it was matched to,
// along with the match confidence and the payout amount extracted from the
// page text.
type PageAssignment struct {
	PageIndex   int     `json:"page_index"`
	Employee    string  `json:"employee"`
	Score       float64 `json:"score"`
	AmountCents int64   `json:"amount_cents"`
	Saved       bool    `json:"saved"`
	SavedPath   string  `json:"saved_path,omitempty"`
}
