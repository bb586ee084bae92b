// Package policy resolves reason codes to the credit-policy clauses that
// justify them. The lookup table is static at runtime; a reload replaces it
// whole.
package policy

import (
	"slices"
	"sync/atomic"
)

// Reference points at one clause of a policy document.
type Reference struct {
	Document string `json:"document" yaml:"document"`
	Section  string `json:"section" yaml:"section"`
	Summary  string `json:"summary" yaml:"summary"`
}

// Table maps a reason code to its references, in document order.
type Table map[string][]Reference

// Clone returns a deep copy.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for code, refs := range t {
		out[code] = slices.Clone(refs)
	}
	return out
}

// DefaultTable is the built-in policy table.
func DefaultTable() Table {
	const retail = "Retail Credit Policy v3.2"
	return Table{
		"HIGH_DTI_RATIO": {
			{Document: retail, Section: "4.1.2", Summary: "Debt-to-income ratio for unsecured loans should not exceed 40%"},
			{Document: retail, Section: "4.1.3", Summary: "Applications above the DTI ceiling require a documented compensating factor"},
		},
		"LOW_CASH_BUFFER": {
			{Document: retail, Section: "4.2.1", Summary: "Applicants should maintain at least 3 months of cash reserves"},
		},
		"HIGH_TOTAL_DSR": {
			{Document: retail, Section: "4.1.1", Summary: "Total debt service ratio including existing commitments should not exceed 60%"},
		},
		"HIGH_CREDIT_USAGE": {
			{Document: retail, Section: "5.3.1", Summary: "Revolving credit utilisation above 70% indicates elevated repayment stress"},
		},
		"HIGH_RISK_PROFILE": {
			{Document: "Credit Risk Appetite Statement 2024", Section: "2.3", Summary: "Applications scored below the review band are outside risk appetite"},
		},
	}
}

// Resolver looks up references for reason codes. Safe for concurrent use;
// Replace swaps the table atomically so readers never see a partial table.
type Resolver struct {
	table atomic.Pointer[Table]
}

// NewResolver builds a resolver over a private copy of table.
func NewResolver(table Table) *Resolver {
	r := &Resolver{}
	r.Replace(table)
	return r
}

// Replace installs a new table.
func (r *Resolver) Replace(table Table) {
	t := table.Clone()
	r.table.Store(&t)
}

// Retrieve returns references for codes. Output follows the order of codes,
// with each code's references in table order. Unknown codes contribute
// nothing. The result is never nil.
func (r *Resolver) Retrieve(codes []string) []Reference {
	table := *r.table.Load()
	out := []Reference{}
	for _, code := range codes {
		out = append(out, table[code]...)
	}
	return out
}

// Codes lists the codes the current table knows, sorted.
func (r *Resolver) Codes() []string {
	table := *r.table.Load()
	out := make([]string, 0, len(table))
	for code := range table {
		out = append(out, code)
	}
	slices.Sort(out)
	return out
}
