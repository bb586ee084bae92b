package application

import (
	"encoding/json"
	"math"
	"slices"
)

// FieldPath is a dotted JSON path to a modifiable leaf of LoanApplication.
// The set of paths is closed; see Fields.
type FieldPath string

const (
	FieldLoanAmount               FieldPath = "loanDetails.loanAmount"
	FieldRequestedTenure          FieldPath = "loanDetails.requestedTenure"
	FieldLoanToIncomeRatio        FieldPath = "loanDetails.loanToIncomeRatio"
	FieldEmploymentTenureMonths   FieldPath = "employmentInformation.employmentTenureMonths"
	FieldEmploymentStabilityScore FieldPath = "employmentInformation.employmentStabilityScore"
	FieldMonthlyNetIncome         FieldPath = "financialInformation.monthlyNetIncome"
	FieldTotalMonthlyIncome       FieldPath = "financialInformation.totalMonthlyIncome"
	FieldDebtServiceRatio         FieldPath = "financialInformation.debtServiceRatio"
	FieldSavingsAmount            FieldPath = "financialInformation.savingsAmount"
	FieldCTOSScore                FieldPath = "creditInformation.ctosScore"
	FieldTotalCreditUtilization   FieldPath = "creditInformation.totalCreditUtilization"
	FieldNumberOfCreditEnquiries  FieldPath = "creditInformation.numberOfCreditEnquiries"
	FieldCreditScoreCategory      FieldPath = "creditInformation.creditScoreCategory"
	FieldOverallRiskScore         FieldPath = "riskIndicators.overallRiskScore"
	FieldNewDebtServiceRatio      FieldPath = "calculatedMetrics.newDebtServiceRatio"
	FieldCashReserveMonths        FieldPath = "calculatedMetrics.cashReserveMonths"
)

type valueKind int

const (
	kindNumber valueKind = iota
	kindInteger
	kindText
)

// field binds a path to the pointer it addresses. Exactly one accessor is
// set, matching kind.
type field struct {
	kind    valueKind
	number  func(*LoanApplication) **float64
	integer func(*LoanApplication) **int
	text    func(*LoanApplication) **string
}

var fields = map[FieldPath]field{
	FieldLoanAmount:               numberField(func(a *LoanApplication) **float64 { return &a.LoanDetails.LoanAmount }),
	FieldRequestedTenure:          integerField(func(a *LoanApplication) **int { return &a.LoanDetails.RequestedTenure }),
	FieldLoanToIncomeRatio:        numberField(func(a *LoanApplication) **float64 { return &a.LoanDetails.LoanToIncomeRatio }),
	FieldEmploymentTenureMonths:   integerField(func(a *LoanApplication) **int { return &a.EmploymentInformation.EmploymentTenureMonths }),
	FieldEmploymentStabilityScore: numberField(func(a *LoanApplication) **float64 { return &a.EmploymentInformation.EmploymentStabilityScore }),
	FieldMonthlyNetIncome:         numberField(func(a *LoanApplication) **float64 { return &a.FinancialInformation.MonthlyNetIncome }),
	FieldTotalMonthlyIncome:       numberField(func(a *LoanApplication) **float64 { return &a.FinancialInformation.TotalMonthlyIncome }),
	FieldDebtServiceRatio:         numberField(func(a *LoanApplication) **float64 { return &a.FinancialInformation.DebtServiceRatio }),
	FieldSavingsAmount:            numberField(func(a *LoanApplication) **float64 { return &a.FinancialInformation.SavingsAmount }),
	FieldCTOSScore:                integerField(func(a *LoanApplication) **int { return &a.CreditInformation.CTOSScore }),
	FieldTotalCreditUtilization:   numberField(func(a *LoanApplication) **float64 { return &a.CreditInformation.TotalCreditUtilization }),
	FieldNumberOfCreditEnquiries:  integerField(func(a *LoanApplication) **int { return &a.CreditInformation.NumberOfCreditEnquiries }),
	FieldCreditScoreCategory:      textField(func(a *LoanApplication) **string { return &a.CreditInformation.CreditScoreCategory }),
	FieldOverallRiskScore:         numberField(func(a *LoanApplication) **float64 { return &a.RiskIndicators.OverallRiskScore }),
	FieldNewDebtServiceRatio:      numberField(func(a *LoanApplication) **float64 { return &a.CalculatedMetrics.NewDebtServiceRatio }),
	FieldCashReserveMonths:        numberField(func(a *LoanApplication) **float64 { return &a.CalculatedMetrics.CashReserveMonths }),
}

func numberField(fn func(*LoanApplication) **float64) field {
	return field{kind: kindNumber, number: fn}
}

func integerField(fn func(*LoanApplication) **int) field {
	return field{kind: kindInteger, integer: fn}
}

func textField(fn func(*LoanApplication) **string) field {
	return field{kind: kindText, text: fn}
}

// Fields returns every modifiable path in lexical order.
func Fields() []FieldPath {
	out := make([]FieldPath, 0, len(fields))
	for p := range fields {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// ParseFieldPath reports whether s names a modifiable field.
func ParseFieldPath(s string) (FieldPath, bool) {
	p := FieldPath(s)
	_, ok := fields[p]
	return p, ok
}

// Modification replaces one leaf field of an application.
type Modification struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// ModificationsFromMap turns a {"path": value} document into modifications
// ordered by path, so application order never depends on map iteration.
func ModificationsFromMap(m map[string]any) []Modification {
	out := make([]Modification, 0, len(m))
	for path, value := range m {
		out = append(out, Modification{Path: path, Value: value})
	}
	slices.SortFunc(out, func(a, b Modification) int {
		switch {
		case a.Path < b.Path:
			return -1
		case a.Path > b.Path:
			return 1
		}
		return 0
	})
	return out
}

// Apply returns a modified deep copy of app. Modifications whose path is not
// in the closed field set, or whose value does not fit the field's type, are
// skipped and returned as ignored. app itself is never mutated.
func Apply(app LoanApplication, mods []Modification) (LoanApplication, []Modification) {
	out := app.Clone()
	var ignored []Modification
	for _, mod := range mods {
		if !applyOne(&out, mod) {
			ignored = append(ignored, mod)
		}
	}
	return out, ignored
}

func applyOne(app *LoanApplication, mod Modification) bool {
	f, ok := fields[FieldPath(mod.Path)]
	if !ok {
		return false
	}
	switch f.kind {
	case kindNumber:
		v, ok := asNumber(mod.Value)
		if !ok {
			return false
		}
		*f.number(app) = &v
	case kindInteger:
		v, ok := asInteger(mod.Value)
		if !ok {
			return false
		}
		*f.integer(app) = &v
	case kindText:
		v, ok := mod.Value.(string)
		if !ok {
			return false
		}
		*f.text(app) = &v
	default:
		return false
	}
	return true
}

func asNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func asInteger(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
	}
	f, ok := asNumber(v)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
