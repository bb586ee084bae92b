// Package application defines the raw loan application record accepted by
// the decision pipeline, the closed set of modifiable field paths, and the
// JSON schema used to validate inbound documents.
package application

// LoanApplication is the raw, nested application record. Leaf fields are
// pointers so that an absent field can be told apart from a zero value.
// Unknown JSON fields are ignored on decode.
type LoanApplication struct {
	ApplicationID         string                `json:"applicationId"`
	LoanDetails           LoanDetails           `json:"loanDetails"`
	EmploymentInformation EmploymentInformation `json:"employmentInformation"`
	FinancialInformation  FinancialInformation  `json:"financialInformation"`
	CreditInformation     CreditInformation     `json:"creditInformation"`
	RiskIndicators        RiskIndicators        `json:"riskIndicators"`
	CalculatedMetrics     CalculatedMetrics     `json:"calculatedMetrics"`
}

type LoanDetails struct {
	LoanAmount        *float64 `json:"loanAmount,omitempty"`
	RequestedTenure   *int     `json:"requestedTenure,omitempty"`
	LoanToIncomeRatio *float64 `json:"loanToIncomeRatio,omitempty"`
}

type EmploymentInformation struct {
	EmploymentTenureMonths   *int     `json:"employmentTenureMonths,omitempty"`
	EmploymentStabilityScore *float64 `json:"employmentStabilityScore,omitempty"`
}

type FinancialInformation struct {
	MonthlyNetIncome   *float64 `json:"monthlyNetIncome,omitempty"`
	TotalMonthlyIncome *float64 `json:"totalMonthlyIncome,omitempty"`
	DebtServiceRatio   *float64 `json:"debtServiceRatio,omitempty"`
	SavingsAmount      *float64 `json:"savingsAmount,omitempty"`
}

type CreditInformation struct {
	CTOSScore               *int     `json:"ctosScore,omitempty"`
	TotalCreditUtilization  *float64 `json:"totalCreditUtilization,omitempty"`
	NumberOfCreditEnquiries *int     `json:"numberOfCreditEnquiries,omitempty"`
	// CreditScoreCategory is the bureau's band label (e.g. "GOOD").
	CreditScoreCategory *string `json:"creditScoreCategory,omitempty"`
}

type RiskIndicators struct {
	OverallRiskScore *float64 `json:"overallRiskScore,omitempty"`
}

type CalculatedMetrics struct {
	NewDebtServiceRatio *float64 `json:"newDebtServiceRatio,omitempty"`
	CashReserveMonths   *float64 `json:"cashReserveMonths,omitempty"`
}

// Clone returns a deep copy; mutating the copy never affects the receiver.
func (a LoanApplication) Clone() LoanApplication {
	out := a
	out.LoanDetails = LoanDetails{
		LoanAmount:        clonePtr(a.LoanDetails.LoanAmount),
		RequestedTenure:   clonePtr(a.LoanDetails.RequestedTenure),
		LoanToIncomeRatio: clonePtr(a.LoanDetails.LoanToIncomeRatio),
	}
	out.EmploymentInformation = EmploymentInformation{
		EmploymentTenureMonths:   clonePtr(a.EmploymentInformation.EmploymentTenureMonths),
		EmploymentStabilityScore: clonePtr(a.EmploymentInformation.EmploymentStabilityScore),
	}
	out.FinancialInformation = FinancialInformation{
		MonthlyNetIncome:   clonePtr(a.FinancialInformation.MonthlyNetIncome),
		TotalMonthlyIncome: clonePtr(a.FinancialInformation.TotalMonthlyIncome),
		DebtServiceRatio:   clonePtr(a.FinancialInformation.DebtServiceRatio),
		SavingsAmount:      clonePtr(a.FinancialInformation.SavingsAmount),
	}
	out.CreditInformation = CreditInformation{
		CTOSScore:               clonePtr(a.CreditInformation.CTOSScore),
		TotalCreditUtilization:  clonePtr(a.CreditInformation.TotalCreditUtilization),
		NumberOfCreditEnquiries: clonePtr(a.CreditInformation.NumberOfCreditEnquiries),
		CreditScoreCategory:     clonePtr(a.CreditInformation.CreditScoreCategory),
	}
	out.RiskIndicators = RiskIndicators{
		OverallRiskScore: clonePtr(a.RiskIndicators.OverallRiskScore),
	}
	out.CalculatedMetrics = CalculatedMetrics{
		NewDebtServiceRatio: clonePtr(a.CalculatedMetrics.NewDebtServiceRatio),
		CashReserveMonths:   clonePtr(a.CalculatedMetrics.CashReserveMonths),
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Float returns a pointer to v. Convenient for building applications in code.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }
