package features

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/application"
)

// MissingFieldError reports a required source field absent from the
// application.
type MissingFieldError struct {
	Field   application.FieldPath
	Feature Name
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %s required by feature %s", e.Field, e.Feature)
}

// Extract maps a raw application to its feature set. It is pure: the same
// application always yields the same set, and the application is not
// modified. The first absent required field (in canonical feature order) is
// reported as a *MissingFieldError.
func Extract(app application.LoanApplication) (FeatureSet, error) {
	var fs FeatureSet

	numbers := []struct {
		name  Name
		value *float64
	}{
		{MonthlyNetIncome, app.FinancialInformation.MonthlyNetIncome},
		{DebtServiceRatio, app.FinancialInformation.DebtServiceRatio},
		{NewDebtServiceRatio, app.CalculatedMetrics.NewDebtServiceRatio},
		{CreditScore, intAsFloat(app.CreditInformation.CTOSScore)},
		{CreditUtilization, app.CreditInformation.TotalCreditUtilization},
		{EmploymentStabilityScore, app.EmploymentInformation.EmploymentStabilityScore},
		{CashReserveMonths, app.CalculatedMetrics.CashReserveMonths},
		{OverallRiskScore, app.RiskIndicators.OverallRiskScore},
	}
	for _, n := range numbers {
		if n.value == nil {
			return FeatureSet{}, &MissingFieldError{Field: definitions[positions[n.name]].Source, Feature: n.name}
		}
		if err := fs.Set(n.name, NumericValue(*n.value)); err != nil {
			return FeatureSet{}, err
		}
	}

	if label := normalizeLabel(app.CreditInformation.CreditScoreCategory); label != "" {
		if err := fs.Set(CreditScoreCategory, CategoricalValue(label)); err != nil {
			return FeatureSet{}, err
		}
	}
	return fs, nil
}

func intAsFloat(v *int) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}

// normalizeLabel trims and NFC-normalizes a categorical value so visually
// identical labels compare equal.
func normalizeLabel(s *string) string {
	if s == nil {
		return ""
	}
	return norm.NFC.String(strings.TrimSpace(*s))
}
