package application

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/pkg/domain-errors"
)

const sampleDocument = `{
  "applicationId": "APP-001",
  "loanDetails": {"loanAmount": 50000, "requestedTenure": 60, "loanToIncomeRatio": 0.42},
  "employmentInformation": {"employmentTenureMonths": 48, "employmentStabilityScore": 0.8},
  "financialInformation": {"monthlyNetIncome": 8000, "totalMonthlyIncome": 9500, "debtServiceRatio": 0.3, "savingsAmount": 20000},
  "creditInformation": {"ctosScore": 720, "totalCreditUtilization": 0.25, "numberOfCreditEnquiries": 2},
  "riskIndicators": {"overallRiskScore": 0.2},
  "calculatedMetrics": {"newDebtServiceRatio": 0.35, "cashReserveMonths": 2.5},
  "targetVariable": 1
}`

func decodeSample(t *testing.T) LoanApplication {
	t.Helper()
	var app LoanApplication
	require.NoError(t, json.Unmarshal([]byte(sampleDocument), &app))
	return app
}

func TestDecodeIgnoresUnknownFields(t *testing.T) {
	app := decodeSample(t)
	assert.Equal(t, "APP-001", app.ApplicationID)
	require.NotNil(t, app.CreditInformation.CTOSScore)
	assert.Equal(t, 720, *app.CreditInformation.CTOSScore)
	assert.Nil(t, app.CreditInformation.CreditScoreCategory)
}

func TestCloneIsDeep(t *testing.T) {
	app := decodeSample(t)
	clone := app.Clone()

	*clone.FinancialInformation.MonthlyNetIncome = 1
	*clone.CreditInformation.CTOSScore = 1

	assert.Equal(t, 8000.0, *app.FinancialInformation.MonthlyNetIncome)
	assert.Equal(t, 720, *app.CreditInformation.CTOSScore)
}

func TestApply(t *testing.T) {
	base := decodeSample(t)

	t.Run("known fields are replaced on a copy", func(t *testing.T) {
		out, ignored := Apply(base, []Modification{
			{Path: string(FieldMonthlyNetIncome), Value: 12000.0},
			{Path: string(FieldCTOSScore), Value: 780.0},
			{Path: string(FieldCreditScoreCategory), Value: "EXCELLENT"},
		})

		assert.Empty(t, ignored)
		assert.Equal(t, 12000.0, *out.FinancialInformation.MonthlyNetIncome)
		assert.Equal(t, 780, *out.CreditInformation.CTOSScore)
		assert.Equal(t, "EXCELLENT", *out.CreditInformation.CreditScoreCategory)
		assert.Equal(t, 8000.0, *base.FinancialInformation.MonthlyNetIncome, "base must not change")
		assert.Nil(t, base.CreditInformation.CreditScoreCategory)
	})

	t.Run("absent field can be set", func(t *testing.T) {
		var empty LoanApplication
		out, ignored := Apply(empty, []Modification{{Path: string(FieldCashReserveMonths), Value: json.Number("4.5")}})
		assert.Empty(t, ignored)
		assert.Equal(t, 4.5, *out.CalculatedMetrics.CashReserveMonths)
	})

	t.Run("unknown and ill-typed modifications are ignored", func(t *testing.T) {
		mods := []Modification{
			{Path: "financialInformation.bonus", Value: 1.0},
			{Path: "applicationId", Value: "APP-999"},
			{Path: string(FieldMonthlyNetIncome), Value: "a lot"},
			{Path: string(FieldCTOSScore), Value: 701.5},
			{Path: string(FieldCreditScoreCategory), Value: 3.0},
			{Path: string(FieldDebtServiceRatio), Value: nil},
		}
		out, ignored := Apply(base, mods)

		assert.Equal(t, mods, ignored)
		assert.Equal(t, base, out)
	})
}

func TestModificationsFromMapIsOrdered(t *testing.T) {
	mods := ModificationsFromMap(map[string]any{
		"riskIndicators.overallRiskScore":       0.1,
		"calculatedMetrics.cashReserveMonths":   6.0,
		"financialInformation.monthlyNetIncome": 9000.0,
	})

	require.Len(t, mods, 3)
	assert.Equal(t, "calculatedMetrics.cashReserveMonths", mods[0].Path)
	assert.Equal(t, "financialInformation.monthlyNetIncome", mods[1].Path)
	assert.Equal(t, "riskIndicators.overallRiskScore", mods[2].Path)
}

func TestParseFieldPath(t *testing.T) {
	p, ok := ParseFieldPath("creditInformation.ctosScore")
	assert.True(t, ok)
	assert.Equal(t, FieldCTOSScore, p)

	_, ok = ParseFieldPath("creditInformation")
	assert.False(t, ok)
	assert.Len(t, Fields(), 16)
}

func TestValidator(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	tests := []struct {
		name     string
		doc      string
		wantCode dErrors.Code
	}{
		{"complete document", sampleDocument, ""},
		{"missing leaf fields are left to extraction", `{"applicationId":"APP-2","financialInformation":{}}`, ""},
		{"missing application id", `{"loanDetails":{}}`, dErrors.CodeValidation},
		{"wrong leaf type", `{"applicationId":"APP-3","financialInformation":{"monthlyNetIncome":"8000"}}`, dErrors.CodeValidation},
		{"fractional integer", `{"applicationId":"APP-4","creditInformation":{"ctosScore":700.5}}`, dErrors.CodeValidation},
		{"not json", `{"applicationId":`, dErrors.CodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate([]byte(tt.doc))
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, tt.wantCode), "got %v", err)
		})
	}
}

func TestValidatorNamesLocation(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	err = v.Validate([]byte(`{"applicationId":"APP-3","financialInformation":{"monthlyNetIncome":"8000"}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/financialInformation/monthlyNetIncome")
}
