// Package features turns a raw loan application into the canonical, ordered
// feature set shared by scoring, explanation and what-if simulation.
package features

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"iter"

	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/application"
)

// Name identifies a feature in the closed schema.
type Name string

const (
	MonthlyNetIncome         Name = "monthly_net_income"
	DebtServiceRatio         Name = "debt_service_ratio"
	NewDebtServiceRatio      Name = "new_debt_service_ratio"
	CreditScore              Name = "credit_score"
	CreditUtilization        Name = "credit_utilization"
	EmploymentStabilityScore Name = "employment_stability_score"
	CashReserveMonths        Name = "cash_reserve_months"
	OverallRiskScore         Name = "overall_risk_score"
	CreditScoreCategory      Name = "credit_score_category"
)

// Kind distinguishes numeric features from categorical labels.
type Kind int

const (
	Numeric Kind = iota
	Categorical
)

func (k Kind) String() string {
	if k == Categorical {
		return "categorical"
	}
	return "numeric"
}

// definition describes one feature: its position is its index in the
// canonical order.
type definition struct {
	Name   Name
	Kind   Kind
	Source application.FieldPath
}

// featureCount is len(definitions).
const featureCount = 9

var definitions = []definition{
	{Name: MonthlyNetIncome, Kind: Numeric, Source: application.FieldMonthlyNetIncome},
	{Name: DebtServiceRatio, Kind: Numeric, Source: application.FieldDebtServiceRatio},
	{Name: NewDebtServiceRatio, Kind: Numeric, Source: application.FieldNewDebtServiceRatio},
	{Name: CreditScore, Kind: Numeric, Source: application.FieldCTOSScore},
	{Name: CreditUtilization, Kind: Numeric, Source: application.FieldTotalCreditUtilization},
	{Name: EmploymentStabilityScore, Kind: Numeric, Source: application.FieldEmploymentStabilityScore},
	{Name: CashReserveMonths, Kind: Numeric, Source: application.FieldCashReserveMonths},
	{Name: OverallRiskScore, Kind: Numeric, Source: application.FieldOverallRiskScore},
	{Name: CreditScoreCategory, Kind: Categorical, Source: application.FieldCreditScoreCategory},
}

var positions = func() map[Name]int {
	m := make(map[Name]int, len(definitions))
	for i, d := range definitions {
		m[d.Name] = i
	}
	return m
}()

var (
	ErrUnknownFeature = errors.New("unknown feature")
	ErrKindMismatch   = errors.New("feature kind mismatch")
)

// Value is a single feature value, either numeric or categorical.
type Value struct {
	kind Kind
	num  float64
	text string
}

func NumericValue(v float64) Value    { return Value{kind: Numeric, num: v} }
func CategoricalValue(s string) Value { return Value{kind: Categorical, text: s} }

func (v Value) Kind() Kind { return v.kind }

// Float returns the numeric value; ok is false for categorical values.
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == Numeric
}

// Text returns the categorical label; ok is false for numeric values.
func (v Value) Text() (string, bool) {
	return v.text, v.kind == Categorical
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == Categorical {
		return json.Marshal(v.text)
	}
	return json.Marshal(v.num)
}

// FeatureSet is an ordered mapping over the closed schema. Iteration always
// follows the canonical order regardless of the order values were set in.
// The zero value is an empty set.
type FeatureSet struct {
	values  [featureCount]Value
	present [featureCount]bool
}

// Set stores a value. Names outside the schema and values of the wrong kind
// are rejected.
func (fs *FeatureSet) Set(name Name, v Value) error {
	i, ok := positions[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFeature, name)
	}
	if definitions[i].Kind != v.kind {
		return fmt.Errorf("%w: %s is %s", ErrKindMismatch, name, definitions[i].Kind)
	}
	fs.values[i] = v
	fs.present[i] = true
	return nil
}

// Get returns the value for name and whether it is present.
func (fs FeatureSet) Get(name Name) (Value, bool) {
	i, ok := positions[name]
	if !ok || !fs.present[i] {
		return Value{}, false
	}
	return fs.values[i], true
}

// Numeric is shorthand for a present numeric feature.
func (fs FeatureSet) Numeric(name Name) (float64, bool) {
	v, ok := fs.Get(name)
	if !ok {
		return 0, false
	}
	return v.Float()
}

// Len returns the number of present features.
func (fs FeatureSet) Len() int {
	n := 0
	for _, p := range fs.present {
		if p {
			n++
		}
	}
	return n
}

// All yields present features in canonical order.
func (fs FeatureSet) All() iter.Seq2[Name, Value] {
	return func(yield func(Name, Value) bool) {
		for i, d := range definitions {
			if !fs.present[i] {
				continue
			}
			if !yield(d.Name, fs.values[i]) {
				return
			}
		}
	}
}

// MarshalJSON renders the set as an object whose keys follow canonical order.
func (fs FeatureSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for name, v := range fs.All() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		key, _ := json.Marshal(string(name))
		val, err := v.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
