// Package explain derives per-feature contributions and reason codes for a
// decision.
package explain

import (
	"math"
	"strings"

	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/features"
)

// NoSignificantFactors is the summary used when no reason code applies.
const NoSignificantFactors = "No significant factors"

// DefaultWeight is the linear attribution weight applied to every numeric
// feature unless overridden.
const DefaultWeight = 0.01

// Reason codes derived from feature contributions.
const (
	ReasonHighDTIRatio    = "HIGH_DTI_RATIO"
	ReasonLowCashBuffer   = "LOW_CASH_BUFFER"
	ReasonHighTotalDSR    = "HIGH_TOTAL_DSR"
	ReasonHighCreditUsage = "HIGH_CREDIT_USAGE"
)

// DefaultReasonCodes maps features to the code they raise when their
// contribution is positive.
var DefaultReasonCodes = map[features.Name]string{
	features.NewDebtServiceRatio: ReasonHighDTIRatio,
	features.CashReserveMonths:   ReasonLowCashBuffer,
	features.DebtServiceRatio:    ReasonHighTotalDSR,
	features.CreditUtilization:   ReasonHighCreditUsage,
}

// Explanation accompanies exactly one decision.
type Explanation struct {
	DecisionID    string        `json:"decision_id"`
	Contributions Contributions `json:"feature_contributions"`
	ReasonCodes   []string      `json:"reason_codes"`
	Summary       string        `json:"summary"`
}

// Engine computes linear contribution estimates. It is stateless after
// construction and safe for concurrent use.
type Engine struct {
	weights     map[features.Name]float64
	reasonCodes map[features.Name]string
}

type Option func(*Engine)

// WithWeight overrides the attribution weight for one feature.
func WithWeight(name features.Name, weight float64) Option {
	return func(e *Engine) {
		e.weights[name] = weight
	}
}

// WithReasonCodes replaces the feature to reason code mapping.
func WithReasonCodes(codes map[features.Name]string) Option {
	return func(e *Engine) {
		e.reasonCodes = make(map[features.Name]string, len(codes))
		for k, v := range codes {
			e.reasonCodes[k] = v
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		weights:     make(map[features.Name]float64),
		reasonCodes: DefaultReasonCodes,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) weight(name features.Name) float64 {
	if w, ok := e.weights[name]; ok {
		return w
	}
	return DefaultWeight
}

// Explain walks numeric features in canonical order. A positive contribution
// is read as pushing toward risk: a mapped feature with a contribution above
// zero raises its reason code. Codes keep feature order, not magnitude order.
// Categorical features are skipped.
func (e *Engine) Explain(fs features.FeatureSet, decisionID string) *Explanation {
	exp := &Explanation{
		DecisionID:    decisionID,
		Contributions: Contributions{},
		ReasonCodes:   []string{},
	}
	for name, v := range fs.All() {
		value, ok := v.Float()
		if !ok {
			continue
		}
		raw := value * e.weight(name)
		exp.Contributions = append(exp.Contributions, Contribution{Feature: name, Value: round3(raw)})

		if code, mapped := e.reasonCodes[name]; mapped && raw > 0 {
			exp.ReasonCodes = append(exp.ReasonCodes, code)
		}
	}
	exp.Summary = Summarize(exp.ReasonCodes)
	return exp
}

// Summarize joins codes for display.
func Summarize(codes []string) string {
	if len(codes) == 0 {
		return NoSignificantFactors
	}
	return strings.Join(codes, "; ")
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
