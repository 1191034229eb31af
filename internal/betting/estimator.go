package betting

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/yourusername/keiba-sim/internal/models"
)

// Formula selects how constituent win odds combine into ticket odds.
//
// Both formulas are heuristics over win odds. Official payouts come from the
// pari-mutuel pool of each bet type, which this engine does not model.
type Formula string

const (
	// FormulaSum multiplies the sum of win odds by the bet type coefficient.
	FormulaSum Formula = "sum"
	// FormulaAverage multiplies the mean of win odds by the bet type coefficient.
	FormulaAverage Formula = "average"
)

// Place odds are estimated as odds*PlaceMultiplier + PlaceBase.
const (
	DefaultPlaceMultiplier = 0.25
	DefaultPlaceBase       = 1.1
)

// DefaultSumCoefficients is the coefficient table for FormulaSum
var DefaultSumCoefficients = map[models.BetType]float64{
	models.BetTypeQuinella: 2.5,
	models.BetTypeExacta:   4.0,
	models.BetTypeWide:     0.8,
	models.BetTypeTrio:     6.0,
	models.BetTypeTrifecta: 15.0,
}

// DefaultAverageCoefficients is the coefficient table for FormulaAverage
var DefaultAverageCoefficients = map[models.BetType]float64{
	models.BetTypeQuinella: 1.5,
	models.BetTypeExacta:   2.0,
	models.BetTypeWide:     1.2,
	models.BetTypeTrio:     5.0,
	models.BetTypeTrifecta: 10.0,
}

// EstimatorConfig holds the formula and coefficient table
type EstimatorConfig struct {
	Formula         Formula
	Coefficients    map[models.BetType]float64
	PlaceMultiplier float64
	PlaceBase       float64
}

// DefaultEstimatorConfig returns the sum formula with its standard coefficients
func DefaultEstimatorConfig() EstimatorConfig {
	return EstimatorConfig{
		Formula:         FormulaSum,
		Coefficients:    copyCoefficients(DefaultSumCoefficients),
		PlaceMultiplier: DefaultPlaceMultiplier,
		PlaceBase:       DefaultPlaceBase,
	}
}

// AverageEstimatorConfig returns the average formula with its standard coefficients
func AverageEstimatorConfig() EstimatorConfig {
	return EstimatorConfig{
		Formula:         FormulaAverage,
		Coefficients:    copyCoefficients(DefaultAverageCoefficients),
		PlaceMultiplier: DefaultPlaceMultiplier,
		PlaceBase:       DefaultPlaceBase,
	}
}

// Validate validates estimator config parameters
func (c EstimatorConfig) Validate() error {
	if c.Formula != FormulaSum && c.Formula != FormulaAverage {
		return fmt.Errorf("unknown estimator formula %q", c.Formula)
	}
	for _, bt := range models.AllBetTypes {
		if bt.Arity() < 2 {
			continue
		}
		coef, ok := c.Coefficients[bt]
		if !ok {
			return fmt.Errorf("missing coefficient for %s", bt)
		}
		if coef < 0 {
			return fmt.Errorf("coefficient for %s cannot be negative", bt)
		}
	}
	if c.PlaceMultiplier < 0 || c.PlaceBase < 0 {
		return fmt.Errorf("place multiplier and base cannot be negative")
	}
	return nil
}

// Estimator turns win odds into estimated ticket odds
type Estimator struct {
	config EstimatorConfig
}

// NewEstimator creates an estimator after validating its config
func NewEstimator(cfg EstimatorConfig) (*Estimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Coefficients = copyCoefficients(cfg.Coefficients)
	return &Estimator{config: cfg}, nil
}

// DefaultEstimator returns an estimator using DefaultEstimatorConfig
func DefaultEstimator() *Estimator {
	return &Estimator{config: DefaultEstimatorConfig()}
}

// Config returns a copy of the estimator configuration
func (e *Estimator) Config() EstimatorConfig {
	cfg := e.config
	cfg.Coefficients = copyCoefficients(cfg.Coefficients)
	return cfg
}

// EstimateOdds estimates combined odds for one ticket's horses, in the order given.
// Unknown or zero odds count as 0.
func (e *Estimator) EstimateOdds(betType models.BetType, horses []models.Horse) (float64, error) {
	if !betType.IsValid() {
		return 0, fmt.Errorf("%w: %q", models.ErrUnknownBetType, string(betType))
	}
	if len(horses) != betType.Arity() {
		return 0, fmt.Errorf("%w: %s needs %d horses, got %d", models.ErrArityMismatch, betType, betType.Arity(), len(horses))
	}

	var odds decimal.Decimal
	switch betType {
	case models.BetTypeWin:
		odds = oddsOf(horses[0])
	case models.BetTypePlace:
		odds = oddsOf(horses[0]).
			Mul(decimal.NewFromFloat(e.config.PlaceMultiplier)).
			Add(decimal.NewFromFloat(e.config.PlaceBase)).
			Round(1)
	default:
		odds = e.combine(horses).
			Mul(decimal.NewFromFloat(e.config.Coefficients[betType])).
			Round(1)
	}

	f, _ := odds.Float64()
	return f, nil
}

// EstimateTicket looks up the ticket's horses and estimates its odds
func (e *Estimator) EstimateTicket(ticket models.Ticket, index models.HorseIndex) (float64, error) {
	horses := make([]models.Horse, len(ticket.Numbers))
	for i, n := range ticket.Numbers {
		horses[i] = index.Lookup(n)
	}
	return e.EstimateOdds(ticket.BetType, horses)
}

func (e *Estimator) combine(horses []models.Horse) decimal.Decimal {
	sum := decimal.Zero
	for _, h := range horses {
		sum = sum.Add(oddsOf(h))
	}
	if e.config.Formula == FormulaAverage {
		return sum.Div(decimal.NewFromInt(int64(len(horses))))
	}
	return sum
}

// EstimateOdds estimates ticket odds with the default estimator
func EstimateOdds(betType models.BetType, horses []models.Horse) (float64, error) {
	return DefaultEstimator().EstimateOdds(betType, horses)
}

// Payout returns stake*odds rounded down to the nearest 10 currency units
func Payout(stake int64, odds float64) int64 {
	if stake <= 0 || odds <= 0 {
		return 0
	}
	ten := decimal.NewFromInt(10)
	return decimal.NewFromInt(stake).
		Mul(decimal.NewFromFloat(odds)).
		Div(ten).
		Floor().
		Mul(ten).
		IntPart()
}

func oddsOf(h models.Horse) decimal.Decimal {
	if !h.HasOdds() {
		return decimal.Zero
	}
	return decimal.NewFromFloat(h.Odds)
}

func copyCoefficients(in map[models.BetType]float64) map[models.BetType]float64 {
	out := make(map[models.BetType]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
