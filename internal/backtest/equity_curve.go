package backtest

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// EquityPoint is the bankroll after one settled race
type EquityPoint struct {
	Step     int     `json:"step"`
	RaceID   string  `json:"race_id"`
	Value    int64   `json:"value"`
	Drawdown float64 `json:"drawdown"`
}

// EquityCurve represents the bankroll race by race
type EquityCurve []EquityPoint

// GetReturns calculates per-race returns from the equity curve
func (e EquityCurve) GetReturns() []float64 {
	if len(e) < 2 {
		return []float64{}
	}
	returns := make([]float64, 0, len(e)-1)
	for i := 1; i < len(e); i++ {
		prev := e[i-1].Value
		curr := e[i].Value
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, float64(curr-prev)/float64(prev))
	}
	return returns
}

// MaxDrawdown returns the largest peak-to-trough fall as a fraction of the peak
func (e EquityCurve) MaxDrawdown() float64 {
	maxDD := 0.0
	var peak int64
	for _, p := range e {
		if p.Value > peak {
			peak = p.Value
		}
		if peak == 0 {
			continue
		}
		drawdown := float64(peak-p.Value) / float64(peak)
		if drawdown > maxDD {
			maxDD = drawdown
		}
	}
	return maxDD
}

// ToCSV exports equity curve to CSV string
func (e EquityCurve) ToCSV() string {
	var buf bytes.Buffer
	buf.WriteString("step,race_id,value,drawdown\n")
	for _, point := range e {
		buf.WriteString(strconv.Itoa(point.Step))
		buf.WriteString(",")
		buf.WriteString(point.RaceID)
		buf.WriteString(",")
		buf.WriteString(strconv.FormatInt(point.Value, 10))
		buf.WriteString(",")
		buf.WriteString(strconv.FormatFloat(point.Drawdown, 'f', 6, 64))
		buf.WriteString("\n")
	}
	return buf.String()
}

// ToJSON exports equity curve to JSON string
func (e EquityCurve) ToJSON() string {
	data, _ := json.Marshal(e)
	return string(data)
}
