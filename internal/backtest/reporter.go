package backtest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Report formats
const (
	ReportConsole = "console"
	ReportCSV     = "csv"
	ReportHTML    = "html"
	ReportJSON    = "json"
)

// GenerateConsoleReport formats metrics for terminal output
func GenerateConsoleReport(result AggregatedResult) string {
	m := result.HistoricalReplayMetrics
	var builder strings.Builder
	builder.WriteString("Backtest Report\n")
	builder.WriteString("================\n")
	builder.WriteString(fmt.Sprintf("Strategy: %s\n", result.Strategy))
	builder.WriteString(fmt.Sprintf("Races: %d (skipped %d)\n", m.Races, m.SkippedRaces))
	builder.WriteString(fmt.Sprintf("Tickets: %d, Hits: %d (%.1f%%)\n", m.Tickets, m.Hits, m.HitRate*100))
	builder.WriteString(fmt.Sprintf("Stake: %d, Payout: %d, Net: %+d\n", m.TotalStake, m.TotalPayout, m.NetProfit))
	builder.WriteString(fmt.Sprintf("Return Rate: %.2f%%\n", m.ReturnRate))
	builder.WriteString(fmt.Sprintf("Bankroll: %d -> %d\n", m.InitialBankroll, m.FinalBankroll))
	builder.WriteString(fmt.Sprintf("Max Drawdown: %.2f%%\n", m.MaxDrawdown*100))
	builder.WriteString(fmt.Sprintf("Profit Factor: %.2f\n", m.ProfitFactor))
	builder.WriteString(fmt.Sprintf("Largest Payout: %d\n", m.LargestPayout))
	builder.WriteString(fmt.Sprintf("Longest Losing Streak: %d\n", m.LongestLosingStreak))
	builder.WriteString(fmt.Sprintf("P(profit): %.1f%%, P(ruin): %.1f%%\n",
		result.MonteCarloResult.ProbabilityOfProfit*100, result.MonteCarloResult.ProbabilityOfRuin*100))
	builder.WriteString(fmt.Sprintf("Composite Score: %.2f\n", result.CompositeScore))
	builder.WriteString(fmt.Sprintf("Recommendation: %s\n", result.Recommendation))
	return builder.String()
}

var htmlReport = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Backtest Report</title></head>
<body>
<h1>Backtest Report: {{.Strategy}}</h1>
{{with .HistoricalReplayMetrics}}
<p><strong>Races:</strong> {{.Races}} (skipped {{.SkippedRaces}})</p>
<p><strong>Tickets:</strong> {{.Tickets}} / <strong>Hits:</strong> {{.Hits}}</p>
<p><strong>Stake:</strong> {{.TotalStake}} / <strong>Payout:</strong> {{.TotalPayout}} / <strong>Net:</strong> {{.NetProfit}}</p>
<p><strong>Return Rate:</strong> {{printf "%.2f" .ReturnRate}}%</p>
<p><strong>Max Drawdown:</strong> {{printf "%.4f" .MaxDrawdown}}</p>
<p><strong>Profit Factor:</strong> {{printf "%.2f" .ProfitFactor}}</p>
{{end}}
<p><strong>Composite Score:</strong> {{printf "%.2f" .CompositeScore}}</p>
<p><strong>Recommendation:</strong> {{.Recommendation}}</p>
<table>
<tr><th>Race</th><th>Date</th><th>Venue</th><th>Tickets</th><th>Hits</th><th>Stake</th><th>Payout</th><th>Bankroll</th></tr>
{{range .Outcomes}}<tr><td>{{.RaceID}}</td><td>{{.Date}}</td><td>{{.Venue}}</td><td>{{.Tickets}}</td><td>{{.Hits}}</td><td>{{.Stake}}</td><td>{{.Payout}}</td><td>{{.Bankroll}}</td></tr>
{{end}}</table>
</body>
</html>
`))

// GenerateHTMLReport writes an HTML report with one row per settled race
func GenerateHTMLReport(result AggregatedResult, w io.Writer) error {
	return htmlReport.Execute(w, result)
}

// GenerateCSVExport writes the summary metrics followed by per-race rows
func GenerateCSVExport(result AggregatedResult, w io.Writer) error {
	m := result.HistoricalReplayMetrics
	cw := csv.NewWriter(w)
	rows := [][]string{
		{"metric", "value"},
		{"strategy", result.Strategy},
		{"races", strconv.Itoa(m.Races)},
		{"skipped_races", strconv.Itoa(m.SkippedRaces)},
		{"tickets", strconv.Itoa(m.Tickets)},
		{"hits", strconv.Itoa(m.Hits)},
		{"total_stake", strconv.FormatInt(m.TotalStake, 10)},
		{"total_payout", strconv.FormatInt(m.TotalPayout, 10)},
		{"net_profit", strconv.FormatInt(m.NetProfit, 10)},
		{"return_rate", strconv.FormatFloat(m.ReturnRate, 'f', 4, 64)},
		{"max_drawdown", strconv.FormatFloat(m.MaxDrawdown, 'f', 4, 64)},
		{"profit_factor", strconv.FormatFloat(m.ProfitFactor, 'f', 4, 64)},
		{"composite_score", strconv.FormatFloat(result.CompositeScore, 'f', 4, 64)},
		{"recommendation", result.Recommendation},
		{},
		{"race_id", "date", "venue", "tickets", "hits", "stake", "payout", "bankroll"},
	}
	for _, o := range result.Outcomes {
		rows = append(rows, []string{
			o.RaceID, o.Date, o.Venue,
			strconv.Itoa(o.Tickets), strconv.Itoa(o.Hits),
			strconv.FormatInt(o.Stake, 10), strconv.FormatInt(o.Payout, 10), strconv.FormatInt(o.Bankroll, 10),
		})
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteReport renders result in format. Console reports go to w; the others
// are written to outputPath, or to w when outputPath is empty.
func WriteReport(result AggregatedResult, format, outputPath string, w io.Writer) error {
	if format == "" || format == ReportConsole {
		_, err := io.WriteString(w, GenerateConsoleReport(result))
		return err
	}

	out := w
	if outputPath != "" {
		if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
			return err
		}
		f, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	switch format {
	case ReportCSV:
		return GenerateCSVExport(result, out)
	case ReportHTML:
		return GenerateHTMLReport(result, out)
	case ReportJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}
