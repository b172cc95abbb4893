// Package report renders forecast results as JSON, CSV or a text table.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"budgetcast/internal/core"
	"budgetcast/internal/forecast"
)

type Format string

const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatTable, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q: must be json, table or csv", s)
	}
}

type Point struct {
	Date         string `json:"date"`
	BalanceCents int64  `json:"balance_cents"`
	Balance      string `json:"balance"`
}

type Series struct {
	Name   string  `json:"name"`
	Type   string  `json:"type,omitempty"`
	Points []Point `json:"points"`
}

type Event struct {
	Kind                string `json:"kind"`
	Date                string `json:"date"`
	Account             string `json:"account"`
	BalanceCents        int64  `json:"balance_cents"`
	UtilizationPerMille int64  `json:"utilization_permille,omitempty"`
	Message             string `json:"message"`
	Warning             bool   `json:"warning"`
}

type AccountBalance struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	BalanceCents int64  `json:"balance_cents"`
}

type Summary struct {
	FinalTotalCents int64            `json:"final_total_cents"`
	MinTotalCents   int64            `json:"min_total_cents"`
	MinTotalDate    string           `json:"min_total_date,omitempty"`
	Accounts        []AccountBalance `json:"accounts"`
	Warnings        int              `json:"warnings"`
}

// Forecast is the JSON form of one forecast run.
type Forecast struct {
	RunID       string   `json:"run_id"`
	Start       string   `json:"start"`
	HorizonDays int      `json:"horizon_days"`
	Accounts    []Series `json:"accounts"`
	Total       Series   `json:"total"`
	Events      []Event  `json:"events"`
	Summary     Summary  `json:"summary"`
}

func FromResult(r *forecast.Result) Forecast {
	out := Forecast{
		RunID:       r.RunID,
		Start:       r.Start.String(),
		HorizonDays: r.Horizon,
		Accounts:    make([]Series, len(r.Accounts)),
		Total:       fromSeries(r.Total),
		Events:      make([]Event, len(r.Events)),
	}
	for i, s := range r.Accounts {
		out.Accounts[i] = fromSeries(s)
	}
	for i, e := range r.Events {
		out.Events[i] = Event{
			Kind:                string(e.Kind),
			Date:                e.Date.String(),
			Account:             e.Account,
			BalanceCents:        e.Balance.Cents,
			UtilizationPerMille: e.Utilization,
			Message:             e.Message,
			Warning:             e.Warning(),
		}
	}

	sum := r.Summary()
	out.Summary = Summary{
		FinalTotalCents: sum.FinalTotal.Cents,
		MinTotalCents:   sum.MinTotal.Cents,
		Accounts:        make([]AccountBalance, len(sum.Final)),
		Warnings:        sum.Warnings,
	}
	if !sum.MinDate.IsZero() {
		out.Summary.MinTotalDate = sum.MinDate.String()
	}
	for i, a := range sum.Final {
		out.Summary.Accounts[i] = AccountBalance{Name: a.Name, Type: string(a.Type), BalanceCents: a.Balance.Cents}
	}
	return out
}

func fromSeries(s forecast.Series) Series {
	out := Series{Name: s.Name, Type: string(s.Type), Points: make([]Point, len(s.Points))}
	for i, p := range s.Points {
		out.Points[i] = Point{Date: p.Date.String(), BalanceCents: p.Balance.Cents, Balance: p.Balance.String()}
	}
	return out
}

// Write renders results in format.
func Write(w io.Writer, format Format, results []*forecast.Result) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, results)
	case FormatCSV:
		for _, r := range results {
			if err := WriteCSV(w, r); err != nil {
				return err
			}
		}
		return nil
	case FormatTable:
		for i, r := range results {
			if i > 0 {
				fmt.Fprintln(w)
			}
			if err := WriteTable(w, r); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// WriteJSON writes {"forecasts": [...]}.
func WriteJSON(w io.Writer, results []*forecast.Result) error {
	body := struct {
		Forecasts []Forecast `json:"forecasts"`
	}{Forecasts: make([]Forecast, len(results))}
	for i, r := range results {
		body.Forecasts[i] = FromResult(r)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(body)
}

// WriteCSV writes one row per day: date, each account balance, total.
// Amounts are decimal dollars.
func WriteCSV(w io.Writer, r *forecast.Result) error {
	cw := csv.NewWriter(w)
	header := []string{"date"}
	for _, s := range r.Accounts {
		header = append(header, s.Name)
	}
	header = append(header, forecast.TotalSeriesName)
	if err := cw.Write(header); err != nil {
		return err
	}
	for day, p := range r.Total.Points {
		row := []string{p.Date.String()}
		for _, s := range r.Accounts {
			row = append(row, decimal(s.Points[day].Balance))
		}
		row = append(row, decimal(p.Balance))
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTable writes a human readable table followed by events and a summary.
func WriteTable(w io.Writer, r *forecast.Result) error {
	fmt.Fprintf(w, "Forecast %s: %d days from %s\n\n", r.RunID, r.Horizon, r.Start)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "Date\t")
	for _, s := range r.Accounts {
		fmt.Fprintf(tw, "%s\t", s.Name)
	}
	fmt.Fprint(tw, "Total\t\n")
	for day, p := range r.Total.Points {
		fmt.Fprintf(tw, "%s\t", p.Date)
		for _, s := range r.Accounts {
			fmt.Fprintf(tw, "%s\t", Amount(s.Points[day].Balance))
		}
		fmt.Fprintf(tw, "%s\t\n", Amount(p.Balance))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.Events) > 0 {
		fmt.Fprintf(w, "\nEvents (%d):\n", len(r.Events))
		for _, e := range r.Events {
			fmt.Fprintf(w, "  %s  %-18s %s\n", e.Date, e.Kind, e.Message)
		}
	}

	sum := r.Summary()
	fmt.Fprintf(w, "\nFinal total %s, lowest %s", Amount(sum.FinalTotal), Amount(sum.MinTotal))
	if !sum.MinDate.IsZero() {
		fmt.Fprintf(w, " on %s", sum.MinDate)
	}
	fmt.Fprintf(w, ", %d warnings\n", sum.Warnings)
	return nil
}

// Amount formats money with thousands separators, e.g. "-$1,234.50".
func Amount(m core.Money) string {
	c := m.Cents
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s$%s.%02d", sign, humanize.Comma(c/100), c%100)
}

func decimal(m core.Money) string {
	return strconv.FormatFloat(m.Dollars(), 'f', 2, 64)
}
