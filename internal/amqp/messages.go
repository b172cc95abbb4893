package amqp

import (
	"encoding/json"
	"time"

	"budgetcast/internal/core"
	"budgetcast/internal/forecast"
)

// ForecastMessage announces a completed forecast run. Amounts are in cents
// and dates use core.DateLayout.
type ForecastMessage struct {
	RunID           string           `json:"run_id"`
	StartDate       string           `json:"start_date"`
	HorizonDays     int              `json:"horizon_days"`
	FinalTotalCents int64            `json:"final_total_cents"`
	MinTotalCents   int64            `json:"min_total_cents"`
	MinTotalDate    string           `json:"min_total_date,omitempty"`
	Accounts        []AccountBalance `json:"accounts"`
	Warnings        int              `json:"warnings"`
	Timestamp       time.Time        `json:"timestamp"`
}

type AccountBalance struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	BalanceCents int64  `json:"balance_cents"`
}

// NewForecastMessage builds a message from a run summary.
func NewForecastMessage(s forecast.Summary) *ForecastMessage {
	msg := &ForecastMessage{
		RunID:           s.RunID,
		StartDate:       s.Start.String(),
		HorizonDays:     s.Horizon,
		FinalTotalCents: s.FinalTotal.Cents,
		MinTotalCents:   s.MinTotal.Cents,
		Accounts:        make([]AccountBalance, 0, len(s.Final)),
		Warnings:        s.Warnings,
		Timestamp:       time.Now(),
	}
	if !s.MinDate.IsZero() {
		msg.MinTotalDate = s.MinDate.String()
	}
	for _, a := range s.Final {
		msg.Accounts = append(msg.Accounts, AccountBalance{
			Name:         a.Name,
			Type:         string(a.Type),
			BalanceCents: a.Balance.Cents,
		})
	}
	return msg
}

// Start parses StartDate.
func (m *ForecastMessage) Start() (core.Date, error) {
	t, err := time.Parse(core.DateLayout, m.StartDate)
	if err != nil {
		return core.Date{}, err
	}
	return core.DateOf(t), nil
}

// ToJSON converts the message to JSON bytes
func (m *ForecastMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ForecastMessageFromJSON creates a message from JSON bytes
func ForecastMessageFromJSON(data []byte) (*ForecastMessage, error) {
	var msg ForecastMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
