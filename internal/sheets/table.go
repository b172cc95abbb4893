package sheets

import (
	"errors"
	"fmt"
	"strings"

	"budgetcast/internal/core"
)

var ErrMissingColumn = errors.New("missing column")

// header maps column names to positions, ignoring case and surrounding space.
type header map[string]int

func newHeader(row []string, required ...string) (header, error) {
	h := make(header, len(row))
	for i, name := range row {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, dup := h[key]; !dup {
			h[key] = i
		}
	}
	var missing []string
	for _, name := range required {
		if _, ok := h[strings.ToLower(name)]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return h, nil
}

func (h header) get(row []string, name string) string {
	idx, ok := h[strings.ToLower(name)]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ParseAccountRows turns a header row followed by data rows into account
// records. Credit-only columns may be absent.
func ParseAccountRows(rows [][]string) ([]core.AccountRecord, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	h, err := newHeader(rows[0], ColAccountName, ColBalance, ColType)
	if err != nil {
		return nil, fmt.Errorf("account sheet: %w", err)
	}
	var out []core.AccountRecord
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		out = append(out, core.AccountRecord{
			AccountName:  h.get(row, ColAccountName),
			Balance:      h.get(row, ColBalance),
			Type:         h.get(row, ColType),
			PayoffDay:    h.get(row, ColPayoffDay),
			PayoffSource: h.get(row, ColPayoffSource),
			CreditLimit:  h.get(row, ColCreditLimit),
		})
	}
	return out, nil
}

// ParseTransactionRows turns a header row followed by data rows into
// transaction records. The Until column may be absent.
func ParseTransactionRows(rows [][]string) ([]core.TransactionRecord, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	h, err := newHeader(rows[0], ColDescription, ColOccurrence, ColAmount, ColType, ColSampleDate, ColSource)
	if err != nil {
		return nil, fmt.Errorf("budget sheet: %w", err)
	}
	var out []core.TransactionRecord
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		out = append(out, core.TransactionRecord{
			Description: h.get(row, ColDescription),
			Occurrence:  h.get(row, ColOccurrence),
			Amount:      h.get(row, ColAmount),
			Type:        h.get(row, ColType),
			SampleDate:  h.get(row, ColSampleDate),
			Source:      h.get(row, ColSource),
			Until:       h.get(row, ColUntil),
		})
	}
	return out, nil
}
