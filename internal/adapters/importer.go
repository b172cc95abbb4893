// Package adapters moves records between backends.
package adapters

import (
	"context"
	"fmt"

	"budgetcast/internal/core"
	"budgetcast/internal/forecast"
	"budgetcast/internal/log"
	"budgetcast/internal/sheets"
)

// RecordWriter replaces every stored record. *storage.SQLiteRepository
// satisfies it.
type RecordWriter interface {
	ReplaceRecords(ctx context.Context, records core.Records) error
}

// Importer copies records from one backend into another, for example a CSV
// export or spreadsheet into the local SQLite database.
type Importer struct {
	src    sheets.RecordReader
	dst    RecordWriter
	logger *log.Logger
}

func NewImporter(src sheets.RecordReader, dst RecordWriter, logger *log.Logger) *Importer {
	if logger == nil {
		logger = log.Discard()
	}
	return &Importer{src: src, dst: dst, logger: logger.WithComponent(log.ComponentRecords)}
}

// Import reads every record from the source, checks that they form a valid
// forecast state and writes them to the destination. Nothing is written when
// validation fails.
func (i *Importer) Import(ctx context.Context) (core.Records, error) {
	records, err := sheets.Load(ctx, i.src)
	if err != nil {
		return core.Records{}, err
	}
	if _, err := forecast.NewState(records); err != nil {
		return core.Records{}, fmt.Errorf("refusing to import: %w", err)
	}
	if err := i.dst.ReplaceRecords(ctx, records); err != nil {
		return core.Records{}, fmt.Errorf("write records: %w", err)
	}
	i.logger.InfoContext(ctx, "Records imported",
		"accounts", len(records.Accounts),
		"transactions", len(records.Transactions))
	return records, nil
}
