package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/Meet7773/ChronoStox/internal/model"
)

// ExportHeader is the column order of the trade log export.
var ExportHeader = []string{"datetime", "ticker", "action", "quantity", "price", "value", "scenario"}

const exportTimeLayout = "2006-01-02 15:04:05"

// TradeRow is one exported trade.
type TradeRow struct {
	Datetime string `json:"datetime"`
	Ticker   string `json:"ticker"`
	Action   string `json:"action"`
	Quantity int64  `json:"quantity"`
	Price    string `json:"price"`
	Value    string `json:"value"`
	Scenario string `json:"scenario"`
}

func (r TradeRow) record() []string {
	return []string{r.Datetime, r.Ticker, r.Action, strconv.FormatInt(r.Quantity, 10), r.Price, r.Value, r.Scenario}
}

// ExportRows renders trades most recent first. Prices round to 4 places,
// values to 2, and a missing scenario shows as "-".
func ExportRows(trades []model.Trade) []TradeRow {
	rows := make([]TradeRow, 0, len(trades))
	for i := len(trades) - 1; i >= 0; i-- {
		t := trades[i]
		scenario := t.Scenario
		if scenario == "" {
			scenario = "-"
		}
		rows = append(rows, TradeRow{
			Datetime: t.Timestamp.Format(exportTimeLayout),
			Ticker:   t.Ticker,
			Action:   string(t.Side),
			Quantity: t.Quantity,
			Price:    t.Price.Round(4).String(),
			Value:    t.Value.Round(2).String(),
			Scenario: scenario,
		})
	}
	return rows
}

// WriteCSV writes the export with a header row.
func WriteCSV(w io.Writer, trades []model.Trade) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range ExportRows(trades) {
		if err := cw.Write(r.record()); err != nil {
			return fmt.Errorf("write trade row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
