package reporting

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"wallet-analytics/internal/domain"
)

// WriteTaxCSV writes the report's rows with a header in TaxRowColumns order.
func WriteTaxCSV(w io.Writer, report *domain.TaxReport) error {
	if report == nil {
		return fmt.Errorf("reporting: nil tax report")
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(domain.TaxRowColumns); err != nil {
		return err
	}
	for _, r := range report.Rows {
		if err := cw.Write(taxRecord(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// RenderTaxCSV renders the report's rows as a CSV string.
func RenderTaxCSV(report *domain.TaxReport) (string, error) {
	var buf bytes.Buffer
	if err := WriteTaxCSV(&buf, report); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func taxRecord(r domain.TaxRow) []string {
	return []string{
		time.UnixMilli(r.Date).UTC().Format(time.RFC3339),
		r.ID,
		string(r.Type),
		r.Asset,
		r.Amount.String(),
		r.Price.StringFixed(6),
		r.ValueUSD.StringFixed(2),
		r.CostBasis.StringFixed(2),
		r.Proceeds.StringFixed(2),
		r.GainLoss.StringFixed(2),
		r.GainLossPct.StringFixed(2),
		strconv.FormatFloat(r.HoldingPeriodDays, 'f', 2, 64),
		strconv.FormatBool(r.LongTerm),
		r.GasUSD.StringFixed(6),
	}
}
