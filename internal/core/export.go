package core

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/jszwec/csvutil"
)

// productRow is the fixed product catalog export layout.
type productRow struct {
	Retailer           string `csv:"RETAILER"`
	ApprovalStatus     string `csv:"APPROVAL STATUS"`
	ApplicableProducts string `csv:"APPLICABLE PRODUCTS"`
}

// ExportCSV writes a dataset as CSV with a header row. The product catalog
// is written in its fixed layout. Other datasets use their current columns
// followed by any field that only later records carry, so no value is lost
// and the output can be uploaded again unchanged.
func (s *Service) ExportCSV(w io.Writer, key DatasetKey) (int, error) {
	store, err := s.Store(key)
	if err != nil {
		return 0, err
	}
	records := store.List()

	if key == DatasetProduct {
		return len(records), writeProductCSV(w, records)
	}
	return len(records), writeColumnsCSV(w, exportColumns(store.Columns(), records), records)
}

// exportColumns extends columns with the field names of records in first
// seen order.
func exportColumns(columns []string, records []Record) []string {
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		seen[c] = true
	}
	for _, r := range records {
		for _, n := range r.Fields.Names() {
			if n == "" || seen[n] {
				continue
			}
			seen[n] = true
			columns = append(columns, n)
		}
	}
	return columns
}

func writeProductCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if len(records) == 0 {
		if err := enc.EncodeHeader(productRow{}); err != nil {
			return fmt.Errorf("export header: %w", err)
		}
	}
	for _, r := range records {
		row := productRow{
			Retailer:           r.Fields.String(FieldRetailer),
			ApprovalStatus:     r.Fields.String(FieldApprovalStatus),
			ApplicableProducts: r.Fields.String(FieldApplicableProducts),
		}
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("export %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeColumnsCSV(w io.Writer, columns []string, records []Record) error {
	cw := csv.NewWriter(w)
	if len(columns) == 0 {
		cw.Flush()
		return cw.Error()
	}
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("export header: %w", err)
	}
	row := make([]string, len(columns))
	for _, r := range records {
		for i, c := range columns {
			row[i] = r.Fields.String(c)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
