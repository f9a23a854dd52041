package outwriter

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/huangsam/finbench/schema"
)

// writeCSVRunRecords writes the per-series records of a run.
func writeCSVRunRecords(w io.Writer, records []schema.ErrorRecord, fmtCSV func(float64) string) error {
	header := []string{"dataset", "model", "unique_id", "mase", "status", "horizon"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range records {
			row := []string{
				r.Dataset,
				r.Model,
				r.UniqueID,
				fmtCSV(r.MASE),
				string(r.Status),
				strconv.Itoa(r.Horizon),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}
