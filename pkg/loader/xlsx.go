package loader

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// maxExcelSerial is 9999-12-31 as an Excel serial date.
const maxExcelSerial = 2958465

func readXLSX(path, sheet string) ([]record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	// Raw values keep dates as serial numbers instead of locale-formatted strings.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	out := make([]record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := rowRecord(header, row)
		for _, k := range append(append([]string{}, dateKeys...), writtenKeys...) {
			if v, ok := rec[k]; ok {
				rec[k] = excelDate(v)
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// excelDate rewrites an Excel serial date as YYYY-MM-DD. Other values pass through.
func excelDate(v string) string {
	serial, err := strconv.ParseFloat(v, 64)
	if err != nil || serial <= 0 || serial > maxExcelSerial {
		return v
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return v
	}
	return t.Format("2006-01-02")
}
