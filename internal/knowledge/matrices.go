package knowledge

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/totalquality/qassist/internal/models"
)

// ReadMatricesXLSX reads program matrices from the first sheet of a rate sheet workbook.
// The first row holds field names (programName, occupancy, creditScoreMin, ...); list
// columns (propertyTypes, eligibleStates) are comma separated. Blank rows are skipped.
func ReadMatricesXLSX(path string) ([]models.ProgramMatrix, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rate sheet: %w", err)
	}
	return ParseMatricesXLSX(content)
}

// ParseMatricesXLSX is ReadMatricesXLSX over in-memory workbook bytes.
func ParseMatricesXLSX(content []byte) ([]models.ProgramMatrix, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("rate sheet has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("rate sheet %q is empty", sheets[0])
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	var out []models.ProgramMatrix
	for r, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		var m models.ProgramMatrix
		for i, cell := range row {
			if i >= len(header) {
				break
			}
			if err := setMatrixField(&m, header[i], strings.TrimSpace(cell)); err != nil {
				return nil, fmt.Errorf("row %d: %w", r+2, err)
			}
		}
		if m.ProgramName == "" {
			return nil, fmt.Errorf("row %d: programName is required", r+2)
		}
		out = append(out, m)
	}
	return out, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func setMatrixField(m *models.ProgramMatrix, field, value string) error {
	if value == "" {
		return nil
	}
	num := func() (float64, error) {
		v, err := strconv.ParseFloat(strings.NewReplacer("$", "", ",", "", "%", "").Replace(value), 64)
		if err != nil {
			return 0, fmt.Errorf("%s: %q is not a number", field, value)
		}
		return v, nil
	}
	var err error
	var v float64
	switch field {
	case "programName":
		m.ProgramName = value
	case "occupancy":
		m.Occupancy = value
	case "incomeDocType":
		m.IncomeDocType = value
	case "reserves":
		m.Reserves = value
	case "propertyTypes":
		m.PropertyTypes = splitList(value)
	case "eligibleStates":
		m.EligibleStates = splitList(value)
	case "creditScoreMin":
		if v, err = num(); err == nil {
			m.CreditScoreMin = int(v)
		}
	case "loanAmountMin":
		m.LoanAmountMin, err = num()
	case "loanAmountMax":
		m.LoanAmountMax, err = num()
	case "ltvPurchase":
		m.LTVPurchase, err = num()
	case "ltvRateTerm":
		m.LTVRateTerm, err = num()
	case "ltvCashOut":
		m.LTVCashOut, err = num()
	case "dscrMin":
		if v, err = num(); err == nil {
			m.DSCRMin = &v
		}
	case "dtiMax":
		if v, err = num(); err == nil {
			m.DTIMax = &v
		}
	}
	return err
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
