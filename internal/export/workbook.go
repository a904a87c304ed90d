package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

type SheetSpec struct {
	Title  string
	Header []string
	Rows   [][]string
}

type Workbook struct {
	File *excelize.File
}

// NewWorkbook собирает книгу по листам; первый лист заменяет стандартный Sheet1.
// При ошибке файл закрывается.
func NewWorkbook(sheets []SheetSpec) (*Workbook, error) {
	f := excelize.NewFile()
	for i, s := range sheets {
		if err := fillSheet(f, s, i == 0); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return &Workbook{File: f}, nil
}

func fillSheet(f *excelize.File, s SheetSpec, first bool) error {
	name := s.Title
	if first {
		if err := f.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
	} else if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("new sheet: %w", err)
	}

	for col, h := range s.Header {
		cell := fmt.Sprintf("%s1", columName(col+1))
		if err := f.SetCellStr(name, cell, h); err != nil {
			return fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	for r, row := range s.Rows {
		for c, val := range row {
			cell := fmt.Sprintf("%s%d", columName(c+1), r+2)
			if err := f.SetCellStr(name, cell, val); err != nil {
				return fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}
	if err := ApplyDefaultExcelFormatting(f, name); err != nil {
		return fmt.Errorf("format %s: %w", name, err)
	}
	return nil
}

func (w *Workbook) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := w.File.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
