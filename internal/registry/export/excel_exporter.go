package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExcelExporter writes registry rows as an XLSX workbook
type ExcelExporter struct {
	file    *excelize.File
	options ExcelOptions
}

// ExcelOptions configures Excel export behavior
type ExcelOptions struct {
	SheetName     string            `json:"sheet_name"`
	IncludeHeader bool              `json:"include_header"`
	FreezeHeader  bool              `json:"freeze_header"`
	AutoFilter    bool              `json:"auto_filter"`
	AutoWidth     bool              `json:"auto_width"`
	HeaderStyle   *ExcelStyleConfig `json:"header_style,omitempty"`
	DataStyle     *ExcelStyleConfig `json:"data_style,omitempty"`
}

// ExcelStyleConfig defines style for cells
type ExcelStyleConfig struct {
	FontBold  bool   `json:"font_bold"`
	FontSize  int    `json:"font_size"`
	FontColor string `json:"font_color"`
	FillColor string `json:"fill_color"`
	Alignment string `json:"alignment"`
	Border    bool   `json:"border"`
}

// DefaultExcelOptions returns default Excel export options
func DefaultExcelOptions() ExcelOptions {
	return ExcelOptions{
		SheetName:     "Verified Registry",
		IncludeHeader: true,
		FreezeHeader:  true,
		AutoFilter:    true,
		AutoWidth:     true,
		HeaderStyle: &ExcelStyleConfig{
			FontBold:  true,
			FontSize:  11,
			FillColor: "4F46E5",
			FontColor: "FFFFFF",
			Alignment: "center",
			Border:    true,
		},
		DataStyle: &ExcelStyleConfig{
			FontSize:  11,
			Alignment: "left",
			Border:    true,
		},
	}
}

// NewExcelExporter creates a new Excel exporter
func NewExcelExporter(options ExcelOptions) *ExcelExporter {
	file := excelize.NewFile()
	file.SetSheetName("Sheet1", options.SheetName)

	return &ExcelExporter{
		file:    file,
		options: options,
	}
}

// WriteHeader writes the header row with styling
func (e *ExcelExporter) WriteHeader(columns []string) error {
	if !e.options.IncludeHeader {
		return nil
	}

	sheetName := e.options.SheetName

	headerStyleID := 0
	if e.options.HeaderStyle != nil {
		style, err := e.createStyle(e.options.HeaderStyle)
		if err != nil {
			return fmt.Errorf("failed to create header style: %w", err)
		}
		headerStyleID = style
	}

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		e.file.SetCellValue(sheetName, cell, col)

		if headerStyleID > 0 {
			e.file.SetCellStyle(sheetName, cell, cell, headerStyleID)
		}
	}

	if e.options.FreezeHeader {
		e.file.SetPanes(sheetName, &excelize.Panes{
			Freeze:      true,
			Split:       false,
			XSplit:      0,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		})
	}

	return nil
}

// WriteRows writes data rows keyed by column name
func (e *ExcelExporter) WriteRows(rows []map[string]interface{}, columns []string) error {
	sheetName := e.options.SheetName
	startRow := 1
	if e.options.IncludeHeader {
		startRow = 2
	}

	dataStyleID := 0
	if e.options.DataStyle != nil {
		style, err := e.createStyle(e.options.DataStyle)
		if err != nil {
			return fmt.Errorf("failed to create data style: %w", err)
		}
		dataStyleID = style
	}

	columnWidths := make(map[int]float64)

	for rowIdx, row := range rows {
		rowNum := startRow + rowIdx

		for colIdx, colName := range columns {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowNum)
			val := row[colName]

			if err := e.setCellValue(sheetName, cell, val); err != nil {
				return fmt.Errorf("failed to set cell value: %w", err)
			}

			if dataStyleID > 0 {
				e.file.SetCellStyle(sheetName, cell, cell, dataStyleID)
			}

			if e.options.AutoWidth {
				width := e.estimateCellWidth(val)
				if width > columnWidths[colIdx] {
					columnWidths[colIdx] = width
				}
			}
		}
	}

	if e.options.AutoFilter && e.options.IncludeHeader && len(rows) > 0 {
		lastCol, _ := excelize.CoordinatesToCellName(len(columns), 1)
		e.file.AutoFilter(sheetName, "A1:"+lastCol, nil)
	}

	if e.options.AutoWidth {
		for colIdx, width := range columnWidths {
			colName, _ := excelize.ColumnNumberToName(colIdx + 1)
			if width < 10 {
				width = 10
			}
			if width > 50 {
				width = 50
			}
			e.file.SetColWidth(sheetName, colName, colName, width)
		}
	}

	return nil
}

// WriteTo writes the workbook to a writer
func (e *ExcelExporter) WriteTo(w io.Writer) error {
	return e.file.Write(w)
}

// Close closes the underlying workbook
func (e *ExcelExporter) Close() error {
	return e.file.Close()
}

// createStyle creates an Excel style from config
func (e *ExcelExporter) createStyle(config *ExcelStyleConfig) (int, error) {
	style := &excelize.Style{}

	style.Font = &excelize.Font{
		Bold: config.FontBold,
		Size: float64(config.FontSize),
	}
	if config.FontColor != "" {
		style.Font.Color = config.FontColor
	}

	if config.FillColor != "" {
		style.Fill = excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{config.FillColor},
		}
	}

	if config.Alignment != "" {
		style.Alignment = &excelize.Alignment{}
		switch config.Alignment {
		case "left":
			style.Alignment.Horizontal = "left"
		case "center":
			style.Alignment.Horizontal = "center"
		case "right":
			style.Alignment.Horizontal = "right"
		}
	}

	if config.Border {
		style.Border = []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		}
	}

	return e.file.NewStyle(style)
}

// setCellValue sets a cell value with appropriate formatting
func (e *ExcelExporter) setCellValue(sheet, cell string, val interface{}) error {
	if val == nil {
		return e.file.SetCellValue(sheet, cell, "")
	}

	switch v := val.(type) {
	case time.Time:
		if v.IsZero() {
			return e.file.SetCellValue(sheet, cell, "")
		}
		e.file.SetCellValue(sheet, cell, v)
		style, _ := e.file.NewStyle(&excelize.Style{
			NumFmt: 22, // m/d/yy h:mm
		})
		e.file.SetCellStyle(sheet, cell, cell, style)
	case *time.Time:
		if v == nil || v.IsZero() {
			return e.file.SetCellValue(sheet, cell, "")
		}
		e.file.SetCellValue(sheet, cell, *v)
		style, _ := e.file.NewStyle(&excelize.Style{
			NumFmt: 22,
		})
		e.file.SetCellStyle(sheet, cell, cell, style)
	default:
		return e.file.SetCellValue(sheet, cell, v)
	}

	return nil
}

// estimateCellWidth estimates the display width of a cell value
func (e *ExcelExporter) estimateCellWidth(val interface{}) float64 {
	if val == nil {
		return 0
	}

	str := fmt.Sprintf("%v", val)
	return float64(len(str)) * 1.2
}
