package httpapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/micaelgg/buutech/internal/domain"
	"github.com/micaelgg/buutech/internal/repository"
)

const exportSheet = "Temperatures"

// TemperatureExportHeader column order of the export
var TemperatureExportHeader = []string{
	"ID",
	"Sensor ID",
	"Sensor Tag",
	"Temperature",
	"Timestamp",
}

var exportColumnWidths = []float64{10, 12, 20, 14, 22}

// GenerateTemperatureExport renders readings as an xlsx workbook
func GenerateTemperatureExport(readings []domain.Reading) ([]byte, error) {
	f := excelize.NewFile()
	// not deferred: WriteTo needs the file open

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range TemperatureExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(exportSheet, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(exportSheet, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(exportSheet, name, name, exportColumnWidths[col]); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, rd := range readings {
		row := []any{rd.ID, rd.SensorID, rd.SensorTag, rd.Value, rd.Timestamp.Format(domain.TimestampLayout)}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(exportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Export GET /temperatures/export
func (h *TemperatureHandler) Export(w http.ResponseWriter, r *http.Request) {
	filter := repository.ReadingFilter{
		SensorTag: r.URL.Query().Get("sensor_tag"),
		Limit:     parseInt(r.URL.Query().Get("limit"), 0),
	}
	items, err := h.readings.ListReadings(r.Context(), filter)
	if err != nil {
		h.logger.Error("ListReadings failed for export", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(msgExportError, err))
		return
	}

	data, err := GenerateTemperatureExport(items)
	if err != nil {
		h.logger.Error("GenerateTemperatureExport failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(msgExportError, err))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=temperatures.xlsx")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
