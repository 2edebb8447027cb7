package export

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ImageUnavailable is written to the image cell when a photo cannot be embedded.
const ImageUnavailable = "image unavailable"

const (
	defaultImageScale = 0.15
	imageRowHeight    = 90
)

// XLSXWriter builds spreadsheets with the row photos embedded next to the data.
type XLSXWriter struct {
	Fetcher Fetcher
	// Scale is applied to both axes of every picture.
	Scale   float64
	OffsetX int
	OffsetY int
	Logger  *zap.Logger
}

// Report summarises image embedding for one export.
type Report struct {
	Rows     int
	Embedded int
	Failed   int
}

// Write renders table to w. A photo that fails to download or decode never
// drops its row: the image cell is marked ImageUnavailable and the export goes on.
func (x *XLSXWriter) Write(ctx context.Context, w io.Writer, table Table) (Report, error) {
	logger := x.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	scale := x.Scale
	if scale <= 0 {
		scale = defaultImageScale
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := table.Sheet
	if sheet == "" {
		sheet = "Sheet1"
	}
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return Report{}, fmt.Errorf("failed to name sheet: %w", err)
		}
	}

	boldStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return Report{}, fmt.Errorf("failed to create header style: %w", err)
	}

	headers := append(append([]string{}, table.Headers...), "image")
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	f.SetCellStyle(sheet, "A1", lastCol+"1", boldStyle)
	f.SetColWidth(sheet, "A", lastCol, 18)

	report := Report{Rows: len(table.Rows)}
	imageCol := len(headers)
	for i, row := range table.Rows {
		r := i + 2
		for c, v := range row.Cells {
			cell, _ := excelize.CoordinatesToCellName(c+1, r)
			f.SetCellValue(sheet, cell, cellValue(v))
		}

		if row.ImageURL == "" {
			continue
		}
		imageCell, _ := excelize.CoordinatesToCellName(imageCol, r)
		if err := x.embed(ctx, f, sheet, imageCell, row.ImageURL, scale); err != nil {
			report.Failed++
			logger.Warn("failed to embed image", zap.String("url", row.ImageURL), zap.Int("row", r), zap.Error(err))
			f.SetCellValue(sheet, imageCell, ImageUnavailable)
			continue
		}
		report.Embedded++
		f.SetRowHeight(sheet, r, imageRowHeight)
	}

	if _, err := f.WriteTo(w); err != nil {
		return report, fmt.Errorf("failed to write spreadsheet: %w", err)
	}
	return report, nil
}

func (x *XLSXWriter) embed(ctx context.Context, f *excelize.File, sheet, cell, url string, scale float64) error {
	if x.Fetcher == nil {
		return fmt.Errorf("no image fetcher configured")
	}
	data, err := x.Fetcher.Fetch(ctx, url)
	if err != nil {
		return err
	}

	ext, err := pictureExtension(data)
	if err != nil {
		return err
	}

	return f.AddPictureFromBytes(sheet, cell, &excelize.Picture{
		Extension: ext,
		File:      data,
		Format: &excelize.GraphicOptions{
			ScaleX:          scale,
			ScaleY:          scale,
			OffsetX:         x.OffsetX,
			OffsetY:         x.OffsetY,
			LockAspectRatio: true,
		},
	})
}

// pictureExtensions lists the raster formats excelize can embed.
var pictureExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// PictureExtension returns the file extension for contentType, or false when
// a sheet cannot embed that format.
func PictureExtension(contentType string) (string, bool) {
	ext, ok := pictureExtensions[contentType]
	return ext, ok
}

// pictureExtension sniffs the raster format; the file name of the URL is not trusted.
func pictureExtension(data []byte) (string, error) {
	ct := http.DetectContentType(data)
	ext, ok := PictureExtension(ct)
	if !ok {
		return "", fmt.Errorf("unsupported image type %s", ct)
	}
	return ext, nil
}

func cellValue(v interface{}) interface{} {
	switch v.(type) {
	case string, int, int64, float64, bool, nil:
		return v
	}
	return formatCell(v)
}
