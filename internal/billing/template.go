package billing

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ValidateTemplate checks that the template at path can hold the schema:
// the sheet exists and no field lands inside a merged range other than at
// its top-left cell, where the value would be hidden.
func (s *Synthesizer) ValidateTemplate(path string) error {
	file, err := openTemplate(path)
	if err != nil {
		return err
	}
	defer file.Close()

	sheet, err := s.sheetName(file)
	if err != nil {
		return newError(KindTemplateNotFound, "select_sheet", "", err)
	}

	merged, err := file.GetMergeCells(sheet)
	if err != nil {
		return fmt.Errorf("failed to read merged cells: %w", err)
	}

	var problems []string
	for _, field := range s.mapper.schema.Fields {
		for _, mc := range merged {
			hidden, err := hiddenByMerge(field.Cell, mc)
			if err != nil {
				return fmt.Errorf("failed to check merged range %s:%s: %w", mc.GetStartAxis(), mc.GetEndAxis(), err)
			}
			if hidden {
				problems = append(problems, fmt.Sprintf("%s (%s) is inside merged range %s:%s",
					field.Key, field.Cell, mc.GetStartAxis(), mc.GetEndAxis()))
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: template %s does not match field layout: %s",
			ErrInvalidSchema, path, strings.Join(problems, "; "))
	}

	s.logger.Debug("Template layout validated",
		zap.String("template", path),
		zap.String("sheet", sheet),
		zap.Int("field_count", len(s.mapper.schema.Fields)))

	return nil
}

func hiddenByMerge(cell string, mc excelize.MergeCell) (bool, error) {
	col, row, err := excelize.CellNameToCoordinates(cell)
	if err != nil {
		return false, err
	}
	startCol, startRow, err := excelize.CellNameToCoordinates(mc.GetStartAxis())
	if err != nil {
		return false, err
	}
	endCol, endRow, err := excelize.CellNameToCoordinates(mc.GetEndAxis())
	if err != nil {
		return false, err
	}

	inside := col >= startCol && col <= endCol && row >= startRow && row <= endRow
	return inside && !(col == startCol && row == startRow), nil
}
