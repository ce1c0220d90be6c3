package course

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoadXLSX reads a workbook where every sheet is a course. Columns are
// word, meaning, phonetic and space-separated phonemes; a first row whose
// first cell is "word" is treated as a header.
func LoadXLSX(path string) (*Catalog, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var courses []Course
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}

		course := Course{Name: sheet}
		for i, row := range rows {
			if len(row) == 0 {
				continue
			}
			if i == 0 && strings.EqualFold(strings.TrimSpace(row[0]), "word") {
				continue
			}
			word := Word{Word: cell(row, 0), Meaning: cell(row, 1), Phonetic: cell(row, 2)}
			if word.Word == "" {
				continue
			}
			word.Phonemes = splitPhonemes(cell(row, 3))
			course.Words = append(course.Words, word)
		}

		if len(course.Words) > 0 {
			courses = append(courses, course)
		}
	}

	if len(courses) == 0 {
		return nil, fmt.Errorf("workbook %s has no courses", path)
	}
	return NewCatalog(courses, Settings{}), nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
