package vocab

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	colHeadword      = "headword"
	colPronunciation = "pronunciation"
	meaningPrefix    = "meaning_"
)

// LoadWorkbook reads a bank from an .xlsx file: one sheet per level (sheet order is
// level order), a header row with headword, pronunciation and meaning_<lang> columns.
func LoadWorkbook(path string) (*Bank, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var levels []LevelEntries
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
		}
		entries, err := parseSheet(rows)
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}
		levels = append(levels, LevelEntries{Level: ParseLevel(sheet), Entries: entries})
	}

	bank, err := NewBank(levels)
	if err != nil {
		return nil, err
	}
	slog.Info("vocabulary loaded", "source", path, "levels", len(levels))
	return bank, nil
}

func parseSheet(rows [][]string) ([]Entry, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	headwordCol, pronCol := -1, -1
	langCols := map[int]string{}
	for i, h := range rows[0] {
		h = strings.ToLower(strings.TrimSpace(h))
		switch {
		case h == colHeadword:
			headwordCol = i
		case h == colPronunciation:
			pronCol = i
		case strings.HasPrefix(h, meaningPrefix):
			langCols[i] = strings.TrimPrefix(h, meaningPrefix)
		}
	}
	if headwordCol < 0 || pronCol < 0 || len(langCols) == 0 {
		return nil, fmt.Errorf("header must contain %s, %s and at least one %s<lang> column", colHeadword, colPronunciation, meaningPrefix)
	}

	var entries []Entry
	for _, row := range rows[1:] {
		cell := func(i int) string {
			if i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}
		if cell(headwordCol) == "" {
			continue
		}
		e := Entry{
			Headword:      cell(headwordCol),
			Pronunciation: cell(pronCol),
			Meanings:      map[string]string{},
		}
		for col, lang := range langCols {
			if v := cell(col); v != "" {
				e.Meanings[lang] = v
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// WriteWorkbook exports the bank in the layout LoadWorkbook reads.
func WriteWorkbook(b *Bank, path string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, level := range b.Levels() {
		sheet := level.String()
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return fmt.Errorf("renaming sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("creating sheet %s: %w", sheet, err)
		}

		entries, _ := b.Entries(level)
		langs := bankLanguages(entries)

		header := []any{colHeadword, colPronunciation}
		for _, lang := range langs {
			header = append(header, meaningPrefix+lang)
		}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}

		for r, e := range entries {
			row := []any{e.Headword, e.Pronunciation}
			for _, lang := range langs {
				row = append(row, e.Meanings[lang])
			}
			cellRef, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(sheet, cellRef, &row); err != nil {
				return fmt.Errorf("writing row %d: %w", r+2, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", path, err)
	}
	return nil
}

func bankLanguages(entries []Entry) []string {
	seen := map[string]bool{}
	var langs []string
	for _, e := range entries {
		for _, l := range e.Languages() {
			if !seen[l] {
				seen[l] = true
				langs = append(langs, l)
			}
		}
	}
	return langs
}
