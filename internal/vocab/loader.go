package vocab

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// levelFile is the on-disk shape of one level.
type levelFile struct {
	Level   Level   `yaml:"level"`
	Order   int     `yaml:"order"`
	Entries []Entry `yaml:"entries"`
}

// Load builds a bank from path. An empty path selects the builtin bank, a .xlsx
// file is read as a workbook and anything else is walked as a YAML directory.
func Load(path string) (*Bank, error) {
	if path == "" {
		return Builtin(), nil
	}
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return LoadWorkbook(path)
	}
	return LoadDir(path)
}

// LoadDir reads every level YAML file under rootDir. Files without a level key
// are skipped; malformed YAML is logged and skipped.
func LoadDir(rootDir string) (*Bank, error) {
	var files []levelFile

	err := filepath.Walk(rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
			return nil
		}

		lf, ok, err := readLevelFile(path)
		if err != nil {
			return err
		}
		if ok {
			files = append(files, lf)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading vocabulary from %s: %w", rootDir, err)
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Order != files[j].Order {
			return files[i].Order < files[j].Order
		}
		return files[i].Level < files[j].Level
	})

	levels := make([]LevelEntries, 0, len(files))
	total := 0
	for _, f := range files {
		levels = append(levels, LevelEntries{Level: f.Level, Entries: f.Entries})
		total += len(f.Entries)
	}

	bank, err := NewBank(levels)
	if err != nil {
		return nil, err
	}
	slog.Info("vocabulary loaded", "source", rootDir, "levels", len(levels), "entries", total)
	return bank, nil
}

func readLevelFile(path string) (levelFile, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return levelFile{}, false, err
	}

	var lf levelFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		slog.Warn("skipping invalid vocabulary YAML", "path", path, "error", err)
		return levelFile{}, false, nil
	}
	if lf.Level == "" {
		return levelFile{}, false, nil
	}
	lf.Level = ParseLevel(string(lf.Level))
	return lf, true, nil
}
