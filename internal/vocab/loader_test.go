package vocab_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hanyumate/hanyumate/internal/vocab"
)

func TestLoadDir(t *testing.T) {
	dir := setupVocabDir(t)

	bank, err := vocab.LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}

	levels := bank.Levels()
	if len(levels) != 2 || levels[0] != "HSK1" || levels[1] != "HSK2" {
		t.Fatalf("Levels() = %v, want [HSK1 HSK2] ordered by order key", levels)
	}

	e, err := bank.Entry("HSK1", 0)
	if err != nil {
		t.Fatalf("Entry() error = %v", err)
	}
	if e.Headword != "我" || e.Pronunciation != "wǒ" || e.Meaning("th") != "ฉัน" {
		t.Errorf("Entry(HSK1, 0) = %+v", e)
	}
}

func TestLoadDir_SkipsNonLevelYAML(t *testing.T) {
	dir := setupVocabDir(t)
	os.WriteFile(filepath.Join(dir, "notes.yaml"), []byte("title: not a level\n"), 0o644)
	os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("level: [unclosed\n"), 0o644)

	bank, err := vocab.LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if len(bank.Levels()) != 2 {
		t.Errorf("Levels() = %v, want 2 levels", bank.Levels())
	}
}

func TestLoadDir_TooSmallLevel(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "hsk1.yaml"), []byte(`
level: HSK1
entries:
  - {headword: 我, pronunciation: wǒ, meanings: {en: I}}
`), 0o644)

	_, err := vocab.LoadDir(dir)
	if !errors.Is(err, vocab.ErrConfiguration) {
		t.Fatalf("LoadDir() error = %v, want ConfigurationError", err)
	}
}

func TestLoadDir_EmptyDir(t *testing.T) {
	_, err := vocab.LoadDir(t.TempDir())
	if !errors.Is(err, vocab.ErrConfiguration) {
		t.Fatalf("LoadDir(empty) error = %v, want ConfigurationError", err)
	}
}

func TestLoad_EmptyPathUsesBuiltin(t *testing.T) {
	bank, err := vocab.Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if !bank.HasLevel("HSK1") {
		t.Error("builtin bank should contain HSK1")
	}
}

func setupVocabDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	levelsDir := filepath.Join(dir, "levels")
	os.MkdirAll(levelsDir, 0o755)

	os.WriteFile(filepath.Join(levelsDir, "hsk2.yaml"), []byte(`
level: hsk2
order: 2
entries:
  - {headword: 颜色, pronunciation: yán sè, meanings: {en: color}}
  - {headword: 机场, pronunciation: jī chǎng, meanings: {en: airport}}
  - {headword: 旅游, pronunciation: lǚ yóu, meanings: {en: to travel}}
  - {headword: 鱼, pronunciation: yú, meanings: {en: fish}}
`), 0o644)

	os.WriteFile(filepath.Join(levelsDir, "hsk1.yaml"), []byte(`
level: HSK1
order: 1
entries:
  - headword: 我
    pronunciation: wǒ
    meanings:
      en: I; me
      th: ฉัน
  - {headword: 你, pronunciation: nǐ, meanings: {en: you}}
  - {headword: 喝, pronunciation: hē, meanings: {en: to drink}}
  - {headword: 吃, pronunciation: chī, meanings: {en: to eat}}
`), 0o644)

	return dir
}
