package main

import (
	"bytes"
	"context"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/hanyumate/hanyumate/internal/vocab"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out, &errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLevelsCommand(t *testing.T) {
	out, err := execute(t, "", "levels")
	if err != nil {
		t.Fatalf("levels error = %v", err)
	}
	for _, l := range vocab.Builtin().Levels() {
		if !strings.Contains(out, string(l)+"\t") {
			t.Errorf("output missing level %s: %q", l, out)
		}
	}
}

func TestExportCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hsk.xlsx")

	out, err := execute(t, "", "export", path)
	if err != nil {
		t.Fatalf("export error = %v", err)
	}
	if !strings.Contains(out, "exported") {
		t.Errorf("output = %q", out)
	}

	bank, err := vocab.LoadWorkbook(path)
	if err != nil {
		t.Fatalf("LoadWorkbook() error = %v", err)
	}
	if got, want := bank.Levels(), vocab.Builtin().Levels(); !slices.Equal(got, want) {
		t.Errorf("levels = %v, want %v", got, want)
	}
}

func TestExportCommand_RejectsNonWorkbook(t *testing.T) {
	if _, err := execute(t, "", "export", filepath.Join(t.TempDir(), "hsk.csv")); err == nil {
		t.Error("export to .csv should fail")
	}
	if _, err := execute(t, "", "export"); err == nil {
		t.Error("export without a path should fail")
	}
}

func TestDrillCommand(t *testing.T) {
	t.Setenv("HANYU_QUIZ_SEED", "11")
	stdin := "/quiz 2\n1A\n2B\n/submit\n/quit\n"

	out, err := execute(t, stdin, "drill", "--no-ai", "--level", "HSK2", "--user", "tester")
	if err != nil {
		t.Fatalf("drill error = %v", err)
	}
	for _, want := range []string{"HSK2 quiz (2 questions)", "Q1.", "Score: "} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDrillCommand_UnknownLevel(t *testing.T) {
	if _, err := execute(t, "", "drill", "--no-ai", "--level", "HSK9"); err == nil {
		t.Error("drill with an unknown level should fail")
	}
}
