package progress

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"jpslite/internal/core/convert"
)

func TestModelTracksBatch(t *testing.T) {
	m := newModel()

	next, _ := m.Update(progressMsg(convert.ProgressEvent{
		Index: 1, Total: 2, Input: "a.txt", Output: "a.sqlite",
	}))
	m = next.(model)

	if m.done != 1 || m.total != 2 {
		t.Errorf("expected 1/2, got %d/%d", m.done, m.total)
	}
	if !strings.Contains(m.View(), "a.txt -> a.sqlite") {
		t.Errorf("view missing current file: %q", m.View())
	}
}

func TestModelRecordsFailures(t *testing.T) {
	m := newModel()

	next, _ := m.Update(progressMsg(convert.ProgressEvent{
		Index: 1, Total: 1, Input: "bad.txt", Output: "bad.sqlite",
		Err: errors.New("boom"),
	}))
	m = next.(model)

	if len(m.failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(m.failures))
	}
	if !strings.Contains(m.View(), "bad.txt") {
		t.Errorf("view missing failure: %q", m.View())
	}
}

func TestModelQuitKeyAborts(t *testing.T) {
	m := newModel()

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	m = next.(model)

	if !m.aborted {
		t.Error("expected quit key to mark the model aborted")
	}
	if m.finished {
		t.Error("an aborted model must not count as finished")
	}
	if cmd == nil {
		t.Error("expected quit command")
	}
}

func TestModelFinishes(t *testing.T) {
	m := newModel()

	next, _ := m.Update(progressMsg(convert.ProgressEvent{Index: 1, Total: 1, Input: "a.txt", Output: "a.sqlite"}))
	m = next.(model)
	next, cmd := m.Update(doneMsg{})
	m = next.(model)

	if !m.finished {
		t.Error("expected model to be finished")
	}
	if cmd == nil {
		t.Error("expected quit command")
	}
	if !strings.Contains(m.View(), "Finished converting files") {
		t.Errorf("view missing summary: %q", m.View())
	}
}

func headlessProgram() *tea.Program {
	return tea.NewProgram(newModel(),
		tea.WithInput(strings.NewReader("")),
		tea.WithoutRenderer(),
	)
}

func testConverter(t *testing.T) *convert.Converter {
	t.Helper()
	dir := t.TempDir()
	content := "#framerate: 8\n1 0 0.0 0.0\n1 1 1.0 1.0\n"
	if err := os.WriteFile(filepath.Join(dir, "traj.txt"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := convert.New(convert.Options{Pattern: filepath.Join(dir, "*.txt")})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestRunCompletesBatch(t *testing.T) {
	c := testConverter(t)

	results, err := run(context.Background(), c, headlessProgram())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Rows != 2 {
		t.Errorf("rows = %d, want 2", results[0].Rows)
	}
}

func TestRunPropagatesCancellation(t *testing.T) {
	c := testConverter(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := run(ctx, c, headlessProgram())
	if err == nil {
		t.Fatal("expected an error for a cancelled batch")
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}
