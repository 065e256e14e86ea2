package importer

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jguzman/physiolog/internal/storage/memory"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const sampleCSV = `Date,Weight (kg),Body Fat %,Calories,Steps,Sleep Total,Sleep Quality,Observations
01/03/2026,"70,5",15.2,2200,9500,7:30,85%,felt good
02/03/2026,71.0,--,2100,8000,8:15:30,,
bad-date,70.0,,,,,,
03/03/2026,"69,8",,,,6:45,,rest day
`

func TestImportCSV(t *testing.T) {
	repo := memory.New()
	imp := New(repo, discard(), 1)

	stats, err := imp.Import(context.Background(), writeFile(t, "data.csv", sampleCSV))
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	if stats.RowsRead != 4 {
		t.Errorf("rows read = %d, want 4", stats.RowsRead)
	}
	if stats.RowsImported != 3 {
		t.Errorf("imported = %d, want 3", stats.RowsImported)
	}
	if stats.RowsRejected != 1 {
		t.Errorf("rejected = %d, want 1 (unparseable date)", stats.RowsRejected)
	}

	// Day-first format: 01/03/2026 is March 1.
	march1 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	entry, err := repo.FindByDate(context.Background(), 1, march1)
	if err != nil {
		t.Fatalf("find march 1: %v", err)
	}
	if entry.Weight == nil || *entry.Weight != 70.5 {
		t.Errorf("weight = %v, want 70.5 (comma decimal)", entry.Weight)
	}
	if entry.SleepTotal == nil || *entry.SleepTotal != 7.5 {
		t.Errorf("sleep = %v, want 7.5 (7:30)", entry.SleepTotal)
	}
	if entry.Steps == nil || *entry.Steps != 9500 {
		t.Errorf("steps = %v, want 9500", entry.Steps)
	}
	if entry.SleepQuality == nil || *entry.SleepQuality != "85%" {
		t.Errorf("sleep quality = %v, want 85%%", entry.SleepQuality)
	}

	// "--" placeholder leaves the field empty.
	march2 := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	entry2, err := repo.FindByDate(context.Background(), 1, march2)
	if err != nil {
		t.Fatalf("find march 2: %v", err)
	}
	if entry2.BodyFat != nil {
		t.Errorf("body fat = %v, want nil for --", entry2.BodyFat)
	}
	// 8:15:30 = 8 + 15/60 + 30/3600 = 8.26 (rounded).
	if entry2.SleepTotal == nil || *entry2.SleepTotal != 8.26 {
		t.Errorf("sleep = %v, want 8.26", entry2.SleepTotal)
	}

	// Run recorded an import log.
	logs, err := repo.QueryImportLogs(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("query logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("got %d import logs, want 1", len(logs))
	}
	if logs[0].Status != "completed" || logs[0].RowsImported != 3 {
		t.Errorf("log = %+v, want completed with 3 imported", logs[0])
	}
}

func TestImportTSVSeparator(t *testing.T) {
	repo := memory.New()
	imp := New(repo, discard(), 1)

	tsv := "Date\tWeight (kg)\n2026-03-10\t72.3\n"
	stats, err := imp.Import(context.Background(), writeFile(t, "data.tsv", tsv))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if stats.RowsImported != 1 {
		t.Fatalf("imported = %d, want 1", stats.RowsImported)
	}
}

func TestImportSkipsDuplicatesByDefault(t *testing.T) {
	repo := memory.New()
	path := writeFile(t, "data.csv", "Date,Weight (kg)\n2026-03-01,70.0\n")

	if _, err := New(repo, discard(), 1).Import(context.Background(), path); err != nil {
		t.Fatalf("first import: %v", err)
	}

	stats, err := New(repo, discard(), 1).Import(context.Background(), path)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if stats.RowsSkipped != 1 || stats.RowsImported != 0 {
		t.Errorf("skipped=%d imported=%d, want 1/0", stats.RowsSkipped, stats.RowsImported)
	}
}

func TestImportUpdateOverwrites(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	first := writeFile(t, "v1.csv", "Date,Weight (kg)\n2026-03-01,70.0\n")
	if _, err := New(repo, discard(), 1).Import(ctx, first); err != nil {
		t.Fatalf("first import: %v", err)
	}

	second := writeFile(t, "v2.csv", "Date,Weight (kg)\n2026-03-01,71.5\n")
	stats, err := New(repo, discard(), 1, WithUpdate()).Import(ctx, second)
	if err != nil {
		t.Fatalf("update import: %v", err)
	}
	if stats.RowsUpdated != 1 {
		t.Fatalf("updated = %d, want 1", stats.RowsUpdated)
	}

	entry, err := repo.FindByDate(ctx, 1, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if entry.Weight == nil || *entry.Weight != 71.5 {
		t.Errorf("weight = %v, want 71.5 after update", entry.Weight)
	}
}

func TestImportDryRunWritesNothing(t *testing.T) {
	repo := memory.New()
	path := writeFile(t, "data.csv", "Date,Weight (kg)\n2026-03-01,70.0\n")

	stats, err := New(repo, discard(), 1, WithDryRun()).Import(context.Background(), path)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if stats.RowsImported != 1 {
		t.Errorf("imported = %d, want 1 (counted, not written)", stats.RowsImported)
	}
	if all, _ := repo.ListAll(context.Background(), 1); len(all) != 0 {
		t.Errorf("repo has %d entries after dry run, want 0", len(all))
	}
	if logs, _ := repo.QueryImportLogs(context.Background(), 1, 10); len(logs) != 0 {
		t.Errorf("repo has %d import logs after dry run, want 0", len(logs))
	}
}

func TestImportRejectsMalformedValues(t *testing.T) {
	repo := memory.New()
	// Second row has a bad sleep value: minutes out of range.
	csv := "Date,Sleep Total\n2026-03-01,7:30\n2026-03-02,7:75\n"
	stats, err := New(repo, discard(), 1).Import(context.Background(), writeFile(t, "data.csv", csv))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if stats.RowsImported != 1 || stats.RowsRejected != 1 {
		t.Errorf("imported=%d rejected=%d, want 1/1", stats.RowsImported, stats.RowsRejected)
	}
}

func TestImportMissingDateColumn(t *testing.T) {
	repo := memory.New()
	path := writeFile(t, "data.csv", "Weight (kg)\n70.0\n")
	if _, err := New(repo, discard(), 1).Import(context.Background(), path); err == nil {
		t.Fatal("expected error for missing date column")
	}
}

func TestStateDB(t *testing.T) {
	dir := t.TempDir()
	state, err := OpenStateDB(dir)
	if err != nil {
		t.Fatalf("open state db: %v", err)
	}
	defer state.Close()

	path := writeFile(t, "data.csv", "Date\n2026-03-01\n")
	hash, err := HashFile(path)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	imported, err := state.IsImported(path, info.Size(), hash)
	if err != nil {
		t.Fatalf("is imported: %v", err)
	}
	if imported {
		t.Error("new file reported as imported")
	}

	if err := state.MarkImported(path, info.Size(), hash); err != nil {
		t.Fatalf("mark imported: %v", err)
	}
	imported, err = state.IsImported(path, info.Size(), hash)
	if err != nil {
		t.Fatalf("is imported: %v", err)
	}
	if !imported {
		t.Error("marked file not reported as imported")
	}

	// A changed hash means the file must be re-imported.
	imported, err = state.IsImported(path, info.Size(), "different-hash")
	if err != nil {
		t.Fatalf("is imported: %v", err)
	}
	if imported {
		t.Error("changed file reported as imported")
	}
}
