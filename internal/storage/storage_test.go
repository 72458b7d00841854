package storage

import (
	"errors"
	"os"
	"testing"

	"github.com/hailam/tetrisplay/internal/eval"
)

func openTemp(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestProfiles(t *testing.T) {
	s := openTemp(t)

	if _, err := s.LoadProfile("aggro"); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("LoadProfile on empty db: %v", err)
	}

	w := eval.Fast()
	w.Clear4 = 999
	if err := s.SaveProfile("aggro", w); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	if err := s.SaveProfile("base", eval.Default()); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	p, err := s.LoadProfile("aggro")
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if p.Name != "aggro" || p.Weights.Clear4 != 999 || p.Weights.Tspin3 != eval.Fast().Tspin3 {
		t.Errorf("loaded %+v", p)
	}

	names, err := s.ListProfiles()
	if err != nil {
		t.Fatalf("ListProfiles: %v", err)
	}
	if len(names) != 2 || names[0] != "aggro" || names[1] != "base" {
		t.Errorf("ListProfiles = %v", names)
	}

	if err := s.DeleteProfile("aggro"); err != nil {
		t.Fatalf("DeleteProfile: %v", err)
	}
	if err := s.DeleteProfile("aggro"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("second delete: %v", err)
	}
	if names, _ := s.ListProfiles(); len(names) != 1 {
		t.Errorf("after delete: %v", names)
	}
}

func TestBadProfileName(t *testing.T) {
	s := openTemp(t)
	for _, name := range []string{"", "a/b"} {
		if err := s.SaveProfile(name, eval.Default()); !errors.Is(err, ErrBadProfileName) {
			t.Errorf("SaveProfile(%q) = %v", name, err)
		}
	}
}

func TestRecordDecision(t *testing.T) {
	s := openTemp(t)

	stats, err := s.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	if stats.Decisions != 0 || stats.AverageScore() != 0 {
		t.Errorf("fresh stats = %+v", stats)
	}

	records := []DecisionRecord{
		{Kind: "Tspin2", Lines: 2, Tspin: true, Total: 300},
		{Kind: "Clear4", Lines: 4, PerfectClear: true, UsedHold: true, Total: 1000},
		{Kind: "None", Total: -100},
	}
	for _, r := range records {
		if err := s.RecordDecision(r); err != nil {
			t.Fatalf("RecordDecision: %v", err)
		}
	}

	stats, err = s.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	if stats.Decisions != 3 || stats.LinesCleared != 6 || stats.Tspins != 1 ||
		stats.PerfectClears != 1 || stats.HoldsUsed != 1 || stats.TotalScore != 1200 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.ByKind["Tspin2"] != 1 || stats.ByKind["Clear4"] != 1 {
		t.Errorf("ByKind = %v", stats.ByKind)
	}
	if stats.AverageScore() != 400 {
		t.Errorf("AverageScore = %v", stats.AverageScore())
	}

	if err := s.ResetStats(); err != nil {
		t.Fatalf("ResetStats: %v", err)
	}
	if stats, _ := s.LoadStats(); stats.Decisions != 0 {
		t.Errorf("after reset: %+v", stats)
	}
}

func TestReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStorage(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SaveProfile("keep", eval.Default()); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = NewStorage(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, err := s.LoadProfile("keep"); err != nil {
		t.Errorf("profile lost across reopen: %v", err)
	}
}

func TestDataPaths(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	dataDir, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir failed: %v", err)
	}
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		t.Errorf("Data directory was not created: %s", dataDir)
	}
}
