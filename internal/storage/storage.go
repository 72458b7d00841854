package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog/log"

	"github.com/hailam/tetrisplay/internal/eval"
)

// Storage keys
const (
	keyStats      = "stats"
	profilePrefix = "profile/"
)

// ErrProfileNotFound is returned when no profile has the requested name.
var ErrProfileNotFound = errors.New("profile not found")

// ErrBadProfileName is returned for empty names or names containing '/'.
var ErrBadProfileName = errors.New("bad profile name")

// Profile is a named set of weights.
type Profile struct {
	Name    string       `json:"name"`
	Weights eval.Weights `json:"weights"`
	Saved   time.Time    `json:"saved"`
}

// DecisionStats aggregates the decisions the bot has made.
type DecisionStats struct {
	Decisions     int            `json:"decisions"`
	ByKind        map[string]int `json:"by_kind"`
	LinesCleared  int            `json:"lines_cleared"`
	Tspins        int            `json:"tspins"`
	PerfectClears int            `json:"perfect_clears"`
	HoldsUsed     int            `json:"holds_used"`
	TotalScore    int64          `json:"total_score"`
	LastDecision  time.Time      `json:"last_decision"`
}

// NewDecisionStats returns empty statistics.
func NewDecisionStats() *DecisionStats {
	return &DecisionStats{ByKind: make(map[string]int)}
}

// AverageScore returns the mean total score per decision.
func (s *DecisionStats) AverageScore() float64 {
	if s.Decisions == 0 {
		return 0
	}
	return float64(s.TotalScore) / float64(s.Decisions)
}

// DecisionRecord is one decision as seen by the statistics.
type DecisionRecord struct {
	Kind         string
	Lines        int
	Tspin        bool
	PerfectClear bool
	UsedHold     bool
	Total        int
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db *badger.DB
}

// NewStorage opens (or creates) the database under dataDir.
func NewStorage(dataDir string) (*Storage, error) {
	dbDir, err := DatabaseDir(dataDir)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("dir", dbDir).Msg("opening database")

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func validName(name string) error {
	if name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("%q: %w", name, ErrBadProfileName)
	}
	return nil
}

// SaveProfile stores w under name, replacing any previous profile.
func (s *Storage) SaveProfile(name string, w eval.Weights) error {
	if err := validName(name); err != nil {
		return err
	}
	data, err := json.Marshal(Profile{Name: name, Weights: w, Saved: time.Now()})
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(profilePrefix+name), data)
	})
}

// LoadProfile returns the profile called name.
func (s *Storage) LoadProfile(name string) (*Profile, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	var p Profile
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(profilePrefix + name))
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("%q: %w", name, ErrProfileNotFound)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &p)
		})
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProfile removes a profile. Deleting a missing profile is an error.
func (s *Storage) DeleteProfile(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(profilePrefix + name)
		if _, err := txn.Get(key); err == badger.ErrKeyNotFound {
			return fmt.Errorf("%q: %w", name, ErrProfileNotFound)
		} else if err != nil {
			return err
		}
		return txn.Delete(key)
	})
}

// ListProfiles returns the saved profile names in sorted order.
func (s *Storage) ListProfiles() ([]string, error) {
	names := []string{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(profilePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			names = append(names, strings.TrimPrefix(string(it.Item().Key()), profilePrefix))
		}
		return nil
	})
	sort.Strings(names)
	return names, err
}

// SaveStats saves decision statistics
func (s *Storage) SaveStats(stats *DecisionStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyStats), data)
	})
}

// LoadStats loads decision statistics, returns empty stats if not found
func (s *Storage) LoadStats() (*DecisionStats, error) {
	stats := NewDecisionStats()

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyStats))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, stats)
		})
	})
	if stats.ByKind == nil {
		stats.ByKind = make(map[string]int)
	}
	return stats, err
}

// RecordDecision folds one decision into the stored statistics.
func (s *Storage) RecordDecision(r DecisionRecord) error {
	stats, err := s.LoadStats()
	if err != nil {
		return err
	}

	stats.Decisions++
	stats.ByKind[r.Kind]++
	stats.LinesCleared += r.Lines
	stats.TotalScore += int64(r.Total)
	stats.LastDecision = time.Now()
	if r.Tspin {
		stats.Tspins++
	}
	if r.PerfectClear {
		stats.PerfectClears++
	}
	if r.UsedHold {
		stats.HoldsUsed++
	}

	return s.SaveStats(stats)
}

// ResetStats discards the statistics.
func (s *Storage) ResetStats() error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyStats))
	})
}
