package storage

import (
	"os"
	"runtime"
	"testing"
)

func TestDefaultPreferences(t *testing.T) {
	prefs := DefaultPreferences()
	if prefs.Username != "Player" {
		t.Errorf("Expected username 'Player', got '%s'", prefs.Username)
	}
	if prefs.Difficulty != DifficultyMedium {
		t.Errorf("Expected medium difficulty")
	}
	if prefs.EvalMode != EvalClassical {
		t.Errorf("Expected classical eval mode")
	}
	if !prefs.SoundEnabled {
		t.Errorf("Expected sound enabled by default")
	}
}

func TestGameStatsWinRate(t *testing.T) {
	empty := NewGameStats()
	if empty.GetWinRate() != 0 {
		t.Errorf("Expected 0 win rate with no games played")
	}

	stats := &GameStats{GamesPlayed: 10, Wins: 5, Losses: 3, Draws: 2}
	if rate := stats.GetWinRate(); rate != 50 {
		t.Errorf("Expected 50%% win rate, got %.2f%%", rate)
	}
}

// newTestStorage opens a Storage instance rooted at a temp directory instead
// of the user's real data directory, by pointing XDG_DATA_HOME (or its
// platform equivalents) at a throwaway location for the duration of the test.
func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	tmp := t.TempDir()
	switch runtime.GOOS {
	case "windows":
		t.Setenv("APPDATA", tmp)
	case "darwin":
		t.Setenv("HOME", tmp)
	default:
		t.Setenv("XDG_DATA_HOME", tmp)
	}

	s, err := NewStorage()
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStorageFirstLaunch(t *testing.T) {
	s := newTestStorage(t)

	first, err := s.IsFirstLaunch()
	if err != nil {
		t.Fatalf("IsFirstLaunch: %v", err)
	}
	if !first {
		t.Error("expected a fresh database to report first launch")
	}

	if err := s.MarkFirstLaunchComplete(); err != nil {
		t.Fatalf("MarkFirstLaunchComplete: %v", err)
	}

	first, err = s.IsFirstLaunch()
	if err != nil {
		t.Fatalf("IsFirstLaunch: %v", err)
	}
	if first {
		t.Error("expected first launch to be false after marking complete")
	}
}

func TestStoragePreferencesRoundTrip(t *testing.T) {
	s := newTestStorage(t)

	prefs := DefaultPreferences()
	prefs.Username = "Maintainer"
	prefs.Difficulty = DifficultyHard
	prefs.PlayerColor = ColorBlack

	if err := s.SavePreferences(prefs); err != nil {
		t.Fatalf("SavePreferences: %v", err)
	}

	loaded, err := s.LoadPreferences()
	if err != nil {
		t.Fatalf("LoadPreferences: %v", err)
	}

	if loaded.Username != "Maintainer" || loaded.Difficulty != DifficultyHard || loaded.PlayerColor != ColorBlack {
		t.Errorf("preferences not restored: got %+v", loaded)
	}
}

func TestStorageRecordGameTracksStreaks(t *testing.T) {
	s := newTestStorage(t)

	wins := []GameResult{
		{Won: true, Mode: ModeHumanVsComputer, Difficulty: DifficultyMedium},
		{Won: true, Mode: ModeHumanVsComputer, Difficulty: DifficultyHard},
	}
	for _, r := range wins {
		if err := s.RecordGame(r); err != nil {
			t.Fatalf("RecordGame: %v", err)
		}
	}

	stats, err := s.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	if stats.CurrentStreak != 2 || stats.LongestWinStrk != 2 {
		t.Fatalf("expected a 2-game win streak, got current=%d longest=%d", stats.CurrentStreak, stats.LongestWinStrk)
	}

	if err := s.RecordGame(GameResult{Won: false, Mode: ModeHumanVsComputer, Difficulty: DifficultyMedium}); err != nil {
		t.Fatalf("RecordGame: %v", err)
	}

	stats, err = s.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	if stats.CurrentStreak != 0 {
		t.Errorf("expected a loss to reset the current streak, got %d", stats.CurrentStreak)
	}
	if stats.LongestWinStrk != 2 {
		t.Errorf("loss should not erase the longest streak on record, got %d", stats.LongestWinStrk)
	}
	if stats.GamesPlayed != 3 || stats.Wins != 2 || stats.Losses != 1 {
		t.Errorf("unexpected totals: %+v", stats)
	}
}

func TestDataPaths(t *testing.T) {
	dataDir, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir failed: %v", err)
	}
	if dataDir == "" {
		t.Error("GetDataDir returned empty path")
	}

	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		t.Errorf("Data directory was not created: %s", dataDir)
	}
}
