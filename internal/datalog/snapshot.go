package datalog

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/CodexForgeBR/rl-context-task/internal/config"
)

// SchemaVersion is the version of the snapshot layout.
const SchemaVersion = 1

// Snapshot is the settings record written once at session start: the
// resolved settings plus everything needed to reproduce the session.
type Snapshot struct {
	SchemaVersion  int               `json:"schema_version"`
	SessionID      string            `json:"session_id"`
	Subject        string            `json:"subject"`
	Session        string            `json:"session"`
	Experimenter   string            `json:"experimenter"`
	Date           string            `json:"date"`
	Time           string            `json:"time"`
	StartedAt      string            `json:"started_at"`
	RandomSeed     int64             `json:"random_seed"`
	Simulated      bool              `json:"simulated"`
	LogfilePath    string            `json:"logfile_path"`
	ConditionsFile string            `json:"conditions_file"`
	ConditionsHash string            `json:"conditions_file_hash"`
	Stimuli        map[string]string `json:"stimuli"`
	Settings       settingsJSON      `json:"settings"`
}

// settingsJSON marshals a Config with an infinite timeout spelled "inf",
// which plain JSON numbers cannot carry.
type settingsJSON struct {
	*config.Config
	DurationTimeout any `json:"duration_timeout"`
}

// NewSnapshot fills the snapshot fields derived from cfg and start.
func NewSnapshot(cfg *config.Config, sessionID string, seed int64, start time.Time) *Snapshot {
	var timeout any = cfg.DurationTimeout
	if math.IsInf(cfg.DurationTimeout, 1) {
		timeout = "inf"
	}
	return &Snapshot{
		SchemaVersion:  SchemaVersion,
		SessionID:      sessionID,
		Subject:        cfg.Subject,
		Session:        cfg.Session,
		Experimenter:   cfg.Experimenter,
		Date:           start.Format("20060102"),
		Time:           start.Format("1504"),
		StartedAt:      start.Format(time.RFC3339),
		RandomSeed:     seed,
		Simulated:      cfg.Simulate,
		ConditionsFile: cfg.ConditionsFile,
		Settings:       settingsJSON{Config: cfg, DurationTimeout: timeout},
	}
}

// SaveSnapshot writes s as indented JSON to path, creating parent
// directories as needed.
func SaveSnapshot(s *Snapshot, path string) error {
	data, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal settings snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write settings snapshot: %w", err)
	}
	return nil
}

// BaseName returns the file name stem shared by every output of a session.
func BaseName(label, subject string, start time.Time) string {
	return fmt.Sprintf("task-%s_subject-%s_date-%s_time-%s",
		label, subject, start.Format("20060102"), start.Format("1504"))
}

// Paths lists the output files of one session.
type Paths struct {
	Base     string
	Trials   string
	SQLite   string
	Settings string
	Events   string
}

// PathsFor returns the output paths under dir.
func PathsFor(dir, label, subject string, start time.Time) Paths {
	base := filepath.Join(dir, BaseName(label, subject, start))
	return Paths{
		Base:     base,
		Trials:   base + ".csv",
		SQLite:   base + ".sqlite",
		Settings: base + "_settings.json",
		Events:   base + "_events.jsonl",
	}
}
