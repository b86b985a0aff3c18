// Package recorder persists simulation runs and their event streams to an
// embedded sqlite database through gorm. It implements sim.EventSink, so a
// recorder attached with Simulation.AddSink captures every log entry.
package recorder

import (
	"fmt"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kwestergaard/killhouse/internal/sim"
)

// flushBatch is the buffered event count that triggers a write.
const flushBatch = 512

// Run is one recorded simulation run.
type Run struct {
	ID        string    `json:"id" gorm:"primarykey;size:36"`
	Label     string    `json:"label" gorm:"size:127"`
	Seed      int64     `json:"seed"`
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt"`
	Ticks     int       `json:"ticks"`
	Events    []Event   `gorm:"foreignkey:RunID;constraint:OnDelete:CASCADE;"`
}

// Event is one sim log entry tied to a run.
type Event struct {
	ID       uint    `gorm:"primarykey"`
	RunID    string  `json:"runId" gorm:"size:36;index:idx_run_id"`
	Tick     int     `json:"tick"`
	Actor    string  `json:"actor" gorm:"size:16"`
	Side     string  `json:"side" gorm:"size:16"`
	Category string  `json:"category" gorm:"size:32;index:idx_category"`
	Key      string  `json:"key" gorm:"size:64"`
	Value    string  `json:"value" gorm:"size:255"`
	NumVal   float64 `json:"numVal"`
}

// Recorder buffers sim events and writes them in batches under the run
// started with BeginRun. Events arriving outside a run are dropped.
type Recorder struct {
	db  *gorm.DB
	log zerolog.Logger

	mu    sync.Mutex
	runID string
	buf   []Event
}

// Open creates or opens the sqlite database at path and migrates the run
// and event tables.
func Open(path string, log zerolog.Logger) (*Recorder, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        2000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("error opening recorder db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = MEMORY;",
		"PRAGMA synchronous = OFF;",
		"PRAGMA temp_store = MEMORY;",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}

	if err := db.AutoMigrate(&Run{}, &Event{}); err != nil {
		return nil, fmt.Errorf("error migrating recorder schema: %w", err)
	}

	log.Info().Str("path", path).Msg("Recorder database ready")
	return &Recorder{db: db, log: log}, nil
}

// BeginRun opens a new run and returns its id. Any buffered events from a
// previous run are flushed first.
func (r *Recorder) BeginRun(label string, seed int64) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.flushLocked(); err != nil {
		return "", err
	}

	run := Run{
		ID:        uuid.NewString(),
		Label:     label,
		Seed:      seed,
		StartedAt: time.Now().UTC(),
	}
	if err := r.db.Create(&run).Error; err != nil {
		return "", fmt.Errorf("error creating run: %w", err)
	}
	r.runID = run.ID
	r.log.Debug().Str("run", run.ID).Int64("seed", seed).Msg("Run started")
	return run.ID, nil
}

// HandleSimEvent buffers one entry for the active run. Implements
// sim.EventSink; called on the sim goroutine, so it only appends and
// defers the write until the batch threshold.
func (r *Recorder) HandleSimEvent(e sim.SimLogEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.runID == "" {
		return
	}
	r.buf = append(r.buf, Event{
		RunID:    r.runID,
		Tick:     e.Tick,
		Actor:    e.Actor,
		Side:     e.Side,
		Category: e.Category,
		Key:      e.Key,
		Value:    e.Value,
		NumVal:   e.NumVal,
	})
	if len(r.buf) >= flushBatch {
		if err := r.flushLocked(); err != nil {
			r.log.Error().Err(err).Msg("Failed to flush event batch")
		}
	}
}

// Flush writes all buffered events.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushLocked()
}

func (r *Recorder) flushLocked() error {
	if len(r.buf) == 0 {
		return nil
	}
	if err := r.db.Create(&r.buf).Error; err != nil {
		return fmt.Errorf("error writing events: %w", err)
	}
	r.buf = r.buf[:0]
	return nil
}

// EndRun flushes outstanding events and closes the active run with its
// final tick count.
func (r *Recorder) EndRun(ticks int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.runID == "" {
		return fmt.Errorf("no active run")
	}
	if err := r.flushLocked(); err != nil {
		return err
	}
	err := r.db.Model(&Run{}).Where("id = ?", r.runID).Updates(map[string]interface{}{
		"ended_at": time.Now().UTC(),
		"ticks":    ticks,
	}).Error
	if err != nil {
		return fmt.Errorf("error closing run: %w", err)
	}
	r.log.Debug().Str("run", r.runID).Int("ticks", ticks).Msg("Run ended")
	r.runID = ""
	return nil
}

// Runs lists all recorded runs, oldest first.
func (r *Recorder) Runs() ([]Run, error) {
	var runs []Run
	if err := r.db.Order("started_at").Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("error listing runs: %w", err)
	}
	return runs, nil
}

// EventCount returns the number of stored events for a run.
func (r *Recorder) EventCount(runID string) (int64, error) {
	var n int64
	err := r.db.Model(&Event{}).Where("run_id = ?", runID).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("error counting events: %w", err)
	}
	return n, nil
}

// CategoryCounts tallies a run's events per category.
func (r *Recorder) CategoryCounts(runID string) (map[string]int64, error) {
	var rows []struct {
		Category string
		N        int64
	}
	err := r.db.Model(&Event{}).
		Select("category, count(*) as n").
		Where("run_id = ?", runID).
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("error counting categories: %w", err)
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Category] = row.N
	}
	return counts, nil
}

// EventsFor returns a run's stored events in insertion order.
func (r *Recorder) EventsFor(runID string) ([]Event, error) {
	var events []Event
	err := r.db.Where("run_id = ?", runID).Order("id").Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("error loading events: %w", err)
	}
	return events, nil
}

// Close flushes and releases the underlying database handle.
func (r *Recorder) Close() error {
	if err := r.Flush(); err != nil {
		return err
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("error accessing sql interface: %w", err)
	}
	return sqlDB.Close()
}
