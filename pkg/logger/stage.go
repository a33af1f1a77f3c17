package logger

import (
	"time"
)

// StageTracker times the sequential stages of a single run and logs each one
// as it finishes. It is owned by one run and is not safe for concurrent use.
type StageTracker struct {
	logger    Logger
	operation string
	startTime time.Time
	current   string
	stageFrom time.Time
	stages    []StageTiming
}

// StageTiming is the recorded duration of one finished stage
type StageTiming struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
}

// NewStageTracker starts tracking an operation
func NewStageTracker(log Logger, operation string) *StageTracker {
	if log == nil {
		log = GetGlobalLogger()
	}
	now := time.Now()
	tracker := &StageTracker{
		logger:    log.WithComponent("stages"),
		operation: operation,
		startTime: now,
		stageFrom: now,
	}
	tracker.logger.WithField("operation", operation).Debug("Starting operation")
	return tracker
}

// Begin closes the running stage, if any, and opens the named one
func (s *StageTracker) Begin(name string) {
	s.finishCurrent()
	s.current = name
	s.stageFrom = time.Now()
}

// Complete closes the running stage and logs the overall duration
func (s *StageTracker) Complete(fields Fields) {
	s.finishCurrent()
	entry := s.logger.WithFields(Fields{
		"operation": s.operation,
		"stages":    len(s.stages),
		"duration":  time.Since(s.startTime).String(),
	})
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Info("Operation completed")
}

// Fail closes the running stage and logs the failure against it
func (s *StageTracker) Fail(err error) {
	failed := s.current
	s.finishCurrent()
	s.logger.WithError(err).WithFields(Fields{
		"operation": s.operation,
		"stage":     failed,
		"duration":  time.Since(s.startTime).String(),
	}).Error("Operation failed")
}

// Stages returns the finished stage timings in order
func (s *StageTracker) Stages() []StageTiming {
	out := make([]StageTiming, len(s.stages))
	copy(out, s.stages)
	return out
}

func (s *StageTracker) finishCurrent() {
	if s.current == "" {
		return
	}
	elapsed := time.Since(s.stageFrom)
	s.stages = append(s.stages, StageTiming{Name: s.current, Duration: elapsed})
	s.logger.WithFields(Fields{
		"operation": s.operation,
		"stage":     s.current,
		"duration":  elapsed.String(),
	}).Debug("Stage finished")
	s.current = ""
}
