package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/yourusername/keiba-sim/internal/models"
)

// SessionStats accumulates simulation totals for the lifetime of a service
type SessionStats struct {
	mu          sync.RWMutex
	startTime   time.Time
	runs        int
	noResult    int
	rejected    int
	tickets     int
	hits        int
	totalStake  int64
	totalPayout int64
}

// StatsSnapshot is a point-in-time copy of SessionStats
type StatsSnapshot struct {
	Runs        int           `json:"runs"`
	NoResult    int           `json:"no_result"`
	Rejected    int           `json:"rejected"`
	Tickets     int           `json:"tickets"`
	Hits        int           `json:"hits"`
	TotalStake  int64         `json:"total_stake"`
	TotalPayout int64         `json:"total_payout"`
	Uptime      time.Duration `json:"uptime"`
}

// NewSessionStats creates a new stats tracker
func NewSessionStats() *SessionStats {
	return &SessionStats{startTime: time.Now()}
}

// RecordResult adds a completed simulation
func (s *SessionStats) RecordResult(result *models.SimulationResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs++
	s.tickets += len(result.TicketsEvaluated)
	s.hits += result.HitCount
	s.totalStake += result.TotalStake
	s.totalPayout += result.TotalPayout
}

// RecordNoResult counts a race that could not be settled
func (s *SessionStats) RecordNoResult() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noResult++
}

// RecordRejected counts a request refused before simulation
func (s *SessionStats) RecordRejected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejected++
}

// Reset clears all counters
func (s *SessionStats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startTime = time.Now()
	s.runs, s.noResult, s.rejected = 0, 0, 0
	s.tickets, s.hits = 0, 0
	s.totalStake, s.totalPayout = 0, 0
}

// Snapshot returns a copy of the counters
func (s *SessionStats) Snapshot() StatsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StatsSnapshot{
		Runs:        s.runs,
		NoResult:    s.noResult,
		Rejected:    s.rejected,
		Tickets:     s.tickets,
		Hits:        s.hits,
		TotalStake:  s.totalStake,
		TotalPayout: s.totalPayout,
		Uptime:      time.Since(s.startTime),
	}
}

// ReturnRate returns payout as a percentage of stake
func (st StatsSnapshot) ReturnRate() float64 {
	if st.TotalStake == 0 {
		return 0
	}
	return float64(st.TotalPayout) / float64(st.TotalStake) * 100
}

// String returns a one-line summary
func (st StatsSnapshot) String() string {
	return fmt.Sprintf("runs=%d no_result=%d rejected=%d tickets=%d hits=%d stake=%d payout=%d return=%.1f%%",
		st.Runs, st.NoResult, st.Rejected, st.Tickets, st.Hits, st.TotalStake, st.TotalPayout, st.ReturnRate())
}
