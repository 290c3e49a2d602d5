package domain

import "sync"

// TradeStats holds monotonically incrementing counters for the copy-trade
// pipeline. Counters reset only on process restart.
type TradeStats struct {
	mu sync.Mutex

	Detected int64 // transactions that parsed into a swap event
	Copied   int64 // trades executed
	Skipped  int64 // events rejected by a filter
	Failed   int64 // executions that errored

	SOLSpent    float64
	SOLReceived float64
	RealizedPnL float64 // cumulative, from closed positions

	SkipReasons map[string]int64
}

// NewTradeStats creates an empty stats collector.
func NewTradeStats() *TradeStats {
	return &TradeStats{SkipReasons: make(map[string]int64)}
}

// RecordDetected counts a detected swap event.
func (s *TradeStats) RecordDetected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Detected++
}

// RecordCopied counts an executed copy trade and the SOL moved.
func (s *TradeStats) RecordCopied(direction string, sol float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Copied++
	if direction == DirectionBuy {
		s.SOLSpent += sol
	} else {
		s.SOLReceived += sol
	}
}

// RecordSkipped counts a filtered event under its skip reason.
func (s *TradeStats) RecordSkipped(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Skipped++
	s.SkipReasons[reason]++
}

// RecordFailed counts a failed execution.
func (s *TradeStats) RecordFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Failed++
}

// RecordRealized adds realized profit (positive) or loss (negative).
func (s *TradeStats) RecordRealized(pnl float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RealizedPnL += pnl
}

// Snapshot returns a copy safe to read without holding the lock.
func (s *TradeStats) Snapshot() TradeStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := TradeStats{
		Detected:    s.Detected,
		Copied:      s.Copied,
		Skipped:     s.Skipped,
		Failed:      s.Failed,
		SOLSpent:    s.SOLSpent,
		SOLReceived: s.SOLReceived,
		RealizedPnL: s.RealizedPnL,
		SkipReasons: make(map[string]int64, len(s.SkipReasons)),
	}
	for k, v := range s.SkipReasons {
		out.SkipReasons[k] = v
	}
	return out
}
