package worker

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"zodiac/internal/amqp"
	"zodiac/internal/log"
)

// DefaultReportInterval is how often Run logs the running tallies.
const DefaultReportInterval = time.Minute

// SignCount is one line of a tally report.
type SignCount struct {
	Sign  string
	Count int64
}

// Tally is a point-in-time copy of the worker's counters.
type Tally struct {
	Total  int64
	Counts map[string]int64
}

// Ranked orders signs by count, busiest first, ties by name.
func (t Tally) Ranked() []SignCount {
	out := make([]SignCount, 0, len(t.Counts))
	for sign, n := range t.Counts {
		out = append(out, SignCount{Sign: sign, Count: n})
	}
	slices.SortFunc(out, func(a, b SignCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Sign, b.Sign)
	})
	return out
}

// String renders "Aries=3 Leo=1".
func (t Tally) String() string {
	parts := make([]string, 0, len(t.Counts))
	for _, sc := range t.Ranked() {
		parts = append(parts, fmt.Sprintf("%s=%d", sc.Sign, sc.Count))
	}
	return strings.Join(parts, " ")
}

// TallyWorker counts sign resolved events in memory. Counts are lost on
// restart.
type TallyWorker struct {
	logger *log.Logger

	mu     sync.Mutex
	total  int64
	counts map[string]int64
}

func NewTallyWorker(logger *log.Logger) *TallyWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &TallyWorker{
		logger: logger.WithComponent(log.ComponentWorker),
		counts: make(map[string]int64),
	}
}

// HandleSignResolved processes a single message from AMQP.
func (w *TallyWorker) HandleSignResolved(ctx context.Context, msg *amqp.SignResolvedMessage) error {
	if msg == nil {
		return fmt.Errorf("nil message")
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}

	w.mu.Lock()
	w.total++
	w.counts[msg.Sign]++
	n := w.counts[msg.Sign]
	w.mu.Unlock()

	w.logger.DebugContext(ctx, "Sign resolved event counted",
		log.FieldSign, msg.Sign,
		log.FieldMonth, msg.Month,
		log.FieldDay, msg.Day,
		"count", n,
		log.FieldOperation, log.OpConsume)
	return nil
}

// Snapshot copies the current counters.
func (w *TallyWorker) Snapshot() Tally {
	w.mu.Lock()
	defer w.mu.Unlock()

	counts := make(map[string]int64, len(w.counts))
	for k, v := range w.counts {
		counts[k] = v
	}
	return Tally{Total: w.total, Counts: counts}
}

// Run logs the tallies every interval until ctx is done, then logs them
// one last time.
func (w *TallyWorker) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultReportInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var reported int64 = -1
	for {
		select {
		case <-ctx.Done():
			w.report(context.WithoutCancel(ctx), "Final sign tallies")
			return nil
		case <-ticker.C:
			// Skip quiet periods
			if t := w.Snapshot(); t.Total != reported {
				reported = t.Total
				w.report(ctx, "Sign tallies")
			}
		}
	}
}

func (w *TallyWorker) report(ctx context.Context, msg string) {
	t := w.Snapshot()
	w.logger.InfoContext(ctx, msg,
		"total", t.Total,
		"tallies", t.String())
}
