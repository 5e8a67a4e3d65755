package worker

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"zodiac/internal/amqp"
	"zodiac/internal/log"
)

func TestTallyWorker_HandleSignResolved(t *testing.T) {
	w := NewTallyWorker(log.New(log.Config{Output: &bytes.Buffer{}}))
	ctx := context.Background()

	for _, m := range []*amqp.SignResolvedMessage{
		amqp.NewSignResolvedMessage("Leo", 8, 1),
		amqp.NewSignResolvedMessage("Aries", 3, 21),
		amqp.NewSignResolvedMessage("Leo", 7, 30),
	} {
		if err := w.HandleSignResolved(ctx, m); err != nil {
			t.Fatalf("HandleSignResolved(%+v): %v", m, err)
		}
	}

	snap := w.Snapshot()
	if snap.Total != 3 {
		t.Errorf("Total = %d, want 3", snap.Total)
	}
	if snap.Counts["Leo"] != 2 || snap.Counts["Aries"] != 1 {
		t.Errorf("Counts = %v", snap.Counts)
	}
	if got := snap.String(); got != "Leo=2 Aries=1" {
		t.Errorf("String() = %q", got)
	}

	// Snapshot is a copy
	snap.Counts["Leo"] = 100
	if w.Snapshot().Counts["Leo"] != 2 {
		t.Error("Snapshot must not alias worker state")
	}
}

func TestTallyWorker_RejectsInvalidMessages(t *testing.T) {
	w := NewTallyWorker(nil)
	ctx := context.Background()

	tests := []struct {
		name string
		msg  *amqp.SignResolvedMessage
	}{
		{name: "nil", msg: nil},
		{name: "empty sign", msg: amqp.NewSignResolvedMessage("", 3, 21)},
		{name: "bad date", msg: amqp.NewSignResolvedMessage("Pisces", 2, 30)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := w.HandleSignResolved(ctx, tt.msg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	if w.Snapshot().Total != 0 {
		t.Fatal("rejected messages must not be counted")
	}
}

func TestTally_RankedBreaksTiesByName(t *testing.T) {
	tally := Tally{Counts: map[string]int64{"Virgo": 1, "Cancer": 1, "Libra": 4}}
	got := tally.Ranked()
	want := []SignCount{{"Libra", 4}, {"Cancer", 1}, {"Virgo", 1}}
	if len(got) != len(want) {
		t.Fatalf("Ranked() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Ranked()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestTallyWorker_RunReportsOnShutdown(t *testing.T) {
	var buf bytes.Buffer
	w := NewTallyWorker(log.New(log.Config{Output: &buf}))
	_ = w.HandleSignResolved(context.Background(), amqp.NewSignResolvedMessage("Gemini", 6, 1))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, time.Hour) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	if !strings.Contains(buf.String(), "Final sign tallies") || !strings.Contains(buf.String(), "Gemini=1") {
		t.Fatalf("missing final report: %s", buf.String())
	}
}
