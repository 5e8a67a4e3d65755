package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"zodiac/internal/core"
	"zodiac/internal/log"
)

// Publisher announces resolved signs. *amqp.AsyncPublisher satisfies it.
type Publisher interface {
	PublishSignResolved(ctx context.Context, sign string, month, day int) error
}

// LookupService validates dates, resolves them against the loaded table and
// optionally announces each result.
type LookupService struct {
	table     core.Table
	publisher Publisher
	logger    *log.Logger
}

// NewLookupService wires a table with an optional publisher. A nil
// publisher disables event publishing.
func NewLookupService(table core.Table, publisher Publisher, logger *log.Logger) *LookupService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &LookupService{
		table:     table,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentLookup),
	}
}

// Lookup returns the sign for month/day. Invalid dates fail with
// core.ErrInvalidDate before the table is consulted.
func (s *LookupService) Lookup(ctx context.Context, month, day int) (core.Sign, error) {
	if err := core.ValidateDate(month, day); err != nil {
		return core.Sign{}, err
	}

	sign, err := s.table.Lookup(month, day)
	if err != nil {
		s.logger.ErrorContext(ctx, "No sign matches a valid date",
			log.FieldMonth, month,
			log.FieldDay, day,
			log.FieldOperation, log.OpResolve,
			log.FieldSignCount, s.table.Len())
		return core.Sign{}, fmt.Errorf("resolve %02d-%02d: %w", month, day, err)
	}

	s.logger.DebugContext(ctx, "Sign resolved",
		log.FieldMonth, month,
		log.FieldDay, day,
		log.FieldSign, sign.Name)

	s.publish(ctx, sign.Name, month, day)
	return sign, nil
}

// publish never fails the lookup; errors are only logged.
func (s *LookupService) publish(ctx context.Context, sign string, month, day int) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSignResolved(ctx, sign, month, day); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish sign resolved event",
			log.FieldError, err,
			log.FieldSign, sign,
			log.FieldOperation, log.OpPublish)
	}
}

// Signs returns the table rows in order.
func (s *LookupService) Signs() []core.Sign {
	return s.table.Signs()
}

// Find looks a sign up by name.
func (s *LookupService) Find(name string) (core.Sign, bool) {
	return s.table.Find(name)
}

// Table returns the table the service resolves against.
func (s *LookupService) Table() core.Table {
	return s.table
}

// PublishingEnabled reports whether lookups are announced.
func (s *LookupService) PublishingEnabled() bool {
	return s.publisher != nil
}

type publishCounter interface {
	Dropped() int64
	Failed() int64
}

// PublishFailures reports events dropped before reaching the broker and
// events the broker refused, when the publisher keeps count.
func (s *LookupService) PublishFailures() (dropped, failed int64) {
	if c, ok := s.publisher.(publishCounter); ok {
		return c.Dropped(), c.Failed()
	}
	return 0, 0
}

// Close releases the publisher when it holds a connection.
func (s *LookupService) Close() error {
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close publisher: %w", err)
		}
	}
	return nil
}

// IsUserError reports whether err is caused by the caller's input rather
// than by the service.
func IsUserError(err error) bool {
	return errors.Is(err, core.ErrInvalidDate)
}
