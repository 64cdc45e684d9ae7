// Package scanner turns a stream of decoded codes (camera or keyboard-wedge
// scanner) into check-in calls, dropping repeat decodes inside a debounce window.
package scanner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"time"

	"github.com/mcoot/eventsphere/internal/dependencies/clock"
)

// DefaultWindow is how long decodes are ignored after an accepted one
const DefaultWindow = 3 * time.Second

// MaxLineLength is the longest line Lines accepts, in bytes
const MaxLineLength = 4 << 10

// ErrLineTooLong marks an input line that was skipped for exceeding MaxLineLength
var ErrLineTooLong = fmt.Errorf("scanned line exceeds %d bytes", MaxLineLength)

// Debouncer decides whether a decode is accepted
type Debouncer struct {
	Window time.Duration
}

// Allow reports whether a decode arriving sinceLast after the previous
// accepted decode should be accepted. The first decode is always accepted.
func (d Debouncer) Allow(sinceLast time.Duration, first bool) bool {
	return first || sinceLast >= d.Window
}

// CheckInFunc checks in one registration id and returns the user-facing message
type CheckInFunc func(ctx context.Context, id string) (string, error)

// Outcome describes what happened to one decoded code
type Outcome struct {
	Code      string
	Message   string
	Err       error
	Debounced bool
}

// Scanner feeds decoded codes into a check-in function
type Scanner struct {
	debouncer Debouncer
	clock     clock.Clock
	checkIn   CheckInFunc
}

// New creates a scanner. A zero window uses DefaultWindow.
func New(window time.Duration, clock clock.Clock, checkIn CheckInFunc) *Scanner {
	if window == 0 {
		window = DefaultWindow
	}
	return &Scanner{
		debouncer: Debouncer{Window: window},
		clock:     clock,
		checkIn:   checkIn,
	}
}

// Run pulls codes until the sequence ends or ctx is cancelled, checking in
// each accepted code and passing every non-blank code's outcome to report.
// A code paired with ErrLineTooLong is reported and skipped; any other
// source error stops the run and is returned. Check-in failures are
// reported, not returned. Cancellation returns ctx.Err().
func (s *Scanner) Run(ctx context.Context, codes iter.Seq2[string, error], report func(Outcome)) error {
	var (
		last  time.Time
		first = true
	)

	for raw, err := range codes {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if errors.Is(err, ErrLineTooLong) {
			report(Outcome{Err: err})
			continue
		}
		if err != nil {
			return fmt.Errorf("read codes: %w", err)
		}

		code := strings.TrimSpace(raw)
		if code == "" {
			continue
		}

		now := s.clock.Now()
		if !s.debouncer.Allow(now.Sub(last), first) {
			report(Outcome{Code: code, Debounced: true})
			continue
		}
		first = false
		last = now

		msg, err := s.checkIn(ctx, code)
		report(Outcome{Code: code, Message: msg, Err: err})
	}

	return ctx.Err()
}

// Lines yields one code per line of r, as a keyboard-wedge scanner types them.
// A line longer than MaxLineLength is discarded and yielded as ErrLineTooLong
// so reading carries on with the next line. A read error is yielded once and
// ends the sequence; EOF ends it silently.
func Lines(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		// Room for a full line plus CRLF
		br := bufio.NewReaderSize(r, MaxLineLength+2)
		for {
			line, isPrefix, err := br.ReadLine()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					yield("", err)
				}
				return
			}

			if isPrefix || len(line) > MaxLineLength {
				for isPrefix && err == nil {
					_, isPrefix, err = br.ReadLine()
				}
				if !yield("", ErrLineTooLong) {
					return
				}
				if err != nil {
					if !errors.Is(err, io.EOF) {
						yield("", err)
					}
					return
				}
				continue
			}

			if !yield(string(line), nil) {
				return
			}
		}
	}
}
