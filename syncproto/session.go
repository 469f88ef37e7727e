// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package syncproto

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/p2pspace/core/event"
	"github.com/p2pspace/core/internal/metrics"
)

// RoomLog is the subset of *event.DAG a sync Session needs: a
// content-addressed, idempotent store with a frontier. *event.DAG
// satisfies it directly.
type RoomLog interface {
	Has(eventID string) bool
	Get(eventID string) (*event.Event, bool)
	Heads() []string
	Add(e *event.Event) error
	MissingParents(e *event.Event) []string
}

// Acceptor runs the inbound acceptance pipeline (accept.Accept,
// closed over the caller's genesis/membership/limits/clock) against
// a single event. Session treats any non-nil error as a drop.
type Acceptor func(e *event.Event) error

// Warner logs a rate-limit or protocol warning, throttled by the
// caller if desired. Session itself throttles to at most once per
// second per bucket.
type Warner func(format string, args ...interface{})

// Config bundles a Session's fixed dependencies.
type Config struct {
	SpaceID     string
	RoomID      string
	Log         RoomLog
	Accept      Acceptor
	Send        func(Frame) error
	Warn        Warner
	Now         func() int64
	Concurrency int // bounded fan-out for have-batch acceptance; 0 => 4

	// Rate-limit overrides; zero means the protocol defaults
	// (messages burst 60 refill 20/s, verifications burst 80 refill
	// 20/s). Exposed so an embedder's local-policy config can retune
	// buckets per deployment without touching this package.
	MessagesBurst             int
	MessagesRefillPerSec      float64
	VerificationsBurst        int
	VerificationsRefillPerSec float64
}

// Session drives the per-peer, per-Room gossip state machine. It is
// not safe for concurrent use by multiple goroutines without
// external synchronization beyond what HandleFrame itself needs.
type Session struct {
	cfg Config

	mu            sync.Mutex
	messages      *rate.Limiter
	verifications *rate.Limiter
	lastMsgWarn   time.Time
	lastVerWarn   time.Time

	pendingMu sync.Mutex
	pending   map[string]*event.Event // orphans waiting on missing parents
}

// NewSession constructs a Session with the default token buckets:
// messages burst 60 refill 20/s, verifications burst 80 refill 20/s.
func NewSession(cfg Config) *Session {
	if cfg.Now == nil {
		cfg.Now = func() int64 { return time.Now().UnixMilli() }
	}
	if cfg.Warn == nil {
		cfg.Warn = func(string, ...interface{}) {}
	}
	msgBurst, msgRefill := cfg.MessagesBurst, cfg.MessagesRefillPerSec
	if msgBurst == 0 {
		msgBurst = 60
	}
	if msgRefill == 0 {
		msgRefill = 20
	}
	verBurst, verRefill := cfg.VerificationsBurst, cfg.VerificationsRefillPerSec
	if verBurst == 0 {
		verBurst = 80
	}
	if verRefill == 0 {
		verRefill = 20
	}
	return &Session{
		cfg:           cfg,
		messages:      rate.NewLimiter(rate.Limit(msgRefill), msgBurst),
		verifications: rate.NewLimiter(rate.Limit(verRefill), verBurst),
		pending:       make(map[string]*event.Event),
	}
}

// Open sends the opening hello/heads pair on transport open.
func (s *Session) Open() error {
	if err := s.send(HelloFrame(s.cfg.SpaceID, s.cfg.RoomID)); err != nil {
		return err
	}
	return s.sendHeads()
}

func (s *Session) sendHeads() error {
	return s.send(HeadsFrame(s.cfg.SpaceID, s.cfg.RoomID, s.cfg.Log.Heads()))
}

// send wraps cfg.Send with the outbound frame-type counter.
func (s *Session) send(f Frame) error {
	metrics.SyncFramesSent.WithLabelValues(string(f.T)).Inc()
	return s.cfg.Send(f)
}

// HandleFrame dispatches an inbound frame through the gossip state
// machine. It is the single entry point a transport driver calls for
// every decoded message.
func (s *Session) HandleFrame(f Frame) error {
	metrics.SyncFramesReceived.WithLabelValues(string(f.T)).Inc()
	if !s.messages.Allow() {
		metrics.SyncRateLimited.WithLabelValues("messages").Inc()
		s.warnOncePerSecond(&s.lastMsgWarn, "syncproto: peer %s message rate limited", s.cfg.RoomID)
		return nil
	}

	switch f.T {
	case TypeHello:
		return s.sendHeads()
	case TypeHeads:
		return s.handleHeads(f)
	case TypeWant:
		return s.handleWant(f)
	case TypeHave:
		return s.handleHave(f)
	default:
		return fmt.Errorf("syncproto: unknown frame type %q", f.T)
	}
}

// handleHeads computes the set-difference of the peer's heads and
// local knowledge, bounded to MaxHeads, and requests the gap with a
// want frame.
func (s *Session) handleHeads(f Frame) error {
	heads := f.Heads
	if len(heads) > MaxHeads {
		heads = heads[:MaxHeads]
	}
	var want []string
	for _, id := range heads {
		if !s.cfg.Log.Has(id) {
			want = append(want, id)
		}
	}
	if len(want) == 0 {
		return nil
	}
	return s.send(WantFrame(s.cfg.SpaceID, s.cfg.RoomID, want))
}

// handleWant replies with whichever requested ids the local log
// holds, bounded to MaxHave.
func (s *Session) handleWant(f Frame) error {
	ids := f.IDs
	if len(ids) > MaxWant {
		ids = ids[:MaxWant]
	}
	var have []*event.Event
	for _, id := range ids {
		if e, ok := s.cfg.Log.Get(id); ok {
			have = append(have, e)
			if len(have) == MaxHave {
				break
			}
		}
	}
	if len(have) == 0 {
		return nil
	}
	return s.send(HaveFrame(s.cfg.SpaceID, s.cfg.RoomID, have))
}

// handleHave runs the acceptance pipeline on each offered event (only
// the first MaxHave; any excess is ignored), with
// bounded concurrency via errgroup and a per-event verification-rate
// check. Accepted events are appended and the orphan set is drained
// of anything newly unblocked.
func (s *Session) handleHave(f Frame) error {
	events := f.Events
	if len(events) > MaxHave {
		events = events[:MaxHave]
	}

	concurrency := s.cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	g := new(errgroup.Group)
	g.SetLimit(concurrency)

	var mu sync.Mutex
	accepted := make([]*event.Event, 0, len(events))

	for _, e := range events {
		e := e
		if s.cfg.Log.Has(e.EventID) {
			continue
		}
		g.Go(func() error {
			if !s.verifications.Allow() {
				metrics.SyncRateLimited.WithLabelValues("verifications").Inc()
				s.warnOncePerSecond(&s.lastVerWarn, "syncproto: peer %s verification rate limited", s.cfg.RoomID)
				return nil
			}
			if err := s.cfg.Accept(e); err != nil {
				return nil // categorized rejection; drop and keep going
			}
			mu.Lock()
			accepted = append(accepted, e)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, e := range accepted {
		s.storeOrQueue(e)
	}
	s.drainPending()

	// Ask for the parents still blocking orphans right away rather
	// than waiting for the peer's next heads frame to expose the gap.
	if missing := s.MissingAncestors(); len(missing) > 0 {
		if len(missing) > MaxWant {
			missing = missing[:MaxWant]
		}
		return s.send(WantFrame(s.cfg.SpaceID, s.cfg.RoomID, missing))
	}
	return nil
}

// storeOrQueue adds e to the log if its parents are all known, or
// stashes it as an orphan awaiting gap-fill otherwise.
func (s *Session) storeOrQueue(e *event.Event) {
	if missing := s.cfg.Log.MissingParents(e); len(missing) > 0 {
		s.pendingMu.Lock()
		s.pending[e.EventID] = e
		s.pendingMu.Unlock()
		s.reportPending()
		return
	}
	_ = s.cfg.Log.Add(e)
}

// reportPending syncs the pending-orphan gauge to the current buffer
// size. Called with pendingMu released.
func (s *Session) reportPending() {
	s.pendingMu.Lock()
	n := len(s.pending)
	s.pendingMu.Unlock()
	metrics.SyncPendingOrphans.WithLabelValues(s.cfg.RoomID).Set(float64(n))
}

// drainPending repeatedly attempts to add orphaned events whose
// parents have since arrived, until a full pass makes no progress.
func (s *Session) drainPending() {
	for {
		s.pendingMu.Lock()
		progressed := false
		for id, e := range s.pending {
			if len(s.cfg.Log.MissingParents(e)) == 0 {
				if err := s.cfg.Log.Add(e); err == nil {
					delete(s.pending, id)
					progressed = true
				}
			}
		}
		s.pendingMu.Unlock()
		if !progressed {
			s.reportPending()
			return
		}
	}
}

// MissingAncestors reports the distinct parent ids still blocking
// orphaned events, sorted ascending.
func (s *Session) MissingAncestors() []string {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	seen := make(map[string]struct{})
	var out []string
	for _, e := range s.pending {
		for _, id := range s.cfg.Log.MissingParents(e) {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	}
	sort.Strings(out)
	return out
}

// NotifyLocalEvent implements forward propagation: eagerly emit a
// have{[e]} to the connected peer as soon as a new local event is
// persisted.
func (s *Session) NotifyLocalEvent(e *event.Event) error {
	return s.send(HaveFrame(s.cfg.SpaceID, s.cfg.RoomID, []*event.Event{e}))
}

func (s *Session) warnOncePerSecond(last *time.Time, format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if now.Sub(*last) < time.Second {
		return
	}
	*last = now
	s.cfg.Warn(format, args...)
}
