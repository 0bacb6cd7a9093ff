// SPDX-License-Identifier: EPL-2.0

package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ik5/splicebox/audio"
	"github.com/ik5/splicebox/compose"
	"github.com/ik5/splicebox/formats/wav"
	"github.com/ik5/splicebox/marker"
	"github.com/ik5/splicebox/metrics"
	"github.com/ik5/splicebox/stretch"
)

// Operation names, as used in logs and metrics.
const (
	OpLoad         = "load"
	OpAppend       = "append"
	OpTruncate     = "truncate"
	OpStretch      = "stretch"
	OpAddMarker    = "add_marker"
	OpRemoveMarker = "remove_marker"
	OpLockMarker   = "lock_marker"
	OpUnlockMarker = "unlock_marker"
	OpUndo         = "undo"
)

const defaultUndoDepth = 32

// State is one committed version of the audio. States are immutable once
// committed.
type State struct {
	Buffer  *audio.Buffer
	Markers marker.Set
	// Audio is Buffer and every marker serialized as a WAV file.
	Audio    []byte
	Duration float64
}

// Listener is called with the new state after every successful operation,
// including a Truncate that had nothing to cut. Listeners run
// while the operation still holds the session, so starting another
// operation from a listener fails with ErrBusy.
type Listener func(op string, state State)

// Composer is the subset of *compose.Composer a Session uses.
type Composer interface {
	Concatenate(ctx context.Context, files []compose.File, truncate bool, maxDuration float64) (*compose.Result, error)
	Append(ctx context.Context, existing *audio.Buffer, existingMarkers []float64, files []compose.File, truncate bool, maxDuration float64) (*compose.Result, error)
	Truncate(result *compose.Result, maxDuration float64) (*compose.Result, error)
}

// Stretcher is the subset of *stretch.Pipeline a Session uses.
type Stretcher interface {
	Stretch(ctx context.Context, buf *audio.Buffer, opts stretch.Options) (*audio.Buffer, error)
}

// Session owns the current audio of an editor. Every operation builds a
// complete new State and installs it in one step; a failed operation
// leaves the current State untouched.
type Session struct {
	composer  Composer
	stretcher Stretcher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	undoDepth int

	busy atomic.Bool

	mu        sync.RWMutex
	current   *State
	undo      []State
	listeners []Listener
}

type Option func(*Session)

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithUndoDepth bounds the undo history. Zero disables undo.
func WithUndoDepth(n int) Option {
	return func(s *Session) { s.undoDepth = max(n, 0) }
}

func WithListener(l Listener) Option {
	return func(s *Session) { s.listeners = append(s.listeners, l) }
}

// New returns an empty Session. stretcher may be nil when time stretching
// is not needed.
func New(composer Composer, stretcher Stretcher, opts ...Option) *Session {
	s := &Session{
		composer:  composer,
		stretcher: stretcher,
		logger:    slog.New(slog.DiscardHandler),
		undoDepth: defaultUndoDepth,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe adds a listener for future commits.
func (s *Session) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Current returns the committed state, if any audio is loaded.
func (s *Session) Current() (State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return State{}, false
	}
	return *s.current, true
}

// UndoDepth reports how many states Undo can restore.
func (s *Session) UndoDepth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.undo)
}

// Load replaces the current audio with files joined end to end. Join
// boundaries become locked markers.
func (s *Session) Load(ctx context.Context, files []compose.File, truncate bool, maxDuration float64) (State, error) {
	return s.run(OpLoad, func(State, bool) (*State, error) {
		res, err := s.composer.Concatenate(ctx, files, truncate, maxDuration)
		if err != nil {
			return nil, err
		}
		s.warn(res)
		return s.build(res.Buffer, marker.NewSet(res.Markers, res.Boundaries))
	})
}

// Append joins files after the current audio. Markers already placed are
// kept, and the junction is locked.
func (s *Session) Append(ctx context.Context, files []compose.File, truncate bool, maxDuration float64) (State, error) {
	return s.run(OpAppend, func(cur State, ok bool) (*State, error) {
		if !ok {
			return nil, ErrNoAudio
		}

		res, err := s.composer.Append(ctx, cur.Buffer, cur.Markers.All(), files, truncate, maxDuration)
		if err != nil {
			return nil, err
		}
		s.warn(res)

		locked := append(append([]float64{}, cur.Markers.Locked...), res.Boundaries...)
		return s.build(res.Buffer, marker.NewSet(res.Markers, locked))
	})
}

// Truncate cuts the current audio to maxDuration. Audio that is already
// short enough is left as it is, without an undo entry.
func (s *Session) Truncate(maxDuration float64) (State, error) {
	return s.run(OpTruncate, func(cur State, ok bool) (*State, error) {
		if !ok {
			return nil, ErrNoAudio
		}

		res, err := s.composer.Truncate(&compose.Result{
			Buffer:     cur.Buffer,
			Markers:    cur.Markers.Splice,
			Boundaries: cur.Markers.Locked,
			Duration:   cur.Duration,
		}, maxDuration)
		if err != nil {
			return nil, err
		}
		if res.Buffer == cur.Buffer {
			return nil, nil
		}

		return s.build(res.Buffer, marker.NewSet(res.Markers, res.Boundaries))
	})
}

// Stretch changes tempo and pitch of the current audio. Every marker is
// moved to position*TempoRatio so it stays on the same musical event.
func (s *Session) Stretch(ctx context.Context, opts stretch.Options) (State, error) {
	return s.run(OpStretch, func(cur State, ok bool) (*State, error) {
		if !ok {
			return nil, ErrNoAudio
		}
		if s.stretcher == nil {
			return nil, ErrNoStretcher
		}

		out, err := s.stretcher.Stretch(ctx, cur.Buffer, opts)
		if err != nil {
			return nil, err
		}
		if s.metrics != nil {
			s.metrics.RecordStretch(out.Len())
		}

		return s.build(out, cur.Markers.Scaled(opts.TempoRatio))
	})
}

// AddMarker places an unlocked marker at p seconds.
func (s *Session) AddMarker(p float64) (State, error) {
	return s.editMarkers(OpAddMarker, func(m marker.Set, duration float64) (marker.Set, error) {
		return m.Add(p, duration)
	})
}

// RemoveMarker deletes the unlocked marker at p.
func (s *Session) RemoveMarker(p float64) (State, error) {
	return s.editMarkers(OpRemoveMarker, func(m marker.Set, _ float64) (marker.Set, error) {
		return m.Remove(p)
	})
}

// LockMarker locks the marker at p, placing it first if needed.
func (s *Session) LockMarker(p float64) (State, error) {
	return s.editMarkers(OpLockMarker, func(m marker.Set, duration float64) (marker.Set, error) {
		if p < 0 || p >= duration {
			return m, marker.ErrOutOfRange
		}
		return m.Lock(p), nil
	})
}

func (s *Session) UnlockMarker(p float64) (State, error) {
	return s.editMarkers(OpUnlockMarker, func(m marker.Set, _ float64) (marker.Set, error) {
		return m.Unlock(p)
	})
}

// Undo restores the state before the last committed operation.
func (s *Session) Undo() (State, error) {
	op := OpUndo
	if !s.busy.CompareAndSwap(false, true) {
		s.record(op, metrics.ResultRejected, 0)
		return State{}, ErrBusy
	}
	defer s.busy.Store(false)
	start := time.Now()

	s.mu.Lock()
	if len(s.undo) == 0 {
		s.mu.Unlock()
		s.record(op, metrics.ResultError, time.Since(start))
		return State{}, ErrNothingToUndo
	}
	prev := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.current = &prev
	depth := len(s.undo)
	listeners := append([]Listener{}, s.listeners...)
	s.mu.Unlock()

	s.logger.Info("undo", slog.Float64("duration", prev.Duration), slog.Int("undo_depth", depth))
	s.publish(op, prev, depth, listeners)
	s.record(op, metrics.ResultOK, time.Since(start))

	return prev, nil
}

func (s *Session) editMarkers(op string, edit func(marker.Set, float64) (marker.Set, error)) (State, error) {
	return s.run(op, func(cur State, ok bool) (*State, error) {
		if !ok {
			return nil, ErrNoAudio
		}

		markers, err := edit(cur.Markers, cur.Duration)
		if err != nil {
			return nil, err
		}
		return s.build(cur.Buffer, markers)
	})
}

// build assembles a State, dropping markers outside the new audio.
func (s *Session) build(buf *audio.Buffer, markers marker.Set) (*State, error) {
	duration := buf.Duration()
	markers = markers.Within(duration)

	data, err := wav.Serialize(buf, markers.All())
	if err != nil {
		return nil, fmt.Errorf("serializing audio: %w", err)
	}

	return &State{
		Buffer:   buf,
		Markers:  markers,
		Audio:    data,
		Duration: duration,
	}, nil
}

// run executes one operation. fn gets the current state and returns the
// next one, or nil to leave everything as it is. Listeners hear about both.
func (s *Session) run(op string, fn func(cur State, ok bool) (*State, error)) (State, error) {
	if !s.busy.CompareAndSwap(false, true) {
		s.record(op, metrics.ResultRejected, 0)
		return State{}, ErrBusy
	}
	defer s.busy.Store(false)
	start := time.Now()

	cur, ok := s.Current()
	next, err := fn(cur, ok)
	if err != nil {
		s.logger.Warn("operation failed", slog.String("op", op), slog.Any("error", err))
		var decodeErr *compose.DecodeError
		if s.metrics != nil && errors.As(err, &decodeErr) {
			s.metrics.RecordDecodeError()
		}
		s.record(op, metrics.ResultError, time.Since(start))
		return State{}, err
	}
	if next == nil {
		s.mu.RLock()
		depth := len(s.undo)
		listeners := append([]Listener{}, s.listeners...)
		s.mu.RUnlock()

		s.logger.Debug("nothing to change", slog.String("op", op))
		s.publish(op, cur, depth, listeners)
		s.record(op, metrics.ResultOK, time.Since(start))
		return cur, nil
	}

	s.mu.Lock()
	if s.current != nil && s.undoDepth > 0 {
		s.undo = append(s.undo, *s.current)
		if over := len(s.undo) - s.undoDepth; over > 0 {
			s.undo = append(s.undo[:0], s.undo[over:]...)
		}
	}
	s.current = next
	depth := len(s.undo)
	listeners := append([]Listener{}, s.listeners...)
	s.mu.Unlock()

	s.logger.Info("committed",
		slog.String("op", op),
		slog.Float64("duration", next.Duration),
		slog.Int("splice_markers", len(next.Markers.Splice)),
		slog.Int("locked_markers", len(next.Markers.Locked)),
		slog.Int("undo_depth", depth),
	)

	s.publish(op, *next, depth, listeners)
	s.record(op, metrics.ResultOK, time.Since(start))

	return *next, nil
}

func (s *Session) publish(op string, st State, depth int, listeners []Listener) {
	if s.metrics != nil {
		s.metrics.SetState(st.Duration, len(st.Markers.Splice), len(st.Markers.Locked), depth)
	}
	for _, l := range listeners {
		l(op, st)
	}
}

func (s *Session) warn(res *compose.Result) {
	if s.metrics != nil && len(res.Warnings) > 0 {
		s.metrics.RecordRateWarnings(len(res.Warnings))
	}
}

func (s *Session) record(op, result string, elapsed time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordOperation(op, result, elapsed)
	}
}
