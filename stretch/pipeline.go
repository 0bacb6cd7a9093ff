// SPDX-License-Identifier: EPL-2.0

package stretch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/ik5/splicebox/audio"
)

// State is the lifecycle stage of a stretch.
type State int

const (
	StateUninitialized State = iota
	StateInitialized
	StateStudying
	StateProcessing
	StateFinalized
	StateDisposed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateStudying:
		return "studying"
	case StateProcessing:
		return "processing"
	case StateFinalized:
		return "finalized"
	case StateDisposed:
		return "disposed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MaxOutputFrames bounds the length of a stretched buffer.
const MaxOutputFrames = 1 << 30

// Pipeline drives a Module through study, process and retrieve for whole
// buffers. One Pipeline runs one stretch at a time; concurrent calls to
// Stretch wait for each other.
type Pipeline struct {
	mu     sync.Mutex
	module Module
	logger *slog.Logger
	state  State
}

// Open loads a module with loader. A nil logger discards output.
func Open(ctx context.Context, loader Loader, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if loader == nil {
		return nil, ErrPipelineNotInitialized
	}

	m, err := loader(ctx)
	if err != nil {
		return nil, &PipelineError{Stage: StateUninitialized, Err: err}
	}

	return NewPipeline(m, logger), nil
}

// NewPipeline wraps an already loaded module.
func NewPipeline(m Module, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{module: m, logger: logger}
}

// State reports where the last stretch ended, or StateUninitialized.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Close releases the module. Stretch fails with ErrPipelineNotInitialized
// afterwards.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	m := p.module
	p.module = nil
	p.state = StateUninitialized
	if c, ok := m.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("closing stretch module: %w", err)
		}
	}
	return nil
}

// Stretch returns buf stretched in time by opts.TempoRatio and shifted in
// pitch by opts.PitchScale, at the same sample rate. The output length is
// whatever the engine produced, close to Len()*TempoRatio.
//
// ctx is only checked before the engine is set up; a started stretch runs
// to completion or failure.
func (p *Pipeline) Stretch(ctx context.Context, buf *audio.Buffer, opts Options) (*audio.Buffer, error) {
	if p == nil {
		return nil, ErrPipelineNotInitialized
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if buf == nil || buf.Channels() == 0 {
		return nil, ErrEmptyBuffer
	}
	if frames := float64(buf.Len()) * opts.TempoRatio; frames > MaxOutputFrames {
		return nil, fmt.Errorf("%w: %d frames at tempo ratio %v exceed %d output frames",
			ErrInvalidOptions, buf.Len(), opts.TempoRatio, MaxOutputFrames)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.module == nil {
		return nil, ErrPipelineNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	p.state = StateUninitialized
	r := &run{p: p, m: p.module, buf: buf, opts: opts}
	return r.execute()
}

// run is a single stretch. Every region it allocates is freed, and its
// handle deleted, before execute returns.
type run struct {
	p    *Pipeline
	m    Module
	buf  *audio.Buffer
	opts Options

	handle   Handle
	block    int
	inPtrs   []Ptr
	outPtrs  []Ptr
	inTable  Ptr
	outTable Ptr

	out     [][]float32
	written int
}

func (r *run) setState(s State) {
	r.p.state = s
	r.p.logger.Debug("stretch state", slog.String("state", s.String()))
}

func (r *run) fail(err error) error {
	stage := r.p.state
	r.p.state = StateFailed
	r.p.logger.Error("stretch failed",
		slog.String("stage", stage.String()),
		slog.Any("error", err),
	)
	return &PipelineError{Stage: stage, Err: err}
}

func (r *run) execute() (out *audio.Buffer, err error) {
	channels := r.buf.Channels()

	h, err := r.m.New(Config{
		SampleRate: r.buf.SampleRate(),
		Channels:   channels,
		Flags:      r.opts.Flags(),
		TimeRatio:  r.opts.TempoRatio,
		PitchScale: r.opts.PitchScale,
	})
	if err != nil {
		return nil, r.fail(err)
	}
	r.handle = h
	r.setState(StateInitialized)

	var allocated []Ptr
	defer func() {
		var errs []error
		for _, ptr := range allocated {
			errs = append(errs, r.m.Free(ptr))
		}
		errs = append(errs, r.m.Delete(r.handle))

		if derr := errors.Join(errs...); derr != nil && err == nil {
			out, err = nil, r.fail(derr)
			return
		}
		if err == nil {
			r.setState(StateDisposed)
		}
	}()

	alloc := func(size int) (Ptr, error) {
		ptr, err := r.m.Allocate(size)
		if err != nil {
			return 0, err
		}
		allocated = append(allocated, ptr)
		return ptr, nil
	}

	if r.block, err = r.m.SamplesRequired(h); err != nil {
		return nil, r.fail(err)
	}
	if r.block <= 0 {
		return nil, r.fail(fmt.Errorf("engine requested %d samples per block", r.block))
	}

	r.inPtrs = make([]Ptr, channels)
	r.outPtrs = make([]Ptr, channels)
	for c := range channels {
		if r.inPtrs[c], err = alloc(4 * r.block); err != nil {
			return nil, r.fail(err)
		}
		if r.outPtrs[c], err = alloc(4 * r.block); err != nil {
			return nil, r.fail(err)
		}
	}
	if r.inTable, err = alloc(4 * channels); err != nil {
		return nil, r.fail(err)
	}
	if r.outTable, err = alloc(4 * channels); err != nil {
		return nil, r.fail(err)
	}
	if err := WriteTable(r.m, r.inTable, r.inPtrs); err != nil {
		return nil, r.fail(err)
	}
	if err := WriteTable(r.m, r.outTable, r.outPtrs); err != nil {
		return nil, r.fail(err)
	}

	r.setState(StateStudying)
	if err := r.feed(r.m.Study); err != nil {
		return nil, r.fail(err)
	}

	r.setState(StateProcessing)
	expected := int(math.Ceil(float64(r.buf.Len())*r.opts.TempoRatio)) + r.block
	r.out = make([][]float32, channels)
	for c := range r.out {
		r.out[c] = make([]float32, expected)
	}

	err = r.feed(func(h Handle, table Ptr, n int, final bool) error {
		if err := r.m.Process(h, table, n, final); err != nil {
			return err
		}
		return r.drain(final)
	})
	if err != nil {
		return nil, r.fail(err)
	}

	for c := range r.out {
		r.out[c] = r.out[c][:r.written]
	}
	r.setState(StateFinalized)

	r.p.logger.Debug("stretched buffer",
		slog.Int("frames_in", r.buf.Len()),
		slog.Int("frames_out", r.written),
		slog.Float64("tempo_ratio", r.opts.TempoRatio),
		slog.Float64("pitch_scale", r.opts.PitchScale),
	)

	return audio.NewBufferFromChannels(r.buf.SampleRate(), r.out), nil
}

// feed hands the whole input to step in blocks, marking the last one final.
// An empty input is a single empty final block.
func (r *run) feed(step func(h Handle, table Ptr, n int, final bool) error) error {
	total := r.buf.Len()
	for off := 0; ; off += r.block {
		n := min(r.block, total-off)
		final := off+n >= total

		for c, ptr := range r.inPtrs {
			if err := WriteSamples(r.m, ptr, r.buf.Channel(c)[off:off+n]); err != nil {
				return err
			}
		}
		if err := step(r.handle, r.inTable, n, final); err != nil {
			return err
		}
		if final {
			return nil
		}
	}
}

// drain retrieves output into r.out. Before the final block only whole
// blocks are taken; after it, everything the engine has.
func (r *run) drain(final bool) error {
	for {
		avail, err := r.m.Available(r.handle)
		if err != nil {
			return err
		}
		if avail <= 0 || (!final && avail < r.block) {
			return nil
		}

		got, err := r.m.Retrieve(r.handle, r.outTable, min(avail, r.block))
		if err != nil {
			return err
		}
		if got == 0 {
			return nil
		}

		for c, ptr := range r.outPtrs {
			samples, err := ReadSamples(r.m, ptr, got)
			if err != nil {
				return err
			}
			if r.written+got > len(r.out[c]) {
				r.out[c] = append(r.out[c], make([]float32, r.written+got-len(r.out[c]))...)
			}
			copy(r.out[c][r.written:], samples)
		}
		r.written += got
	}
}
