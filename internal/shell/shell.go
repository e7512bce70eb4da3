// Package shell owns the state of one recipe-generator page: the ingredient
// text, the current recipes, the loading flag and the error message. It allows
// at most one generation attempt in flight and publishes every change to
// subscribers so the page can be re-rendered.
package shell

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"recipegen/internal/generation"
	"recipegen/internal/models"

	"github.com/rs/zerolog"
)

// Phase is the coarse state of a shell.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseGenerating Phase = "generating"
)

var (
	// ErrEmptyInput is returned by Trigger for blank ingredient text.
	ErrEmptyInput = errors.New("shell: ingredients are blank")
	// ErrBusy is returned by Trigger while an attempt is in flight.
	ErrBusy = errors.New("shell: generation already in progress")
	// ErrClosed is returned by Trigger after Close.
	ErrClosed = errors.New("shell: closed")
)

// Generator produces recipes for an ingredient list.
type Generator interface {
	Generate(ctx context.Context, ingredients string) ([]models.Recipe, error)
}

// Snapshot is a copy of the shell state, safe to render or serialize.
type Snapshot struct {
	Phase       Phase           `json:"phase"`
	Ingredients string          `json:"ingredients"`
	Recipes     []models.Recipe `json:"recipes"`
	Loading     bool            `json:"isLoading"`
	Error       string          `json:"errorMessage,omitempty"`
	Attempt     uint64          `json:"attempt"`
}

// Option configures a Shell.
type Option func(*Shell)

// WithIngredients sets the initial ingredient text.
func WithIngredients(text string) Option {
	return func(s *Shell) { s.state.Ingredients = text }
}

// WithLogger sets the shell logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Shell) { s.log = log }
}

// WithContext sets the parent context of every attempt. Cancelling it
// cancels whatever is in flight.
func WithContext(ctx context.Context) Option {
	return func(s *Shell) { s.base = ctx }
}

// Shell is the single owner of one page's state. All methods are safe for
// concurrent use.
type Shell struct {
	mu         sync.Mutex
	gen        Generator
	log        zerolog.Logger
	base       context.Context
	state      Snapshot
	cancel     context.CancelFunc
	lastActive time.Time
	subs       map[int]chan Snapshot
	nextSub    int
	closed     bool
	wg         sync.WaitGroup
}

// New creates an idle shell.
func New(gen Generator, opts ...Option) *Shell {
	s := &Shell{
		gen:        gen,
		log:        zerolog.Nop(),
		base:       context.Background(),
		state:      Snapshot{Phase: PhaseIdle},
		lastActive: time.Now(),
		subs:       make(map[int]chan Snapshot),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Snapshot returns a deep copy of the current state.
func (s *Shell) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()
	return s.snapshotLocked()
}

// SetIngredients forwards an edit of the ingredient text. Edits are ignored
// while generating, matching the disabled text area.
func (s *Shell) SetIngredients(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()
	if s.closed || s.state.Loading || s.state.Ingredients == text {
		return false
	}
	s.state.Ingredients = text
	s.publishLocked()
	return true
}

// Trigger starts a generation attempt for text. Blank text sets the error
// message and returns ErrEmptyInput without calling the generator; a second
// trigger while one is in flight returns ErrBusy.
func (s *Shell) Trigger(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	if s.closed {
		return ErrClosed
	}
	if s.state.Loading {
		return ErrBusy
	}

	s.state.Ingredients = text
	if strings.TrimSpace(text) == "" {
		s.state.Error = generation.KindEmptyInput.Message()
		s.publishLocked()
		return ErrEmptyInput
	}

	ctx, cancel := context.WithCancel(s.base)
	s.cancel = cancel
	s.state.Attempt++
	s.state.Phase = PhaseGenerating
	s.state.Loading = true
	s.state.Recipes = nil
	s.state.Error = ""
	s.publishLocked()

	attempt := s.state.Attempt
	s.log.Debug().Uint64("attempt", attempt).Msg("generation started")

	s.wg.Add(1)
	go s.run(ctx, attempt, text)
	return nil
}

func (s *Shell) run(ctx context.Context, attempt uint64, text string) {
	defer s.wg.Done()

	recipes, err := s.gen.Generate(ctx, text)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Cancel already folded this attempt back to idle.
	if attempt != s.state.Attempt || !s.state.Loading {
		return
	}

	s.cancel()
	s.cancel = nil
	s.state.Phase = PhaseIdle
	s.state.Loading = false

	if err != nil {
		s.state.Error = generation.Message(err)
		s.log.Debug().Uint64("attempt", attempt).Err(err).Msg("generation failed")
	} else {
		s.state.Recipes = models.CloneRecipes(recipes)
		s.state.Error = ""
		s.log.Debug().Uint64("attempt", attempt).Int("recipes", len(recipes)).Msg("generation finished")
	}
	s.publishLocked()
}

// Cancel aborts the attempt in flight and returns to idle with a cancellation
// message. It reports false if nothing was in flight.
func (s *Shell) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	if s.closed || !s.state.Loading {
		return false
	}

	s.cancel()
	s.cancel = nil
	s.state.Phase = PhaseIdle
	s.state.Loading = false
	s.state.Error = generation.KindCancelled.Message()
	s.publishLocked()
	return true
}

// Wait blocks until no attempt goroutine is running.
func (s *Shell) Wait() {
	s.wg.Wait()
}

// Subscribe returns a channel that receives the latest snapshot after every
// change. Slow readers only ever see the newest state. The returned func
// unsubscribes and closes the channel.
func (s *Shell) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Snapshot, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(sub)
			}
		})
	}
}

// Close cancels any attempt in flight and closes all subscriptions.
func (s *Shell) Close() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// Closed reports whether Close has been called.
func (s *Shell) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Shell) touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

// IdleSince reports when the shell was last touched, and whether it is idle.
func (s *Shell) IdleSince() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive, !s.state.Loading
}

func (s *Shell) snapshotLocked() Snapshot {
	snap := s.state
	snap.Recipes = models.CloneRecipes(s.state.Recipes)
	return snap
}

func (s *Shell) publishLocked() {
	snap := s.snapshotLocked()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}
