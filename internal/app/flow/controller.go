// Package flow drives one reflection session from landing to saved or
// discarded. Moves that the transition table does not allow are ignored.
package flow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/limen-app/limen/internal/domain"
	"github.com/limen-app/limen/internal/observability"
)

// Options configures a Controller. Store and Generator are required.
type Options struct {
	Store     domain.ReflectionStore
	Generator domain.ReflectionGenerator

	// Questions defaults to PoolQuestions with math/rand/v2.
	Questions QuestionSource
	// Timeout bounds each generator call; defaults to DefaultTimeout.
	Timeout time.Duration

	// Consented reports whether the owner agreed to reflect. It is asked
	// on every Begin; nil means no consent is required.
	Consented func() bool

	Now   func() time.Time
	NewID func(time.Time) domain.ReflectionID
}

// Controller owns exactly one live session. It is safe to call from
// several goroutines, but is meant for a single user driving it.
type Controller struct {
	mu      sync.Mutex
	session domain.Session
	epochs  uint64

	// in-flight work; while any is set, only Abandon is accepted
	generating bool
	picking    bool
	saving     bool

	store      domain.ReflectionStore
	generation *Generation
	questions  QuestionSource
	consented  func() bool
	now        func() time.Time
	newID      func(time.Time) domain.ReflectionID
}

func NewController(opts Options) (*Controller, error) {
	if opts.Store == nil {
		return nil, errors.New("flow: store is required")
	}
	if opts.Generator == nil {
		return nil, errors.New("flow: generator is required")
	}

	c := &Controller{
		session:    domain.NewSession(),
		store:      opts.Store,
		generation: NewGeneration(opts.Generator, opts.Timeout),
		questions:  opts.Questions,
		consented:  opts.Consented,
		now:        opts.Now,
		newID:      opts.NewID,
	}
	if c.questions == nil {
		c.questions = NewPoolQuestions(nil)
	}
	if c.consented == nil {
		c.consented = func() bool { return true }
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.newID == nil {
		c.newID = domain.NewReflectionID
	}
	return c, nil
}

// Snapshot returns a copy of the current session.
func (c *Controller) Snapshot() domain.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Clone()
}

// Busy reports whether a generation, question or save call is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy()
}

func (c *Controller) busy() bool {
	return c.generating || c.picking || c.saving
}

// move applies e to the session if the table allows it. Callers hold c.mu.
func (c *Controller) move(e Event) bool {
	from := c.session.Step
	to, ok := Next(from, e)
	if !ok {
		observability.Logger().Debug("ignored transition", "step", from.String(), "event", string(e))
		return false
	}
	c.session.Step = to
	observability.ObserveTransition(from.String(), to.String())
	return true
}

func (c *Controller) nextEpoch() uint64 {
	c.epochs++
	return c.epochs
}

// Begin leaves the landing step once the owner has consented.
func (c *Controller) Begin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy() {
		return false
	}
	if c.session.Step == domain.StepLanding && !c.consented() {
		observability.Logger().Debug("begin refused, consent not given")
		return false
	}
	return c.move(EventBegin)
}

// SelectMood picks the mood and its guiding question. Choosing the mood
// the session already has keeps the question and the text; choosing a
// different one starts the writing over.
func (c *Controller) SelectMood(ctx context.Context, mood domain.Mood) bool {
	c.mu.Lock()
	if c.busy() || !mood.Valid() {
		c.mu.Unlock()
		return false
	}
	if _, ok := Next(c.session.Step, EventSelectMood); !ok {
		c.mu.Unlock()
		return false
	}
	if c.session.Mood == mood && c.session.GuidingQuestion != "" {
		ok := c.move(EventSelectMood)
		c.mu.Unlock()
		return ok
	}

	c.picking = true
	epoch := c.session.Epoch
	c.mu.Unlock()

	question := c.questions.Question(ctx, mood)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.Epoch != epoch {
		// abandoned while the question was being picked
		return false
	}
	c.picking = false

	c.session.Mood = mood
	c.session.GuidingQuestion = question
	c.session.WrittenText = ""
	c.session.GeneratedResponse = nil
	c.session.Epoch = c.nextEpoch()

	observability.LoggerFromContext(ctx).Debug("mood selected", "mood", string(mood))
	return c.move(EventSelectMood)
}

// SetText replaces the written text while the session is in writing.
func (c *Controller) SetText(text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy() || c.session.Step != domain.StepWriting {
		return false
	}
	c.session.WrittenText = text
	return true
}

// SubmitText stores text and moves to generating before returning. The
// mirror response is produced in the background; the returned channel is
// closed once it has been applied or dropped. Blank text is ignored.
func (c *Controller) SubmitText(ctx context.Context, text string) (<-chan struct{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy() || c.session.Step != domain.StepWriting || strings.TrimSpace(text) == "" {
		return nil, false
	}

	c.session.WrittenText = text
	c.session.GeneratedResponse = nil
	if !c.move(EventSubmit) {
		return nil, false
	}
	c.generating = true

	epoch := c.session.Epoch
	mood := c.session.Mood
	done := make(chan struct{})

	// the generation outlives the caller's request, not its values
	genCtx := context.WithoutCancel(ctx)

	go func() {
		defer close(done)
		response, _ := c.generation.Response(genCtx, mood, text)
		c.applyResponse(genCtx, epoch, response)
	}()

	return done, true
}

func (c *Controller) applyResponse(ctx context.Context, epoch uint64, response string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.Epoch != epoch || c.session.Step != domain.StepGenerating {
		observability.LoggerFromContext(ctx).Info("dropping stale generation result")
		return
	}
	c.generating = false
	c.session.GeneratedResponse = &response
	c.move(EventGenerated)
}

// Proceed moves from the shown reflection to the closing step.
func (c *Controller) Proceed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy() {
		return false
	}
	return c.move(EventProceed)
}

// Back returns to the previous step where the table allows it.
func (c *Controller) Back() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy() {
		return false
	}
	from := c.session.Step
	if !c.move(EventBack) {
		return false
	}
	if from == domain.StepReflectionShown {
		// the response belonged to the text that is about to be edited
		c.session.GeneratedResponse = nil
	}
	return true
}

// Save persists the session at the closing step with exactly one store
// call. On failure the session stays in closing, untouched, so the save
// can be retried. Outside closing it does nothing and returns nil, nil.
func (c *Controller) Save(ctx context.Context) (*domain.Reflection, error) {
	c.mu.Lock()
	if c.busy() {
		c.mu.Unlock()
		return nil, nil
	}
	if _, ok := Next(c.session.Step, EventSave); !ok {
		c.mu.Unlock()
		return nil, nil
	}

	now := c.now()
	r := domain.Reflection{
		ID:              c.newID(now),
		CreatedAt:       now.UTC(),
		Mood:            c.session.Mood,
		GuidingQuestion: c.session.GuidingQuestion,
		WrittenText:     c.session.WrittenText,
	}
	if c.session.GeneratedResponse != nil {
		v := *c.session.GeneratedResponse
		r.GeneratedResponse = &v
	}
	if err := r.Validate(); err != nil {
		c.mu.Unlock()
		return nil, err
	}

	c.saving = true
	epoch := c.session.Epoch
	c.mu.Unlock()

	log := observability.LoggerFromContext(ctx).With("reflection_id", r.ID, "mood", string(r.Mood))
	err := c.store.Save(ctx, r)
	observability.ObserveSave(err)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.Epoch != epoch {
		// abandoned meanwhile: the record exists but this flow moved on
		if err != nil {
			return nil, err
		}
		return &r, nil
	}
	c.saving = false

	if err != nil {
		log.Error("failed to save reflection", "error", err)
		return nil, err
	}

	c.move(EventSave)
	log.Info("reflection saved")
	return &r, nil
}

// Discard ends the session at closing without touching the store.
func (c *Controller) Discard() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy() {
		return false
	}
	return c.move(EventDiscard)
}

// StartAgain replaces a finished session with a fresh one.
func (c *Controller) StartAgain() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy() {
		return false
	}
	if !c.move(EventStartAgain) {
		return false
	}
	c.reset()
	return true
}

// Abandon resets the session from any step, including while a call is
// in flight. A result that arrives afterwards is dropped.
func (c *Controller) Abandon() {
	c.mu.Lock()
	defer c.mu.Unlock()

	from := c.session.Step
	c.reset()
	c.generating, c.picking, c.saving = false, false, false
	if from != domain.StepLanding {
		observability.ObserveTransition(from.String(), domain.StepLanding.String())
	}
}

func (c *Controller) reset() {
	c.session = domain.NewSession()
	c.session.Epoch = c.nextEpoch()
}
