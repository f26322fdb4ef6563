package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"presentation-server/internal/domain/retry"
	"presentation-server/internal/domain/slideimage"
	"presentation-server/internal/infrastructure/metrics"
	"presentation-server/internal/infrastructure/observability"
)

// Config tunes the coordinator.
type Config struct {
	// Interval is the stagger between queue dispatches; the generation
	// endpoint tolerates at most one call per interval.
	Interval time.Duration
	// GenerationTimeout bounds one provider call.
	GenerationTimeout time.Duration
	// PersistRetryMax bounds retries of the fire-and-forget store write.
	PersistRetryMax int
}

// SlideView is the read-only per-slide projection consumed by the UI layer.
type SlideView struct {
	SlideID  string                     `json:"slideId"`
	Slide    slideimage.Slide           `json:"slide"`
	State    slideimage.SlideImageState `json:"state"`
	Versions *VersionSet                `json:"versions,omitempty"`
}

// DocumentSlide is one entry of an exported document.
type DocumentSlide struct {
	SlideID  string           `json:"slideId"`
	Slide    slideimage.Slide `json:"slide"`
	MimeType string           `json:"mimeType,omitempty"`
	Data     []byte           `json:"bytes,omitempty"`
}

// Document bundles every slide's resolved image. Partial decks carry a
// warning instead of failing.
type Document struct {
	SessionID   string          `json:"sessionId"`
	GeneratedAt time.Time       `json:"generatedAt"`
	Slides      []DocumentSlide `json:"slides"`
	Warning     string          `json:"warning,omitempty"`
}

// Coordinator owns the dedup cache, tracker, queue and version manager, and
// drives every slide through its image lifecycle. All shared state is guarded
// by one mutex; every mutation that follows a network call re-validates the
// slide's current prompt first, so a late completion for a prompt the slide
// has moved away from is discarded instead of applied.
type Coordinator struct {
	generator Generator
	store     Store
	cfg       Config
	log       zerolog.Logger

	cache    *DedupCache
	tracker  *Tracker
	versions *VersionManager
	queue    *Queue

	persistRetry retry.Policy

	mu           sync.Mutex
	sessionID    string
	userID       string
	order        []string
	slides       map[string]slideimage.Slide
	fingerprints map[string]string
	states       map[string]*slideimage.SlideImageState
}

func NewCoordinator(generator Generator, store Store, cfg Config, log zerolog.Logger) *Coordinator {
	if cfg.Interval <= 0 {
		cfg.Interval = 3 * time.Second
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = 75 * time.Second
	}

	c := &Coordinator{
		generator:    generator,
		store:        store,
		cfg:          cfg,
		log:          log.With().Str("component", "pipeline-coordinator").Logger(),
		cache:        NewDedupCache(),
		tracker:      NewTracker(),
		versions:     NewVersionManager(),
		persistRetry: retry.PersistencePolicy(cfg.PersistRetryMax),
		slides:       make(map[string]slideimage.Slide),
		fingerprints: make(map[string]string),
		states:       make(map[string]*slideimage.SlideImageState),
	}
	c.queue = NewQueue(c.dispatch, log)
	return c
}

// SetSession switches the coordinator to a session. On a change all in-memory
// state is discarded and rebuilt from the persistent store.
func (c *Coordinator) SetSession(ctx context.Context, sessionID, userID string) error {
	c.mu.Lock()
	if c.sessionID == sessionID {
		// Read-only endpoints call this with an empty user; keep the
		// attribution from the deck update.
		if userID != "" {
			c.userID = userID
		}
		c.mu.Unlock()
		return nil
	}
	c.sessionID = sessionID
	c.userID = userID
	c.order = nil
	c.slides = make(map[string]slideimage.Slide)
	c.fingerprints = make(map[string]string)
	c.states = make(map[string]*slideimage.SlideImageState)
	c.mu.Unlock()

	c.cache.Reset()
	c.tracker.Reset()
	c.versions.Reset()
	c.queue.Reset()

	if sessionID == "" {
		return nil
	}

	rows, err := c.store.Query(ctx, slideimage.Filter{SessionID: sessionID})
	if err != nil {
		// A failed bulk load degrades to an empty cache; lookups will hit
		// the store again per prompt.
		perr := slideimage.NewPersistenceRead(err)
		c.log.Warn().Err(perr).Str("session_id", sessionID).Msg("session image load failed")
		metrics.RecordStoreLookup("error")
		return nil
	}

	// Rows arrive newest first; replay oldest first so version order matches
	// generation order and the newest row wins the cache slot.
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		if row.SlideID != "" {
			c.versions.Record(row.SlideID, row.Prompt)
			c.versions.SelectLatest(row.SlideID)
		}
		c.cache.Record(sessionID, row.Prompt, row)
	}

	c.log.Info().Str("session_id", sessionID).Int("images", len(rows)).Msg("session images loaded")
	return nil
}

// UpdateDeck replaces the deck and re-evaluates every slide: slides whose
// identifying content changed are reset, slides with a cached or stored image
// adopt it immediately, and the rest are queued for staggered generation.
func (c *Coordinator) UpdateDeck(ctx context.Context, slides []slideimage.Slide) {
	type candidate struct {
		key   string
		slide slideimage.Slide
	}

	c.mu.Lock()
	sessionID := c.sessionID

	seen := make(map[string]struct{}, len(slides))
	order := make([]string, 0, len(slides))
	var candidates []candidate

	for position, slide := range slides {
		key := slide.Key(position)
		seen[key] = struct{}{}
		order = append(order, key)

		fp := slide.Fingerprint()
		if old, ok := c.fingerprints[key]; ok && old != fp {
			// Content changed: clear state and drop the old prompt's cache
			// entry so the slide is re-evaluated from scratch.
			if prev, ok := c.slides[key]; ok && prev.ImagePrompt != slide.ImagePrompt {
				c.cache.Invalidate(sessionID, prev.ImagePrompt)
			}
			delete(c.states, key)
		}
		c.fingerprints[key] = fp
		c.slides[key] = slide

		if slide.ImagePrompt == "" {
			// Slides without a prompt never leave Unseen.
			continue
		}
		if _, ok := c.states[key]; ok {
			continue
		}
		if c.tracker.Busy(key, slide.ImagePrompt) {
			continue
		}
		c.states[key] = &slideimage.SlideImageState{Status: slideimage.StatusChecking, Loading: true}
		candidates = append(candidates, candidate{key: key, slide: slide})
	}

	// Drop slides that left the deck.
	for key := range c.slides {
		if _, ok := seen[key]; !ok {
			delete(c.slides, key)
			delete(c.fingerprints, key)
			delete(c.states, key)
		}
	}
	c.order = order
	c.mu.Unlock()

	// The cache/store check for the whole batch runs synchronously before
	// anything is queued, so cheap hits skip the rate-limited line.
	var pending []slideimage.QueueItem
	for _, cand := range candidates {
		if c.resolveFromCacheOrStore(ctx, cand.key, cand.slide) {
			continue
		}
		pending = append(pending, slideimage.QueueItem{
			SlideID: cand.key,
			Slide:   cand.slide,
		})
	}

	if len(pending) == 0 {
		return
	}

	c.mu.Lock()
	enqueue := pending[:0]
	for i := range pending {
		item := pending[i]
		// Re-validate: the deck may have moved again during the store checks.
		current, ok := c.slides[item.SlideID]
		if !ok || current.ImagePrompt != item.Slide.ImagePrompt {
			continue
		}
		item.Position = len(enqueue)
		item.Delay = time.Duration(item.Position) * c.cfg.Interval
		if state, ok := c.states[item.SlideID]; ok {
			state.Status = slideimage.StatusQueued
			state.Loading = true
		}
		enqueue = append(enqueue, item)
	}
	c.mu.Unlock()

	// The queue drains in the background and must outlive the request whose
	// context arrived here; only its values (trace linkage) carry over.
	c.queue.Enqueue(context.WithoutCancel(ctx), enqueue...)
}

// resolveFromCacheOrStore performs the delay-zero hit check for one slide.
// It returns true when the slide was settled without generation.
func (c *Coordinator) resolveFromCacheOrStore(ctx context.Context, key string, slide slideimage.Slide) bool {
	prompt := slide.ImagePrompt

	c.mu.Lock()
	sessionID := c.sessionID
	c.mu.Unlock()

	img, outcome := c.cache.Lookup(sessionID, prompt)
	switch outcome {
	case Found:
		metrics.RecordCacheLookup("hit")
		c.adoptImage(key, prompt, img)
		return true
	case NotFound:
		metrics.RecordCacheLookup("negative")
		return false
	}
	metrics.RecordCacheLookup("miss")

	lookupCtx, span := observability.StartLookupSpan(ctx, sessionID, key, len(prompt))
	rows, err := c.store.Query(lookupCtx, slideimage.Filter{SessionID: sessionID, Prompt: prompt})
	span.End()
	if err != nil {
		// Read failures degrade to a miss; generation proceeds.
		perr := slideimage.NewPersistenceRead(err).WithSlide(key)
		c.log.Warn().Err(perr).Str("slide_id", key).Msg("store lookup failed, treating as miss")
		metrics.RecordStoreLookup("error")
		return false
	}

	if len(rows) == 0 {
		metrics.RecordStoreLookup("miss")
		c.cache.Record(sessionID, prompt, nil)
		return false
	}

	metrics.RecordStoreLookup("hit")
	c.cache.Record(sessionID, prompt, rows[0])
	c.adoptImage(key, prompt, rows[0])
	return true
}

// adoptImage applies a cached/stored image to the slide, provided the slide
// still wants this prompt.
func (c *Coordinator) adoptImage(key, prompt string, img *slideimage.GeneratedImage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, ok := c.slides[key]
	if !ok || current.ImagePrompt != prompt {
		return
	}
	c.versions.Record(key, prompt)
	c.versions.SelectLatest(key)
	c.states[key] = &slideimage.SlideImageState{
		Status: slideimage.StatusReady,
		Image:  img,
	}
}

// dispatch is invoked by the queue worker once an item's delay has elapsed.
func (c *Coordinator) dispatch(ctx context.Context, item slideimage.QueueItem) {
	prompt := item.Slide.ImagePrompt

	c.mu.Lock()
	sessionID := c.sessionID
	current, ok := c.slides[item.SlideID]
	if !ok || current.ImagePrompt != prompt {
		// The slide moved on while the item waited; drop it.
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	// A concurrent path may have resolved the prompt while this item waited.
	if img, outcome := c.cache.Lookup(sessionID, prompt); outcome == Found {
		metrics.RecordCacheLookup("hit")
		c.adoptImage(item.SlideID, prompt, img)
		return
	}

	if !c.tracker.Begin(item.SlideID, prompt) {
		// Another path is already generating this prompt or slide. Its
		// completion settles every slide waiting on the same prompt.
		return
	}

	// The prompt may have resolved between the lookup and the claim.
	if img, outcome := c.cache.Lookup(sessionID, prompt); outcome == Found {
		c.tracker.End(item.SlideID, prompt)
		c.adoptImage(item.SlideID, prompt, img)
		return
	}

	c.mu.Lock()
	if state, ok := c.states[item.SlideID]; ok {
		state.Status = slideimage.StatusGenerating
		state.Loading = true
		state.Image = nil
	}
	c.mu.Unlock()

	c.generate(ctx, item.SlideID, item.Slide)
}

// generate performs one provider call for a slide whose tracker slots are
// already claimed, then settles every slide waiting on the same prompt.
func (c *Coordinator) generate(ctx context.Context, key string, slide slideimage.Slide) {
	prompt := slide.ImagePrompt
	defer func() {
		c.tracker.End(key, prompt)
		c.reevaluate(ctx, key, prompt)
	}()

	c.mu.Lock()
	sessionID := c.sessionID
	userID := c.userID
	c.mu.Unlock()

	genCtx, cancel := context.WithTimeout(ctx, c.cfg.GenerationTimeout)
	defer cancel()

	spanCtx, span := observability.StartGenerationSpan(genCtx, sessionID, key, len(prompt))
	started := time.Now()
	result, err := c.generator.Generate(spanCtx, prompt)
	span.End()

	if err != nil {
		outcome := "failed"
		if slideimage.IsRateLimited(err) {
			outcome = "rate_limited"
		}
		metrics.RecordGeneration(outcome, time.Since(started).Seconds())
		c.log.Error().Err(err).Str("slide_id", key).Msg("image generation failed")
		c.settlePrompt(sessionID, prompt, nil, err)
		return
	}
	metrics.RecordGeneration("success", time.Since(started).Seconds())

	img := &slideimage.GeneratedImage{
		SlideID:          key,
		Prompt:           prompt,
		MimeType:         result.MimeType,
		Data:             result.Data,
		Width:            result.Width,
		Height:           result.Height,
		SessionID:        sessionID,
		UserID:           userID,
		Provider:         result.Provider,
		ProviderMetadata: result.Metadata,
		CreatedAt:        time.Now().UTC(),
	}

	c.cache.Record(sessionID, prompt, img)
	c.settlePrompt(sessionID, prompt, img, nil)

	// Fire and forget: a persistence failure is logged, never surfaced to
	// the generation outcome.
	go c.persist(context.WithoutCancel(ctx), img)
}

// settlePrompt applies a generation outcome to every slide whose current
// prompt matches. Slides that were skipped by the queue because this prompt
// was already in flight settle here too, so none is left loading.
func (c *Coordinator) settlePrompt(sessionID, prompt string, img *slideimage.GeneratedImage, genErr error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sessionID != sessionID {
		// The session changed while the call was in flight; the result
		// belongs to state that no longer exists.
		return
	}

	for key, slide := range c.slides {
		if slide.ImagePrompt != prompt {
			continue
		}
		// A stateless slide with this prompt was skipped by the deck pass
		// because the prompt was already in flight; it settles here.
		if state, ok := c.states[key]; ok && state.Status == slideimage.StatusReady {
			continue
		}
		if img != nil {
			c.versions.Record(key, prompt)
			c.versions.SelectLatest(key)
			c.states[key] = &slideimage.SlideImageState{
				Status: slideimage.StatusReady,
				Image:  img,
			}
			continue
		}
		c.states[key] = &slideimage.SlideImageState{
			Status:    slideimage.StatusFailed,
			Error:     userMessage(genErr),
			ErrorCode: slideimage.ErrorCode(genErr),
		}
	}
}

// reevaluate re-checks one slide after its tracker claim is released. A deck
// update that changed the slide's prompt while the old prompt was in flight
// cleared its state and then skipped it because the slide was busy; the new
// prompt starts its evaluation here.
func (c *Coordinator) reevaluate(ctx context.Context, key, finishedPrompt string) {
	c.mu.Lock()
	slide, ok := c.slides[key]
	if !ok || slide.ImagePrompt == "" || slide.ImagePrompt == finishedPrompt {
		c.mu.Unlock()
		return
	}
	if _, ok := c.states[key]; ok {
		c.mu.Unlock()
		return
	}
	if c.tracker.Busy(key, slide.ImagePrompt) {
		c.mu.Unlock()
		return
	}
	c.states[key] = &slideimage.SlideImageState{Status: slideimage.StatusChecking, Loading: true}
	c.mu.Unlock()

	if c.resolveFromCacheOrStore(ctx, key, slide) {
		return
	}
	c.queue.Enqueue(ctx, slideimage.QueueItem{SlideID: key, Slide: slide})
}

// persist writes one generated image to the store with bounded retries.
func (c *Coordinator) persist(ctx context.Context, img *slideimage.GeneratedImage) {
	persistCtx, cancel := context.WithTimeout(ctx, c.cfg.GenerationTimeout)
	defer cancel()

	spanCtx, span := observability.StartPersistSpan(persistCtx, img.SessionID, img.SlideID)
	defer span.End()

	executor := retry.NewExecutor(c.persistRetry)
	err := executor.Execute(spanCtx, func(ctx context.Context, attempt int) error {
		_, saveErr := c.store.Save(ctx, slideimage.SaveParams{
			SlideID:          img.SlideID,
			Prompt:           img.Prompt,
			MimeType:         img.MimeType,
			Data:             img.Data,
			Width:            img.Width,
			Height:           img.Height,
			SessionID:        img.SessionID,
			UserID:           img.UserID,
			Provider:         img.Provider,
			ProviderMetadata: img.ProviderMetadata,
		})
		return saveErr
	})
	if err != nil {
		perr := slideimage.NewPersistenceWrite(err).WithSlide(img.SlideID)
		c.log.Error().Err(perr).Str("slide_id", img.SlideID).Msg("image persisted only in memory")
		metrics.RecordStoreWrite("failed")
		return
	}
	metrics.RecordStoreWrite("success")
}

// Retry re-invokes generation for a failed slide, bypassing both the queue
// delay and the upfront cache check.
func (c *Coordinator) Retry(ctx context.Context, slideID string) error {
	c.mu.Lock()
	slide, ok := c.slides[slideID]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownSlide, slideID)
	}
	if slide.ImagePrompt == "" {
		c.mu.Unlock()
		return ErrNoPrompt
	}
	if !c.tracker.Begin(slideID, slide.ImagePrompt) {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	c.states[slideID] = &slideimage.SlideImageState{Status: slideimage.StatusGenerating, Loading: true}
	c.mu.Unlock()

	go c.generate(context.WithoutCancel(ctx), slideID, slide)
	return nil
}

// SelectVersion switches a slide to a previously generated prompt version,
// resolving its image through the cache or one store read. It never issues a
// new generation.
func (c *Coordinator) SelectVersion(ctx context.Context, slideID string, index int) (slideimage.SlideImageState, error) {
	prompt, ok := c.versions.Select(slideID, index)
	if !ok {
		return slideimage.SlideImageState{}, fmt.Errorf("%w: slide %q version %d", ErrNoSuchVersion, slideID, index)
	}
	return c.resolveVersion(ctx, slideID, prompt), nil
}

// NextVersion advances the slide's selected version.
func (c *Coordinator) NextVersion(ctx context.Context, slideID string) (slideimage.SlideImageState, int, error) {
	prompt, index, ok := c.versions.Next(slideID)
	if !ok {
		return slideimage.SlideImageState{}, 0, fmt.Errorf("%w: slide %q has no versions", ErrNoSuchVersion, slideID)
	}
	return c.resolveVersion(ctx, slideID, prompt), index, nil
}

// PreviousVersion moves the slide's selected version back.
func (c *Coordinator) PreviousVersion(ctx context.Context, slideID string) (slideimage.SlideImageState, int, error) {
	prompt, index, ok := c.versions.Previous(slideID)
	if !ok {
		return slideimage.SlideImageState{}, 0, fmt.Errorf("%w: slide %q has no versions", ErrNoSuchVersion, slideID)
	}
	return c.resolveVersion(ctx, slideID, prompt), index, nil
}

func (c *Coordinator) resolveVersion(ctx context.Context, slideID, prompt string) slideimage.SlideImageState {
	c.mu.Lock()
	sessionID := c.sessionID
	c.mu.Unlock()

	if img, outcome := c.cache.Lookup(sessionID, prompt); outcome == Found {
		metrics.RecordCacheLookup("hit")
		return c.applyVersionState(slideID, slideimage.SlideImageState{
			Status: slideimage.StatusReady,
			Image:  img,
		})
	}
	metrics.RecordCacheLookup("miss")

	c.applyVersionState(slideID, slideimage.SlideImageState{
		Status:  slideimage.StatusChecking,
		Loading: true,
	})

	// Versioned lookups match on slide, prompt and session.
	rows, err := c.store.Query(ctx, slideimage.Filter{
		SessionID: sessionID,
		Prompt:    prompt,
		SlideID:   slideID,
	})
	if err != nil {
		perr := slideimage.NewPersistenceRead(err).WithSlide(slideID)
		c.log.Warn().Err(perr).Str("slide_id", slideID).Msg("version lookup failed")
		metrics.RecordStoreLookup("error")
		return c.applyVersionState(slideID, slideimage.SlideImageState{
			Status:    slideimage.StatusFailed,
			Error:     "stored image for this version could not be loaded",
			ErrorCode: slideimage.ErrCodePersistenceRead,
		})
	}
	if len(rows) == 0 {
		metrics.RecordStoreLookup("miss")
		return c.applyVersionState(slideID, slideimage.SlideImageState{
			Status:    slideimage.StatusFailed,
			Error:     "image for this version is no longer available",
			ErrorCode: slideimage.ErrCodePersistenceRead,
		})
	}

	metrics.RecordStoreLookup("hit")
	c.cache.Record(sessionID, prompt, rows[0])
	return c.applyVersionState(slideID, slideimage.SlideImageState{
		Status: slideimage.StatusReady,
		Image:  rows[0],
	})
}

func (c *Coordinator) applyVersionState(slideID string, state slideimage.SlideImageState) slideimage.SlideImageState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.slides[slideID]; ok {
		copied := state
		c.states[slideID] = &copied
	}
	return state
}

// Snapshot returns the per-slide views in deck order.
func (c *Coordinator) Snapshot() []SlideView {
	c.mu.Lock()
	defer c.mu.Unlock()

	views := make([]SlideView, 0, len(c.order))
	for _, key := range c.order {
		slide, ok := c.slides[key]
		if !ok {
			continue
		}
		view := SlideView{SlideID: key, Slide: slide}
		if state, ok := c.states[key]; ok {
			view.State = *state
		} else {
			view.State = slideimage.SlideImageState{Status: slideimage.StatusUnseen}
		}
		if versions, ok := c.versions.Versions(key); ok {
			view.Versions = &versions
		}
		views = append(views, view)
	}
	return views
}

// State returns the current state of one slide.
func (c *Coordinator) State(slideID string) (slideimage.SlideImageState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.slides[slideID]; !ok {
		return slideimage.SlideImageState{}, false
	}
	if state, ok := c.states[slideID]; ok {
		return *state, true
	}
	return slideimage.SlideImageState{Status: slideimage.StatusUnseen}, true
}

// Document bundles every resolved slide image. A deck with unresolved slides
// yields a partial document plus a warning, not an error.
func (c *Coordinator) Document() Document {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc := Document{
		SessionID:   c.sessionID,
		GeneratedAt: time.Now().UTC(),
	}
	missing := 0
	for _, key := range c.order {
		slide, ok := c.slides[key]
		if !ok {
			continue
		}
		entry := DocumentSlide{SlideID: key, Slide: slide}
		if state, ok := c.states[key]; ok && state.Status == slideimage.StatusReady && state.Image != nil {
			entry.MimeType = state.Image.MimeType
			entry.Data = state.Image.Data
		} else if slide.ImagePrompt != "" {
			missing++
		}
		doc.Slides = append(doc.Slides, entry)
	}
	if missing > 0 {
		doc.Warning = fmt.Sprintf("%d slide(s) have no resolved image yet", missing)
	}
	return doc
}

// QueueDepth reports the number of slides waiting for generation.
func (c *Coordinator) QueueDepth() int {
	return c.queue.Depth()
}

func userMessage(err error) string {
	var perr *slideimage.PipelineError
	if errors.As(err, &perr) {
		return perr.Message
	}
	if err != nil {
		return err.Error()
	}
	return "image generation failed"
}
