package profiler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/samvad-hq/samvad-name-profiler/internal/domain"
	"github.com/samvad-hq/samvad-name-profiler/internal/logger"
	"github.com/samvad-hq/samvad-name-profiler/internal/metrics"
	"github.com/samvad-hq/samvad-name-profiler/pkg/httpclient"
	"github.com/samvad-hq/samvad-name-profiler/pkg/predictors"
	"github.com/samvad-hq/samvad-name-profiler/pkg/publishers"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrEmptyName is returned, and shown, when a submission has no name.
	ErrEmptyName = errors.New("Please enter a name!") //nolint:staticcheck // user-facing text
	// ErrSubmissionInFlight rejects a submission while the previous one is loading.
	ErrSubmissionInFlight = errors.New("a submission is already in progress")
)

// NoDataMessage is shown when a predictor has no record for the name.
const NoDataMessage = "No data found for the given username!"

// DefaultMessageTTL is how long a banner message stays visible.
const DefaultMessageTTL = time.Second

// Orchestrator owns the state of one profile page: the entered name, the derived profile and
// the transient message. All mutations go through its methods.
type Orchestrator struct {
	mu    sync.Mutex
	state State

	fetchers predictors.FetcherRegistry
	banner   *Banner
	recorder Recorder
	events   EventPublisher
	log      logger.Logger

	clock      Clock
	messageTTL time.Duration

	inflight sync.WaitGroup
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(o *Orchestrator) {
		if log != nil {
			o.log = log
		}
	}
}

// WithRecorder reports fetch and submission outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithEvents publishes an event after every finished submission.
func WithEvents(p EventPublisher) Option {
	return func(o *Orchestrator) { o.events = p }
}

// WithMessageTTL overrides DefaultMessageTTL.
func WithMessageTTL(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.messageTTL = d
		}
	}
}

// WithClock drives banner expiry from clock.
func WithClock(clock Clock) Option {
	return func(o *Orchestrator) { o.clock = clock }
}

// New builds an idle orchestrator resolving field fetchers from fetchers.
func New(fetchers predictors.FetcherRegistry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		state:      initialState(),
		fetchers:   fetchers,
		recorder:   nopRecorder{},
		log:        logger.NopLogger{},
		messageTTL: DefaultMessageTTL,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.banner = NewBanner(o.messageTTL, o.clock)
	return o
}

// Snapshot returns a copy of the current state.
func (o *Orchestrator) Snapshot() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() State {
	s := o.state
	s.Message = o.banner.Text()
	return s
}

// EditName stores name and hides any displayed result until the next fetch cycle.
func (o *Orchestrator) EditName(name string) State {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.state.Name = name
	o.state.NameChanged = true
	if !o.state.Loading {
		o.state.Phase = PhaseIdle
	}
	return o.snapshotLocked()
}

// Submit validates the name, fetches all three fields concurrently and waits for them.
// The returned state is the settled result.
func (o *Orchestrator) Submit(ctx context.Context) (State, error) {
	name, err := o.begin()
	if err != nil {
		return o.Snapshot(), err
	}
	err = o.run(ctx, name)
	return o.Snapshot(), err
}

// SubmitAsync performs the same transition as Submit but runs the fetches in the
// background and returns the loading state. The fetches outlive ctx's cancellation.
func (o *Orchestrator) SubmitAsync(ctx context.Context) (State, error) {
	name, err := o.begin()
	snap := o.Snapshot()
	if err != nil {
		return snap, err
	}

	bg := context.WithoutCancel(ctx)
	o.inflight.Add(1)
	go func() {
		defer o.inflight.Done()
		_ = o.run(bg, name)
	}()
	return snap, nil
}

// Wait blocks until background submissions have finished.
func (o *Orchestrator) Wait() {
	o.inflight.Wait()
}

// Close waits for background work and cancels the pending banner timer.
func (o *Orchestrator) Close() {
	o.Wait()
	o.banner.Stop()
}

// begin runs the validating step and, on success, enters loading.
func (o *Orchestrator) begin() (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state.Loading {
		o.recorder.ObserveSubmission(metrics.SubmissionBusy)
		return "", ErrSubmissionInFlight
	}

	o.state.Phase = PhaseValidating
	name := strings.TrimSpace(o.state.Name)
	if name == "" {
		o.state.Phase = PhaseErrorShown
		o.banner.Set(ErrEmptyName.Error())
		o.recorder.ObserveSubmission(metrics.SubmissionInvalid)
		return "", ErrEmptyName
	}

	o.state.Phase = PhaseLoading
	o.state.Loading = true
	o.state.NameChanged = false
	o.state.QueryName = name
	o.state.Profile = domain.NewProfile()
	o.banner.Set("")
	return name, nil
}

// run joins the three field fetches. A failing fetch does not cancel its siblings.
func (o *Orchestrator) run(ctx context.Context, name string) (err error) {
	started := time.Now()
	defer func() { o.finish(ctx, name, started, err) }()

	var g errgroup.Group
	for _, field := range domain.Fields {
		g.Go(func() error {
			return o.fetchField(ctx, field, name)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("lookup %q: %w", name, err)
	}
	return nil
}

func (o *Orchestrator) fetchField(ctx context.Context, field domain.Field, name string) error {
	if o.fetchers == nil {
		return &predictors.FetchError{Field: field, Err: httpclient.ErrUnexpected, Cause: errors.New("no fetcher registry")}
	}
	fetcher, err := o.fetchers.FetcherFor(field)
	if err != nil {
		return &predictors.FetchError{Field: field, Err: httpclient.ErrUnexpected, Cause: err}
	}

	start := time.Now()
	out, err := fetcher.Fetch(ctx, name)
	elapsed := time.Since(start)
	if err != nil {
		o.recorder.ObserveFetch(field, metrics.FetchError, elapsed)
		o.log.WarnObj("field fetch failed", "fetch_error", map[string]any{
			"field": field,
			"error": err.Error(),
		})
		return err
	}

	if !out.Found {
		o.recorder.ObserveFetch(field, metrics.FetchNoData, elapsed)
		o.banner.Set(NoDataMessage)
		return nil
	}

	o.recorder.ObserveFetch(field, metrics.FetchFound, elapsed)
	o.mu.Lock()
	o.state.Profile = o.state.Profile.Apply(out)
	o.mu.Unlock()
	return nil
}

// finish leaves loading whatever the outcome and reports the submission.
func (o *Orchestrator) finish(ctx context.Context, name string, started time.Time, err error) {
	o.mu.Lock()
	o.state.Loading = false
	if err != nil {
		o.state.Phase = PhaseErrorShown
		o.banner.Set(userMessage(err))
	} else {
		o.state.Phase = PhaseDisplaying
	}
	profile := o.state.Profile
	message := o.banner.Text()
	o.mu.Unlock()

	outcome := metrics.SubmissionComplete
	switch {
	case err != nil:
		outcome = metrics.SubmissionFailed
	case !profile.Complete():
		outcome = metrics.SubmissionPartial
	}
	o.recorder.ObserveSubmission(outcome)
	o.log.InfoObj("lookup finished", "lookup", map[string]any{
		"name":       name,
		"outcome":    outcome,
		"elapsed_ms": time.Since(started).Milliseconds(),
	})

	o.publish(ctx, publishers.NewEvent(name, outcome, profile, message, started))
}

func (o *Orchestrator) publish(ctx context.Context, evt publishers.Event) {
	if o.events == nil {
		return
	}
	delivered, err := o.events.Publish(ctx, evt)
	if err != nil {
		o.log.WarnObj("lookup event publish failed", "publish_error", map[string]any{
			"name":      evt.Name,
			"delivered": delivered,
			"error":     err.Error(),
		})
		return
	}
	o.log.DebugObj("lookup event published", "publish_result", map[string]any{
		"name":      evt.Name,
		"delivered": delivered,
	})
}

// userMessage strips the lookup wrapping so the banner shows the fetch's own message.
func userMessage(err error) string {
	var fetchErr *predictors.FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Error()
	}
	var reqErr *httpclient.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Error()
	}
	return httpclient.ErrUnexpected.Error()
}
