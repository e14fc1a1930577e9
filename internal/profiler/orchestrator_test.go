package profiler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-name-profiler/internal/domain"
	"github.com/samvad-hq/samvad-name-profiler/internal/metrics"
	"github.com/samvad-hq/samvad-name-profiler/pkg/httpclient"
	"github.com/samvad-hq/samvad-name-profiler/pkg/predictors"
	"github.com/samvad-hq/samvad-name-profiler/pkg/publishers"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

// fakeFetcher answers one field from a function.
type fakeFetcher struct {
	field domain.Field
	calls atomic.Int32
	names chan string
	fn    func(ctx context.Context, name string) (domain.FieldOutcome, error)
}

func (f *fakeFetcher) Field() domain.Field { return f.field }

func (f *fakeFetcher) Fetch(ctx context.Context, name string) (domain.FieldOutcome, error) {
	f.calls.Add(1)
	if f.names != nil {
		f.names <- name
	}
	return f.fn(ctx, name)
}

func found(field domain.Field, age int, text string) func(context.Context, string) (domain.FieldOutcome, error) {
	return func(context.Context, string) (domain.FieldOutcome, error) {
		return domain.FieldOutcome{Field: field, Found: true, Age: age, Text: text, Status: 200}, nil
	}
}

func notFound(field domain.Field) func(context.Context, string) (domain.FieldOutcome, error) {
	return func(context.Context, string) (domain.FieldOutcome, error) {
		return domain.FieldOutcome{Field: field, Status: 200}, nil
	}
}

func failing(field domain.Field, kind error) func(context.Context, string) (domain.FieldOutcome, error) {
	return func(context.Context, string) (domain.FieldOutcome, error) {
		return domain.FieldOutcome{}, &predictors.FetchError{
			Field: field,
			Err:   &httpclient.RequestError{Kind: kind, URL: "https://api.example.com?name=x"},
		}
	}
}

type fetcherSet struct {
	age, gender, country *fakeFetcher
}

func (s fetcherSet) registry() predictors.FetcherRegistry {
	return predictors.NewFetcherRegistry(s.age, s.gender, s.country)
}

func (s fetcherSet) calls() int {
	return int(s.age.calls.Load() + s.gender.calls.Load() + s.country.calls.Load())
}

func aliceFetchers() fetcherSet {
	return fetcherSet{
		age:     &fakeFetcher{field: domain.FieldAge, fn: found(domain.FieldAge, 30, "")},
		gender:  &fakeFetcher{field: domain.FieldGender, fn: found(domain.FieldGender, 0, "female")},
		country: &fakeFetcher{field: domain.FieldCountry, fn: found(domain.FieldCountry, 0, "US")},
	}
}

// manualClock fires AfterFunc callbacks only when advanced.
type manualClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []func()
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t.f)
		}
	}
	c.mu.Unlock()
	for _, f := range due {
		f()
	}
}

type recordingRecorder struct {
	mu          sync.Mutex
	fetches     map[string]int
	submissions map[string]int
}

func newRecordingRecorder() *recordingRecorder {
	return &recordingRecorder{fetches: map[string]int{}, submissions: map[string]int{}}
}

func (r *recordingRecorder) ObserveFetch(field domain.Field, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetches[string(field)+"/"+outcome]++
}

func (r *recordingRecorder) ObserveSubmission(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.submissions[outcome]++
}

type recordingEvents struct {
	mu     sync.Mutex
	events []publishers.Event
	err    error
}

func (r *recordingEvents) Publish(_ context.Context, evt publishers.Event) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	if r.err != nil {
		return 0, r.err
	}
	return 1, nil
}

func TestSubmitEmptyNameIssuesNoRequests(t *testing.T) {
	for _, name := range []string{"", "   ", "\t\n"} {
		set := aliceFetchers()
		rec := newRecordingRecorder()
		o := New(set.registry(), WithClock(&manualClock{}), WithRecorder(rec))

		o.EditName(name)
		state, err := o.Submit(context.Background())

		require.ErrorIs(t, err, ErrEmptyName)
		require.Zero(t, set.calls(), "no request may be issued for %q", name)
		require.Equal(t, PhaseErrorShown, state.Phase)
		require.Equal(t, "Please enter a name!", state.Message)
		require.False(t, state.Loading)
		require.Equal(t, 1, rec.submissions[metrics.SubmissionInvalid])
	}
}

func TestSubmitDisplaysSentence(t *testing.T) {
	set := aliceFetchers()
	set.age.names = make(chan string, 1)
	rec := newRecordingRecorder()
	events := &recordingEvents{}
	o := New(set.registry(), WithClock(&manualClock{}), WithRecorder(rec), WithEvents(events))

	o.EditName("  Alice ")
	state, err := o.Submit(context.Background())
	require.NoError(t, err)

	require.Equal(t, "Alice", <-set.age.names, "requests use the trimmed name")
	require.Equal(t, "  Alice ", state.Name, "the input keeps what was typed")
	require.Equal(t, "Alice", state.QueryName)
	require.Equal(t, PhaseDisplaying, state.Phase)
	require.False(t, state.Loading)
	require.Equal(t, "Alice, a 30-year-old female, from US.", state.View().Sentence)
	require.Empty(t, state.View().Progress)

	require.Equal(t, 1, rec.submissions[metrics.SubmissionComplete])
	require.Equal(t, 1, rec.fetches["country/"+metrics.FetchFound])

	require.Len(t, events.events, 1)
	evt := events.events[0]
	require.Equal(t, "Alice", evt.Name)
	require.Equal(t, metrics.SubmissionComplete, evt.Outcome)
	require.Equal(t, domain.Profile{Age: 30, Gender: "female", Country: "US"}, evt.Profile)
}

func TestSubmitEmptyCountryHidesSentence(t *testing.T) {
	set := aliceFetchers()
	set.country.fn = notFound(domain.FieldCountry)
	o := New(set.registry(), WithClock(&manualClock{}))

	o.EditName("Alice")
	state, err := o.Submit(context.Background())
	require.NoError(t, err)

	require.Empty(t, state.Profile.Country)
	require.Equal(t, 30, state.Profile.Age)
	require.Equal(t, "No data found for the given username!", state.Message)
	require.Empty(t, state.View().Sentence)
}

func TestTransportFailureShowsBannerAndClearsLoading(t *testing.T) {
	set := aliceFetchers()
	set.gender.fn = failing(domain.FieldGender, httpclient.ErrNoResponse)
	rec := newRecordingRecorder()
	events := &recordingEvents{}
	o := New(set.registry(), WithClock(&manualClock{}), WithRecorder(rec), WithEvents(events))

	o.EditName("Alice")
	state, err := o.Submit(context.Background())

	require.ErrorIs(t, err, httpclient.ErrNoResponse)
	var fetchErr *predictors.FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, domain.FieldGender, fetchErr.Field)

	require.False(t, state.Loading)
	require.Equal(t, PhaseErrorShown, state.Phase)
	require.Equal(t, "No response received from the server.", state.Message)
	require.Equal(t, 30, state.Profile.Age, "fields committed before the failure stay")
	require.Equal(t, "US", state.Profile.Country)
	require.Empty(t, state.View().Sentence)

	require.Equal(t, 1, rec.submissions[metrics.SubmissionFailed])
	require.Equal(t, 1, rec.fetches["gender/"+metrics.FetchError])
	require.Len(t, events.events, 1)
	require.Equal(t, "No response received from the server.", events.events[0].Message)
}

func TestFailingFetchDoesNotCancelSiblings(t *testing.T) {
	release := make(chan struct{})
	set := aliceFetchers()
	set.age.fn = failing(domain.FieldAge, httpclient.ErrSend)
	set.country.fn = func(ctx context.Context, _ string) (domain.FieldOutcome, error) {
		<-release
		if ctx.Err() != nil {
			return domain.FieldOutcome{}, ctx.Err()
		}
		return domain.FieldOutcome{Field: domain.FieldCountry, Found: true, Text: "IN"}, nil
	}
	o := New(set.registry(), WithClock(&manualClock{}))
	o.EditName("Ravi")

	done := make(chan State, 1)
	go func() {
		state, _ := o.Submit(context.Background())
		done <- state
	}()

	select {
	case <-done:
		t.Fatal("submit returned before every fetch finished")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)

	state := <-done
	require.Equal(t, "IN", state.Profile.Country)
	require.Equal(t, "Request failed to be sent.", state.Message)
	require.False(t, state.Loading)
}

func TestFetchesRunConcurrently(t *testing.T) {
	var started sync.WaitGroup
	started.Add(3)
	allStarted := make(chan struct{})
	go func() {
		started.Wait()
		close(allStarted)
	}()

	barrier := func(field domain.Field, text string, age int) func(context.Context, string) (domain.FieldOutcome, error) {
		return func(context.Context, string) (domain.FieldOutcome, error) {
			started.Done()
			select {
			case <-allStarted:
			case <-time.After(2 * time.Second):
				return domain.FieldOutcome{}, &predictors.FetchError{Field: field, Err: httpclient.ErrNoResponse}
			}
			return domain.FieldOutcome{Field: field, Found: true, Text: text, Age: age}, nil
		}
	}

	set := fetcherSet{
		age:     &fakeFetcher{field: domain.FieldAge, fn: barrier(domain.FieldAge, "", 41)},
		gender:  &fakeFetcher{field: domain.FieldGender, fn: barrier(domain.FieldGender, "male", 0)},
		country: &fakeFetcher{field: domain.FieldCountry, fn: barrier(domain.FieldCountry, "DE", 0)},
	}
	o := New(set.registry(), WithClock(&manualClock{}))
	o.EditName("Jonas")

	state, err := o.Submit(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Jonas, a 41-year-old male, from DE.", state.View().Sentence)
}

func TestEditNameHidesSentence(t *testing.T) {
	o := New(aliceFetchers().registry(), WithClock(&manualClock{}))
	o.EditName("Alice")
	state, err := o.Submit(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, state.View().Sentence)

	state = o.EditName("Alicia")
	require.True(t, state.NameChanged)
	require.Equal(t, PhaseIdle, state.Phase)
	require.Empty(t, state.View().Sentence)
	require.Equal(t, 30, state.Profile.Age, "profile is kept until the next submission")
}

func TestSubmitResetsProfile(t *testing.T) {
	set := aliceFetchers()
	o := New(set.registry(), WithClock(&manualClock{}))
	o.EditName("Alice")
	_, err := o.Submit(context.Background())
	require.NoError(t, err)

	set.age.fn = notFound(domain.FieldAge)
	set.gender.fn = notFound(domain.FieldGender)
	set.country.fn = notFound(domain.FieldCountry)
	o.EditName("Zzyzx")
	state, err := o.Submit(context.Background())
	require.NoError(t, err)

	require.Equal(t, domain.NewProfile(), state.Profile)
	require.Empty(t, state.View().Sentence)
}

func TestSubmitAsyncRejectsResubmitWhileLoading(t *testing.T) {
	release := make(chan struct{})
	set := aliceFetchers()
	set.gender.fn = func(context.Context, string) (domain.FieldOutcome, error) {
		<-release
		return domain.FieldOutcome{Field: domain.FieldGender, Found: true, Text: "female"}, nil
	}
	rec := newRecordingRecorder()
	o := New(set.registry(), WithClock(&manualClock{}), WithRecorder(rec))
	o.EditName("Alice")

	ctx, cancel := context.WithCancel(context.Background())
	state, err := o.SubmitAsync(ctx)
	require.NoError(t, err)
	cancel()

	require.True(t, state.Loading)
	require.Equal(t, PhaseLoading, state.Phase)
	require.Equal(t, "Getting Data...", state.View().Progress)
	require.Empty(t, state.View().Sentence)

	_, err = o.Submit(context.Background())
	require.ErrorIs(t, err, ErrSubmissionInFlight)
	_, err = o.SubmitAsync(context.Background())
	require.ErrorIs(t, err, ErrSubmissionInFlight)
	require.Equal(t, 2, rec.submissions[metrics.SubmissionBusy])

	close(release)
	o.Wait()

	state = o.Snapshot()
	require.False(t, state.Loading)
	require.Equal(t, "Alice, a 30-year-old female, from US.", state.View().Sentence,
		"background fetches ignore the cancelled request context")
	require.Equal(t, 3, set.calls())
}

func TestPublishFailureDoesNotChangeState(t *testing.T) {
	events := &recordingEvents{err: errors.New("sink down")}
	o := New(aliceFetchers().registry(), WithClock(&manualClock{}), WithEvents(events))
	o.EditName("Alice")

	state, err := o.Submit(context.Background())
	require.NoError(t, err)
	require.Empty(t, state.Message)
	require.Equal(t, PhaseDisplaying, state.Phase)
	require.Len(t, events.events, 1)
}

func TestMissingFetcherIsUnexpected(t *testing.T) {
	set := aliceFetchers()
	o := New(predictors.NewFetcherRegistry(set.age, set.gender), WithClock(&manualClock{}))
	o.EditName("Alice")

	state, err := o.Submit(context.Background())
	require.ErrorIs(t, err, httpclient.ErrUnexpected)
	require.Equal(t, "An unexpected error occurred.", state.Message)
}

func TestMessageClearsAfterTTL(t *testing.T) {
	clock := &manualClock{}
	o := New(aliceFetchers().registry(), WithClock(clock))

	_, err := o.Submit(context.Background())
	require.ErrorIs(t, err, ErrEmptyName)

	clock.Advance(999 * time.Millisecond)
	require.Equal(t, "Please enter a name!", o.Snapshot().Message)
	clock.Advance(time.Millisecond)
	require.Empty(t, o.Snapshot().Message)
}

func TestMessageTTLIsConfigurable(t *testing.T) {
	clock := &manualClock{}
	o := New(aliceFetchers().registry(), WithClock(clock), WithMessageTTL(3*time.Second))

	_, _ = o.Submit(context.Background())
	clock.Advance(2 * time.Second)
	require.NotEmpty(t, o.Snapshot().Message)
	clock.Advance(time.Second)
	require.Empty(t, o.Snapshot().Message)
}
