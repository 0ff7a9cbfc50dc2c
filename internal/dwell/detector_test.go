package dwell

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

type triggerRecorder struct {
	mu    sync.Mutex
	calls []time.Duration
}

func (r *triggerRecorder) record(_ string, dwell time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, dwell)
}

func (r *triggerRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func TestThresholdsByContentType(t *testing.T) {
	assert.Equal(t, 10*time.Second, ContentArticle.Threshold())
	assert.Equal(t, 3*time.Second, ContentShortVideo.Threshold())
	assert.Equal(t, 30*time.Second, ContentLongVideo.Threshold())
	assert.Equal(t, 10*time.Second, ContentType("unknown").Threshold())
}

func TestInterruptedSegmentsAccumulate(t *testing.T) {
	clock := newFakeClock()
	rec := &triggerRecorder{}
	d := New("article-1", ContentArticle, rec.record, WithClock(clock.Now))

	// 6s visible, then a gap, then 5s visible: fires once at the 10s mark.
	d.SetVisible(true)
	clock.Advance(6 * time.Second)
	d.SetVisible(false)
	assert.Equal(t, 0, rec.count())
	assert.False(t, d.Triggered())

	clock.Advance(30 * time.Second) // invisible time never counts

	d.SetVisible(true)
	clock.Advance(4 * time.Second)
	d.Tick()
	require.Equal(t, 1, rec.count())
	assert.True(t, d.Triggered())
	assert.GreaterOrEqual(t, rec.calls[0], 10*time.Second)

	// Already satisfied: more visibility and ticks change nothing.
	clock.Advance(time.Second)
	d.Tick()
	d.SetVisible(false)
	d.SetVisible(true)
	d.Tick()
	assert.Equal(t, 1, rec.count())
}

func TestTriggerOnVisibilityTransition(t *testing.T) {
	clock := newFakeClock()
	rec := &triggerRecorder{}
	d := New("article-2", ContentArticle, rec.record, WithClock(clock.Now))

	// The crossing can also be detected when the segment closes, without a
	// tick in between.
	d.SetVisible(true)
	clock.Advance(11 * time.Second)
	d.SetVisible(false)

	assert.Equal(t, 1, rec.count())
	assert.GreaterOrEqual(t, rec.calls[0], 10*time.Second)
}

func TestShortVideoThreshold(t *testing.T) {
	clock := newFakeClock()
	rec := &triggerRecorder{}
	d := New("video-1", ContentShortVideo, rec.record, WithClock(clock.Now))

	d.SetVisible(true)
	clock.Advance(2 * time.Second)
	d.Tick()
	assert.Equal(t, 0, rec.count())

	clock.Advance(time.Second)
	d.Tick()
	assert.Equal(t, 1, rec.count())
}

func TestThresholdOverride(t *testing.T) {
	clock := newFakeClock()
	rec := &triggerRecorder{}
	d := New("article-3", ContentArticle, rec.record,
		WithClock(clock.Now),
		WithThreshold(500*time.Millisecond),
	)

	d.SetVisible(true)
	clock.Advance(time.Second)
	d.Tick()
	assert.Equal(t, 1, rec.count())
}

func TestCloseStopsDetection(t *testing.T) {
	clock := newFakeClock()
	rec := &triggerRecorder{}
	d := New("article-4", ContentArticle, rec.record, WithClock(clock.Now))

	d.SetVisible(true)
	clock.Advance(9 * time.Second)
	d.Close()

	// Unmounted: later events and ticks must not fire the trigger.
	clock.Advance(time.Minute)
	d.Tick()
	d.SetVisible(true)
	d.SetVisible(false)
	assert.Equal(t, 0, rec.count())
	assert.False(t, d.Triggered())

	// Close is idempotent.
	d.Close()
}

func TestDwellExcludesInvisibleTime(t *testing.T) {
	clock := newFakeClock()
	d := New("article-5", ContentArticle, nil, WithClock(clock.Now))

	d.SetVisible(true)
	clock.Advance(3 * time.Second)
	d.SetVisible(false)
	clock.Advance(time.Hour)

	assert.Equal(t, 3*time.Second, d.Dwell())
}

func TestRunningSegmentCountsTowardDwell(t *testing.T) {
	clock := newFakeClock()
	d := New("article-6", ContentArticle, nil, WithClock(clock.Now))

	d.SetVisible(true)
	clock.Advance(4 * time.Second)
	assert.Equal(t, 4*time.Second, d.Dwell())
}

func TestStartTickerFiresWithRealClock(t *testing.T) {
	rec := &triggerRecorder{}
	d := New("article-7", ContentArticle, rec.record,
		WithThreshold(30*time.Millisecond),
		WithTickInterval(10*time.Millisecond),
	)
	defer d.Close()

	d.SetVisible(true)
	d.Start()

	assert.Eventually(t, func() bool { return rec.count() == 1 },
		time.Second, 5*time.Millisecond)
}
