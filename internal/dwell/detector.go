// Package dwell decides when a content unit has genuinely been viewed.
//
// A detector integrates visible time across interruptions: visibility events
// open and close segments, a periodic tick catches the threshold crossing
// while the unit stays visible, and the "viewed" signal fires exactly once.
// This is the client-side half of view dedup; the server independently
// deduplicates per viewer with an expiring counter.
package dwell

import (
	"sync"
	"time"
)

// ContentType selects the dwell threshold for a content unit.
type ContentType string

const (
	ContentArticle    ContentType = "article"
	ContentShortVideo ContentType = "short_video"
	ContentLongVideo  ContentType = "long_video"
)

// Threshold returns the cumulative visible time required before a view of
// this content type counts. Unknown types fall back to the article threshold.
func (t ContentType) Threshold() time.Duration {
	switch t {
	case ContentShortVideo:
		return 3 * time.Second
	case ContentLongVideo:
		return 30 * time.Second
	default:
		return 10 * time.Second
	}
}

type state int

const (
	stateIdle state = iota
	stateAccumulating
	stateSatisfied
)

// TriggerFunc receives the content id and the cumulative dwell time at the
// moment the threshold was crossed.
type TriggerFunc func(contentID string, dwell time.Duration)

// Option configures a Detector.
type Option func(*Detector)

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) { d.now = now }
}

// WithThreshold overrides the content-type threshold.
func WithThreshold(threshold time.Duration) Option {
	return func(d *Detector) { d.threshold = threshold }
}

// WithTickInterval changes the polling period used by Start.
func WithTickInterval(interval time.Duration) Option {
	return func(d *Detector) { d.tickInterval = interval }
}

// Detector tracks one mounted content unit. It must not be shared across
// units; create one per mount and Close it on unmount.
type Detector struct {
	contentID    string
	threshold    time.Duration
	tickInterval time.Duration
	now          func() time.Time
	onTrigger    TriggerFunc

	mu           sync.Mutex
	st           state
	accumulated  time.Duration
	segmentStart time.Time
	closed       bool

	stopTicker chan struct{}
	closeOnce  sync.Once
}

// New creates a detector for one content unit. onTrigger fires exactly once,
// on entry to the satisfied state.
func New(contentID string, contentType ContentType, onTrigger TriggerFunc, opts ...Option) *Detector {
	d := &Detector{
		contentID:    contentID,
		threshold:    contentType.Threshold(),
		tickInterval: time.Second,
		now:          time.Now,
		onTrigger:    onTrigger,
		stopTicker:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetVisible records a visibility transition. Becoming visible opens a
// segment; becoming invisible closes it and folds its duration into the
// cumulative total.
func (d *Detector) SetVisible(visible bool) {
	d.mu.Lock()

	if d.closed || d.st == stateSatisfied {
		d.mu.Unlock()
		return
	}

	now := d.now()
	if visible {
		if d.st == stateIdle {
			d.segmentStart = now
			d.st = stateAccumulating
		}
	} else {
		if d.st == stateAccumulating {
			d.accumulated += now.Sub(d.segmentStart)
			d.st = stateIdle
		}
	}

	fire := d.maybeSatisfyLocked(now)
	d.mu.Unlock()

	if fire != nil {
		fire()
	}
}

// Tick re-evaluates the threshold while the unit stays visible, so the signal
// does not wait for the user to scroll away. Start drives this automatically.
func (d *Detector) Tick() {
	d.mu.Lock()

	if d.closed || d.st != stateAccumulating {
		d.mu.Unlock()
		return
	}

	fire := d.maybeSatisfyLocked(d.now())
	d.mu.Unlock()

	if fire != nil {
		fire()
	}
}

// maybeSatisfyLocked checks for a first crossing and, when found, moves to
// the absorbing satisfied state. It returns the trigger thunk so callers can
// invoke it after releasing the lock.
func (d *Detector) maybeSatisfyLocked(now time.Time) func() {
	total := d.totalLocked(now)
	if total < d.threshold {
		return nil
	}

	d.st = stateSatisfied
	if d.onTrigger == nil {
		return nil
	}
	cb, id := d.onTrigger, d.contentID
	return func() { cb(id, total) }
}

func (d *Detector) totalLocked(now time.Time) time.Duration {
	total := d.accumulated
	if d.st == stateAccumulating {
		total += now.Sub(d.segmentStart)
	}
	return total
}

// Dwell returns the cumulative visible time observed so far.
func (d *Detector) Dwell() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.totalLocked(d.now())
}

// Triggered reports whether the viewed signal has fired.
func (d *Detector) Triggered() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.st == stateSatisfied
}

// Start runs the polling loop until Close is called or the detector is
// satisfied.
func (d *Detector) Start() {
	go func() {
		ticker := time.NewTicker(d.tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-d.stopTicker:
				return
			case <-ticker.C:
				d.Tick()
				if d.Triggered() {
					return
				}
			}
		}
	}()
}

// Close releases the timer and detaches the detector from its visibility
// source in one step: after Close no trigger can fire. Idempotent.
func (d *Detector) Close() {
	d.closeOnce.Do(func() {
		close(d.stopTicker)
		d.mu.Lock()
		d.closed = true
		if d.st == stateAccumulating {
			d.accumulated += d.now().Sub(d.segmentStart)
			d.st = stateIdle
		}
		d.mu.Unlock()
	})
}
