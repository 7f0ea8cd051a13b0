package device

import (
	"sync"
	"time"
)

// Fix is a raw position report from a sensor.
type Fix struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Altitude  *float64  `json:"altitude,omitempty"`
	Accuracy  *float64  `json:"accuracy,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Sensor delivers fixes to subscribers until the returned cancel function
// is called. Callbacks may run on any goroutine.
type Sensor interface {
	Subscribe(onFix func(Fix), onError func(error)) (cancel func())
}

// FeedSensor fans out fixes pushed by the host application (for example a
// phone posting its position) to the current subscribers.
type FeedSensor struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]subscriber
}

type subscriber struct {
	onFix   func(Fix)
	onError func(error)
}

// NewFeedSensor creates a sensor with no subscribers.
func NewFeedSensor() *FeedSensor {
	return &FeedSensor{subs: make(map[int]subscriber)}
}

// Subscribe implements Sensor.
func (s *FeedSensor) Subscribe(onFix func(Fix), onError func(error)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = subscriber{onFix: onFix, onError: onError}
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Publish delivers a fix to every subscriber and returns how many got it.
func (s *FeedSensor) Publish(fix Fix) int {
	if fix.Timestamp.IsZero() {
		fix.Timestamp = time.Now()
	}
	subs := s.snapshot()
	for _, sub := range subs {
		sub.onFix(fix)
	}
	return len(subs)
}

// Fail delivers an error (such as geo.ErrPermissionDenied) to every subscriber.
func (s *FeedSensor) Fail(err error) {
	for _, sub := range s.snapshot() {
		sub.onError(err)
	}
}

// Subscribers returns the number of active subscriptions.
func (s *FeedSensor) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *FeedSensor) snapshot() []subscriber {
	s.mu.Lock()
	defer s.mu.Unlock()
	subs := make([]subscriber, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	return subs
}

// StaticSensor reports a fixed position after Delay.
type StaticSensor struct {
	Fix   Fix
	Delay time.Duration
}

// Subscribe implements Sensor.
func (s StaticSensor) Subscribe(onFix func(Fix), _ func(error)) func() {
	fix := s.Fix
	timer := time.AfterFunc(s.Delay, func() {
		if fix.Timestamp.IsZero() {
			fix.Timestamp = time.Now()
		}
		onFix(fix)
	})
	return func() { timer.Stop() }
}
