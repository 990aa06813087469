package terrain

import "sync"

// Request is one outstanding Manual lookup.
type Request struct {
	Lat, Lon float64
	done     func(float64, error)
	resolved bool
}

// Resolve delivers a height to the requester. Only the first call counts.
func (r *Request) Resolve(height float64) {
	r.finish(height, nil)
}

// Fail delivers an error to the requester.
func (r *Request) Fail(err error) {
	r.finish(0, err)
}

func (r *Request) finish(h float64, err error) {
	if r.resolved {
		return
	}
	r.resolved = true
	r.done(h, err)
}

// Manual is a Sampler whose lookups are completed explicitly, in any order.
// Resolve must be called from the goroutine that owns the requesters.
type Manual struct {
	mu       sync.Mutex
	requests []*Request
}

func (m *Manual) Sample(lat, lon float64, done func(height float64, err error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, &Request{Lat: lat, Lon: lon, done: done})
}

// Requests returns every request issued so far, oldest first.
func (m *Manual) Requests() []*Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Request(nil), m.requests...)
}

// ResolveAll completes every outstanding request with height.
func (m *Manual) ResolveAll(height float64) {
	for _, r := range m.Requests() {
		r.Resolve(height)
	}
}
