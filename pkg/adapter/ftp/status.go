package ftp

import "time"

// Status is a point-in-time view of the engine for the status API.
type Status struct {
	Enabled       bool      `json:"enabled"`
	Open          bool      `json:"open"`
	Mode          string    `json:"mode"`
	Session       int8      `json:"session"`
	Path          string    `json:"path,omitempty"`
	LastActivity  time.Time `json:"last_activity,omitzero"`
	QueueDepth    int       `json:"queue_depth"`
	QueueCapacity int       `json:"queue_capacity"`
	Enqueued      uint64    `json:"enqueued"`
	Dropped       uint64    `json:"dropped"`
	Requests      uint64    `json:"requests"`
	Retransmits   uint64    `json:"retransmits"`
	Uptime        string    `json:"uptime"`
}

// publishStatus snapshots the worker-owned session. Called by the worker
// after every request.
func (a *Adapter) publishStatus() {
	s := &Status{
		Enabled:      !a.disabled.Load(),
		Open:         a.sess.isOpen(),
		Mode:         a.sess.mode.String(),
		Session:      a.sess.id,
		Path:         a.sess.path,
		LastActivity: a.sess.lastSend,
	}
	a.status.Store(s)
}

// Status returns the latest session snapshot with live queue counters.
// Safe for concurrent use.
func (a *Adapter) Status() Status {
	s := *a.status.Load()
	if a.queue != nil {
		s.QueueDepth = a.queue.Len()
		s.QueueCapacity = a.queue.Cap()
		s.Enqueued = a.queue.Enqueued()
		s.Dropped = a.queue.Dropped()
	}
	s.Requests = a.requests.Load()
	s.Retransmits = a.retrans.Load()
	s.Uptime = time.Since(a.startTime).Round(time.Second).String()
	return s
}
