package scheduler

import (
	"sync"
	"time"
)

// Clock abstracts wall-clock reads so scheduling decisions are testable.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func RealClock() Clock { return realClock{} }

// Registry accepts deferred one-shot jobs. Execution is best-effort and
// as close to the requested time as timer granularity allows; each job
// runs on its own goroutine so a slow or failing job never delays
// siblings or the request path.
type Registry interface {
	RegisterAt(t time.Time, fn func()) *Registration
	Len() int
	Stop()
}

// Registration is a handle for one pending job. Cancel is safe to call
// at any time, including after the job has fired.
type Registration struct {
	timer *timerJob
}

func (r *Registration) Cancel() {
	if r != nil && r.timer != nil {
		r.timer.cancel()
	}
}

// TimerRegistry is the process-wide registry. Jobs are not persisted:
// pending jobs are lost on restart.
type TimerRegistry struct {
	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]*timerJob
	stopped bool
}

func NewTimerRegistry() *TimerRegistry {
	return &TimerRegistry{pending: make(map[uint64]*timerJob)}
}

func (r *TimerRegistry) RegisterAt(t time.Time, fn func()) *Registration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return &Registration{}
	}

	r.nextID++
	job := &timerJob{id: r.nextID, registry: r}
	job.timer = time.AfterFunc(time.Until(t), func() {
		r.remove(job.id)
		fn()
	})
	r.pending[job.id] = job
	return &Registration{timer: job}
}

func (r *TimerRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Stop cancels all outstanding timers. Jobs already executing are not
// interrupted.
func (r *TimerRegistry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopped = true
	for id, job := range r.pending {
		job.timer.Stop()
		delete(r.pending, id)
	}
}

func (r *TimerRegistry) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, id)
}

type timerJob struct {
	id       uint64
	registry *TimerRegistry
	timer    *time.Timer
}

func (j *timerJob) cancel() {
	if j.timer.Stop() {
		j.registry.remove(j.id)
	}
}
