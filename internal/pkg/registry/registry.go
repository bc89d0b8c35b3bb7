package registry

import (
	"sync"

	"github.com/commute-learn/podgo/internal/pkg/status"
	"github.com/pkg/errors"
)

// ErrJobNotFound indicates there is no record for the requested job ID
var ErrJobNotFound = errors.New("job not found")

// Registry keeps job status records in process memory.
// It is the only shared mutable structure of the service:
// written by the owning job task, read by any request handler.
// Records are lost on restart - that is the contract, not an accident.
type Registry struct {
	lock sync.RWMutex
	jobs map[string]status.JobRecord

	// Listener, if set, gets a copy of the record after every Add/Update.
	// Called outside the lock.
	Listener func(status.JobRecord)
}

// New creates an empty Registry
func New() *Registry {
	return &Registry{jobs: make(map[string]status.JobRecord)}
}

// Add stores the initial record for a job
func (r *Registry) Add(rec status.JobRecord) {
	r.lock.Lock()
	r.jobs[rec.ID] = rec
	r.lock.Unlock()
	r.notify(rec)
}

// Get returns a copy of the job record
func (r *Registry) Get(id string) (status.JobRecord, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	rec, ok := r.jobs[id]
	return rec, ok
}

// Update mutates the record under the lock and returns the new snapshot
func (r *Registry) Update(id string, f func(*status.JobRecord)) (status.JobRecord, error) {
	r.lock.Lock()
	rec, ok := r.jobs[id]
	if !ok {
		r.lock.Unlock()
		return status.JobRecord{}, errors.Wrap(ErrJobNotFound, id)
	}
	f(&rec)
	r.jobs[id] = rec
	r.lock.Unlock()
	r.notify(rec)
	return rec, nil
}

// Delete drops the record. It does not stop a running job task.
func (r *Registry) Delete(id string) bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	_, ok := r.jobs[id]
	delete(r.jobs, id)
	return ok
}

// List returns a snapshot of all tracked jobs
func (r *Registry) List() []status.JobRecord {
	r.lock.RLock()
	defer r.lock.RUnlock()
	res := make([]status.JobRecord, 0, len(r.jobs))
	for _, rec := range r.jobs {
		res = append(res, rec)
	}
	return res
}

// Len returns the count of tracked jobs
func (r *Registry) Len() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return len(r.jobs)
}

func (r *Registry) notify(rec status.JobRecord) {
	if r.Listener != nil {
		r.Listener(rec)
	}
}
