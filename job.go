package quash

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	ErrNoSuchJob    = errors.New("no such job")
	ErrJobCompleted = errors.New("job already completed")
	ErrJobTableFull = errors.New("background job limit reached")
)

// Job is a background child. Jobs are never removed from the table, so an
// ID stays valid for the life of the shell.
type Job struct {
	ID         int
	PID        int
	Name       string
	OutputPath string
	Started    time.Time
	Finished   time.Time
	Completed  bool
	ExitStatus int
}

// JobTable is an append-only job registry keyed by job ID.
type JobTable struct {
	mu     sync.Mutex
	jobs   []*Job
	byID   map[int]int
	byPID  map[int]int
	nextID int
	limit  int
	active int
}

// NewJobTable returns an empty table. The limit bounds jobs still running;
// zero means unbounded.
func NewJobTable(limit int) *JobTable {
	return &JobTable{
		byID:   make(map[int]int),
		byPID:  make(map[int]int),
		nextID: 1,
		limit:  limit,
	}
}

// Full reports whether Add would be refused.
func (t *JobTable) Full() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.full()
}

func (t *JobTable) full() bool {
	return t.limit > 0 && t.active >= t.limit
}

// Add records a freshly started background process and issues its job ID.
func (t *JobTable) Add(name string, pid int, outputPath string) (Job, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.full() {
		return Job{}, fmt.Errorf("%w (%d)", ErrJobTableFull, t.limit)
	}

	job := &Job{
		ID:         t.nextID,
		PID:        pid,
		Name:       name,
		OutputPath: outputPath,
		Started:    time.Now(),
	}
	slot := len(t.jobs)
	t.jobs = append(t.jobs, job)
	t.byID[job.ID] = slot
	t.byPID[pid] = slot
	t.nextID++
	t.active++

	return *job, nil
}

// Lookup resolves a job by its ID, completed or not.
func (t *JobTable) Lookup(id int) (Job, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	slot, ok := t.byID[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: %d", ErrNoSuchJob, id)
	}
	return *t.jobs[slot], nil
}

// Complete marks the job owning pid as finished. It returns false when pid
// belongs to no job or the job was already completed, so a repeated exit
// event never produces a second notice.
func (t *JobTable) Complete(pid, status int) (Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	slot, ok := t.byPID[pid]
	if !ok {
		return Job{}, false
	}
	job := t.jobs[slot]
	if job.Completed {
		return *job, false
	}
	job.Completed = true
	job.ExitStatus = status
	job.Finished = time.Now()
	t.active--
	return *job, true
}

// List returns a copy of every job in ID order.
func (t *JobTable) List() []Job {
	t.mu.Lock()
	defer t.mu.Unlock()

	jobs := make([]Job, 0, len(t.jobs))
	for _, job := range t.jobs {
		jobs = append(jobs, *job)
	}
	return jobs
}

// Active returns the jobs not yet completed whose process alive reports as
// still present, in ID order.
func (t *JobTable) Active(alive func(pid int) bool) []Job {
	var active []Job
	for _, job := range t.List() {
		if job.Completed {
			continue
		}
		if alive != nil && !alive(job.PID) {
			continue
		}
		active = append(active, job)
	}
	return active
}

// Len returns the number of jobs ever recorded.
func (t *JobTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.jobs)
}
