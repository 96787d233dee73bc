package resource

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

type (
	// JobManager tracks named in-flight jobs.
	// Starting a job under a name that is still active cancels the older one.
	JobManager struct {
		sync.Mutex
		name   string
		log    zerolog.Logger
		nextId uint64
		jobs   map[string]job
	}

	job struct {
		id     uint64
		cancel context.CancelFunc
	}
)

// Add registers cancel under name and returns the release func to call when the job ends.
func (m *JobManager) Add(name string, cancel context.CancelFunc) (release func()) {
	m.Lock()
	defer m.Unlock()

	if prev, found := m.jobs[name]; found {
		m.log.Debug().Str("job", name).Msg("cancelling previous job")
		prev.cancel()
	}

	m.nextId++
	id := m.nextId
	m.jobs[name] = job{id: id, cancel: cancel}

	return func() {
		m.Lock()
		defer m.Unlock()

		if cur, found := m.jobs[name]; found && cur.id == id {
			delete(m.jobs, name)
		}
	}
}

// CancelActiveJobs cancels every registered job.
func (m *JobManager) CancelActiveJobs() {
	m.Lock()
	defer m.Unlock()

	for name, j := range m.jobs {
		m.log.Debug().Str("job", name).Msg("cancelling job")
		j.cancel()
		delete(m.jobs, name)
	}
}

// Active returns the sorted names of running jobs.
func (m *JobManager) Active() []string {
	m.Lock()
	defer m.Unlock()

	names := make([]string, 0, len(m.jobs))
	for name := range m.jobs {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// NewJobManager creates a new JobManager object.
func NewJobManager(name string, log zerolog.Logger) *JobManager {
	return &JobManager{
		name: name,
		log:  log.With().Str("jobManager", name).Logger(),
		jobs: make(map[string]job),
	}
}
