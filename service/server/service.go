// Package server implements the development blog API over an in-memory store.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/itiky/blogsync/storage/memory"
)

// ErrStopped is returned for writes submitted to a stopped service.
var ErrStopped = errors.New("service stopped")

type (
	// BlogService implements the blog API.
	BlogService struct {
		// Config
		pageSize    int
		batchPeriod time.Duration
		// State
		store    *memory.Store
		accounts *Accounts
		opsCh    chan opsRequest
		router   *gin.Engine
		log      zerolog.Logger
		//
		startOnce sync.Once
		stopOnce  sync.Once
		stopCh    chan struct{}
	}

	// opsRequest is a queued write with its reply channel.
	opsRequest struct {
		ops    []memory.Operation
		doneCh chan int
	}
)

// Handler returns the HTTP handler.
func (s *BlogService) Handler() http.Handler {
	return s.router
}

// Store returns the backing store.
func (s *BlogService) Store() *memory.Store {
	return s.store
}

// submit queues the write operations and waits for the worker to apply them.
// Returns the number of applied operations.
func (s *BlogService) submit(ctx context.Context, ops ...memory.Operation) (int, error) {
	select {
	case <-s.stopCh:
		return 0, ErrStopped
	default:
	}

	req := opsRequest{
		ops:    ops,
		doneCh: make(chan int, 1),
	}

	select {
	case s.opsCh <- req:
	case <-s.stopCh:
		return 0, ErrStopped
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	select {
	case applied := <-req.doneCh:
		return applied, nil
	case <-s.stopCh:
		return 0, ErrStopped
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Start starts the service worker.
func (s *BlogService) Start() {
	s.startOnce.Do(func() {
		monitor.Start(30 * time.Second)
		go s.worker()
	})
}

// Stop stops the service worker.
func (s *BlogService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		monitor.Stop()
	})
}

// worker does the actual job.
func (s *BlogService) worker() {
	s.log.Info().Msg("start")

	queue := make([]opsRequest, 0)

	ticker := time.NewTicker(s.batchPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			// Service stop
			s.log.Info().Int("dropped", len(queue)).Msg("stop")
			return
		case req := <-s.opsCh:
			// Push the write to the queue
			queue = append(queue, req)
		case <-ticker.C:
			if len(queue) == 0 {
				continue
			}

			// Handle the queued writes in timestamp order
			sort.SliceStable(queue, func(i, j int) bool {
				return firstTimestamp(queue[i]).Before(firstTimestamp(queue[j]))
			})

			total := 0
			for _, req := range queue {
				applied := s.store.ApplyOperations(req.ops...)
				total += applied
				req.doneCh <- applied
			}
			monitor.OpsHandled(total)

			queue = make([]opsRequest, 0)
		}
	}
}

func firstTimestamp(req opsRequest) time.Time {
	if len(req.ops) == 0 {
		return time.Time{}
	}

	return req.ops[0].GetTimestamp()
}

// NewBlogService creates a new BlogService object.
func NewBlogService(store *memory.Store, accounts *Accounts, pageSize int, batchPeriod time.Duration, log zerolog.Logger) (*BlogService, error) {
	if store == nil {
		return nil, fmt.Errorf("%s: nil", "store")
	}
	if accounts == nil {
		return nil, fmt.Errorf("%s: nil", "accounts")
	}
	if pageSize <= 0 {
		return nil, fmt.Errorf("%s: must be GT 0", "pageSize")
	}
	if batchPeriod <= 0 {
		return nil, fmt.Errorf("%s: must be GT 0", "batchPeriod")
	}

	monitor.Register(prometheus.DefaultRegisterer)

	s := &BlogService{
		pageSize:    pageSize,
		batchPeriod: batchPeriod,
		store:       store,
		accounts:    accounts,
		opsCh:       make(chan opsRequest),
		log:         log.With().Str("component", "api-server").Logger(),
		stopCh:      make(chan struct{}),
	}
	s.router = s.newRouter()

	return s, nil
}
