package resource

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/itiky/blogsync/model"
)

// streamBuffer covers the leading loading envelopes plus the terminal one.
const streamBuffer = 3

// Reconciler runs Operations. It is safe for concurrent use.
type Reconciler struct {
	// Config
	networkTimeout time.Duration // remote call deadline
	networkDelay   time.Duration // artificial delay before the remote call
	cacheDelay     time.Duration // artificial delay before the cache read
	//
	jobs *JobManager
	log  zerolog.Logger
}

// Jobs returns the job registry.
func (r *Reconciler) Jobs() *JobManager {
	return r.jobs
}

// Reconcile starts op under the job name and returns the envelope stream.
//
// Steps:
//  1. publish a loading envelope, then the cached view if the policy asks for it;
//  2. offline: fail with ErrorCheckNetworkConnection when the policy cancels,
//     unless it processes without network, then complete from cache;
//  3. otherwise call the API: success goes to HandleAPISuccessResponse,
//     an empty body is a no-op success, errors carry the server message.
//
// Exactly one terminal envelope is published unless the subscriber cancels.
func Reconcile[Resp, Cache, View any](ctx context.Context, r *Reconciler, name string, opts Options, op Operation[Resp, Cache, View]) *Subscription[DataState[View]] {
	log := r.log.With().Str("job", name).Logger()

	// Registered before the producer runs: the latest call under a name wins
	jobCtx, cancel := context.WithCancel(ctx)
	release := r.jobs.Add(name, cancel)

	return Start(jobCtx, streamBuffer, func(ctx context.Context, s *Subscription[DataState[View]]) {
		defer cancel()
		defer release()

		complete := func(state DataState[View]) {
			if !state.IsTerminal() {
				log.Error().Msg("operation returned a non terminal state")
				state = Error[View](Response{Message: model.ErrorUnknown, Type: ResponseDialog})
			}
			if ctx.Err() != nil {
				log.Debug().Msg("job cancelled, dropping terminal state")
				return
			}
			if s.Emit(state) {
				recordCompletion(name, state.Status)
				log.Debug().Stringer("state", state).Msg("job complete")
			}
		}

		if !s.Emit(Loading[View](nil)) {
			return
		}

		if opts.ShouldLoadFromCacheBeforeFetch {
			if !sleep(ctx, r.cacheDelay) {
				return
			}
			cached, err := op.LoadFromCache(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("cache read before fetch failed")
			}
			recordCacheLoad(name, cached != nil)
			if cached != nil && !s.Emit(Loading(cached)) {
				return
			}
		}

		if !opts.IsNetworkAvailable {
			if opts.ShouldCancelIfNoNetwork && !opts.ShouldProcessResponseEvenWithoutNetwork {
				log.Info().Msg("no network, cancelling")
				complete(Error[View](Response{Message: model.ErrorCheckNetworkConnection, Type: ResponseDialog}))
				return
			}
			log.Info().Msg("no network, completing from cache")
			complete(op.CreateCacheRequestAndReturn(ctx))
			return
		}

		if !sleep(ctx, r.networkDelay) {
			return
		}

		callCtx, callCancel := context.WithTimeout(ctx, r.networkTimeout)
		res := op.CreateCall(callCtx)
		timedOut := res.Kind == APIError && errors.Is(callCtx.Err(), context.DeadlineExceeded)
		callCancel()

		if ctx.Err() != nil {
			log.Debug().Msg("job cancelled during the call, result discarded")
			return
		}
		if timedOut {
			log.Warn().Dur("timeout", r.networkTimeout).Msg("network timeout")
			complete(Error[View](Response{Message: model.ErrorNetworkTimeout, Type: ResponseDialog}))
			return
		}

		switch res.Kind {
		case APISuccess:
			complete(op.HandleAPISuccessResponse(ctx, res.Body))
		case APIEmpty:
			log.Debug().Int("status", res.StatusCode).Msg("empty response")
			complete(Data[View](nil, nil))
		default:
			message := res.ErrorMessage
			if message == "" {
				message = model.ErrorUnknown
			}
			log.Info().Int("status", res.StatusCode).Str("error", message).Msg("api error")
			complete(Error[View](Response{Message: message, Type: ResponseDialog}))
		}
	})
}

// sleep waits d, returns false if ctx ends first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// NewReconciler creates a new Reconciler object.
func NewReconciler(name string, networkTimeout, networkDelay, cacheDelay time.Duration, log zerolog.Logger) (*Reconciler, error) {
	if networkTimeout <= 0 {
		return nil, errors.New("networkTimeout: must be GT 0")
	}
	if networkDelay < 0 {
		return nil, errors.New("networkDelay: must be GTE 0")
	}
	if cacheDelay < 0 {
		return nil, errors.New("cacheDelay: must be GTE 0")
	}

	RegisterMetrics()
	log = log.With().Str("reconciler", name).Logger()

	return &Reconciler{
		networkTimeout: networkTimeout,
		networkDelay:   networkDelay,
		cacheDelay:     cacheDelay,
		jobs:           NewJobManager(name, log),
		log:            log,
	}, nil
}
