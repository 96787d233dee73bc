// Package resource reconciles a remote API call with the local cache and
// publishes the outcome as a stream of DataState envelopes.
//
// A request is described by an Operation (the per-call hooks) and Options
// (network availability and the cache policy). Reconcile runs it in its own
// goroutine and hands back a Subscription; the stream always ends with one
// terminal envelope (success or error) unless the subscriber cancels first.
package resource
