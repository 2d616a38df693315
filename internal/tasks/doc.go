// Package tasks implements the sync engine: the backward-paging listen crawl,
// the staging/commit reconciliation, the stateless likes replacement, and the
// coordinator that runs both as concurrent workers.
//
// # Core Operations
//
// The [SyncEngine] interface exposes one operation:
//
//	[SyncEngine.Run] : one coordinated sync of listens and likes
//	  - the [Crawler] walks remote history backward from the checkpoint,
//	    staging each page durably before committing it through the [Reconciler]
//	  - [LikesSync] re-fetches the full liked-recordings set and atomically
//	    replaces the local snapshot
//	  - both workers run in parallel, share one cancellation signal and one
//	    persistence lock, and always reach their own terminal status
//
// The coordinator is a barrier: it reports exactly one [Summary] per run,
// only after both workers have finished, regardless of which failed.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct carries the worker name, phase, counters, and a
// display message. Updates use select with default to prevent blocking.
//
// # Failure Handling
//
// Recoverable network errors are retried inside the service client and never
// escape a worker. Exhausted retries end the worker with a resumable status;
// persistence failures are fatal for the run but leave all prior durable
// state intact. A failure in one worker never cancels the other.
package tasks
