// Package services defines the [ListenSource] interface for remote listen
// providers and implements it for the ListenBrainz API.
//
// # ListenSource Interface
//
// The sync engine consumes the remote service through two paginated fetch
// primitives: listens pages ordered newest-to-oldest from a max_ts cursor,
// and liked-recording pages addressed by offset. The interface keeps the
// engine testable against in-memory fakes.
//
// # ListenBrainz Implementation
//
// [ListenBrainzService] wraps the public ListenBrainz HTTP API. Every request
// passes through a [rate.Limiter] and a bounded retry loop:
//   - connection errors, timeouts, and 5xx responses back off exponentially
//     and retry up to the configured attempt limit
//   - 429 responses honor the server's Retry-After delay
//   - 401/403 fail fast as [shared.ErrAuth]; other 4xx as [shared.ErrAPIRequest]
//
// Exhausting the retry budget surfaces [shared.ErrRetriesExceeded] wrapping
// the last underlying error, which the workers report as a resumable run.
package services
