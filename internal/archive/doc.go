// Package archive implements the durable on-disk layout of a user's listen
// history and the atomic-replace semantics the sync engine relies on.
//
// # Layout
//
// Each user owns one cache directory containing:
//   - listens.jsonl.gz : the canonical archive, deduplicated and time-sorted
//   - staging.jsonl    : append-only buffer of fetched-but-uncommitted listens
//   - checkpoint.json  : the crawl's durable resume point
//   - likes.json       : the latest full liked-recordings snapshot
//
// # Atomicity
//
// Every replacement of the canonical archive, the checkpoint, and the likes
// snapshot is written to a temporary file in the same directory and renamed
// into place, so a reader never observes a partially written file. The
// staging file is the one append-only exception; a torn final line from a
// crash mid-append is tolerated and dropped on read.
//
// # Locking
//
// [Store.WithLock] exposes the single process-wide exclusive lock that
// serializes archive commits and likes replacements. Both commit paths share
// this one lock; it is held per commit, not per run.
package archive
