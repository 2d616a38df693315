// Package models defines domain entities and persistence interfaces for the lbx listen archiver.
//
// The package contains two categories of types:
//
// 1. Archive records: value types flowing through the sync engine
//   - [Listen] : a single timestamped play, immutable once committed
//   - [RawListen] : an unverified API record prior to normalization
//   - [LikedSet] : the flat set of liked recording MBIDs
//   - [Checkpoint] : the durable resume point of the backward crawl
//
// 2. Persistent entities: database-backed models with full lifecycle management
//   - [User] : known ListenBrainz accounts with tokens
//   - [SyncRun] : the recorded outcome of one coordinated sync run
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
