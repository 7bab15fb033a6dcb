// Package registry implements the entity health and novel-input
// test-coverage registry at the core of trustgate.
//
// # Model
//
// Every governed work-unit (code node, sub-workflow, agent, orchestrator)
// is an entity identified by a content hash of its (type, path) pair, so
// identity is derived, never random, and survives process restarts.
// Entities accumulate an append-only log of test runs. Each run's input is
// fingerprinted; the set of distinct input fingerprints with at least one
// passing run is the entity's coverage. An entity is healthy once its
// coverage reaches the configured threshold (default 3 novel runs).
//
// # Why novel inputs
//
// Running the same test a hundred times proves very little about generated
// code. Replaying a byte-identical input therefore never increases
// coverage: promotion requires functionally distinct executions, each
// independently verified.
//
// # Weakest-link hierarchy
//
// Entities compose into a parent/child hierarchy. A composite is
// release-safe only when it is healthy itself and every descendant,
// transitively, is healthy too. One untested leaf anywhere below the root
// blocks the root. CheckEntityHealth evaluates this live on every call;
// BuildHierarchy produces a cached, advisory summary for dashboards that
// gating never reads.
//
// # Mutation discipline
//
// RecordTestRun is the sole write path for test history; MarkEntityStale is
// the sole external override, used when an entity's definition changes and
// accumulated trust must be invalidated. Everything else is a read-only
// projection over an in-memory registry loaded and saved wholesale by the
// storage package.
package registry
