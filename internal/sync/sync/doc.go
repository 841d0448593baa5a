// Package sync provides the deploy orchestration logic.
//
// A deploy moves through Diffing, Filtering, Dispatching, AwaitingCompletion,
// an optional Retrying pass and Reporting. Dispatching runs the delete, update
// and upload batches concurrently; every outcome lands in one aggregator whose
// completion ends the dispatch.
package sync
