// Package remote defines the abstract interfaces through which the
// engine reaches the hosting service.
//
// The remote service owns membership lists, role checks, rate limits,
// and the authoritative crypto state of every sector; this package only
// models the asynchronous calls the engine needs. All calls accept a
// context and may fail with a *CallError; the engine treats every such
// failure as retryable only by explicit user action, never by silent
// automatic retry beyond the fixed polling intervals.
package remote
