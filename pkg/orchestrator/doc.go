// Package orchestrator wires the container source → transformer → theme →
// renderer pipeline, providing dependency injection friendly helpers for
// consumers that prefer a single entry point.
package orchestrator
