// File: internal/stack/doc.go
// Brief: Stack restart pipeline.

// Package stack implements the restack pipeline: precondition guard,
// catalog resolution, service selection, restart strategy execution, and
// readiness waiting. The container backend is abstracted behind the
// Backend interface so every decision path can be exercised against a
// fake implementation.
package stack
