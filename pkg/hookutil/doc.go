// Package hookutil ships the interceptors most hosts end up writing by
// hand: field shaping, validation, transport guards, timestamps, logging,
// retries, tracing, panic recovery, result caching, and webhook calls to
// external services.
//
// Interceptors that operate on records read Context.Stage to decide
// between Data ("before") and Result ("after"). A map is treated as a
// single record, a slice as a list of records; other payload shapes are
// left alone.
package hookutil
