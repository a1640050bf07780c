// Package hook composes conditional interceptor pipelines.
//
// An Interceptor receives an invocation Context, may replace it, and may
// fail. A Chain runs interceptors strictly in order and stops at the first
// failure. Nodes built with Iff, IffElse, and Unless gate chains behind
// predicates; Every, Some, IsNot, and FromTransport combine predicates.
// Hosts build a Context per call and run the tree with Invoke:
//
//	pipeline := hook.Combine(
//		validate,
//		hook.Iff(hook.FromTransport(hook.External),
//			stripInternalFields,
//		).Else(
//			markTrusted,
//		),
//		persist,
//	)
//
//	c, err := hook.Invoke(ctx, &hook.Context{Path: "messages", Method: "create"}, pipeline)
//
// Failures carry a classification (*Error): predicate-failure,
// interceptor-failure with the zero-based position of the failing entry in
// its chain, or combinator-failure with the first observed cause.
//
// The walk is sequential and depth-first; at most one branch of a node runs
// per pass, and a node's predicate is evaluated once per invocation. Only
// Every and Some fan out internally. The package never recovers panics and
// sets no deadlines of its own; callers bound an invocation by cancelling
// the context they pass to Invoke.
package hook
