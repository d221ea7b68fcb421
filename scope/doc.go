// Package scope provides structured-concurrency primitives for Go.
// Scopes own the tasks they spawn, provide a join point (Wait), and
// propagate cancellation and errors predictably according to a policy.
// A scope may cap how many of its tasks run at once with a permit limiter;
// tasks are spawned eagerly and wait for a permit before running.
package scope
