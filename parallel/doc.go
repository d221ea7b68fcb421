// Package parallel provides data-parallel loops over materialised slices and
// lazily produced sequences.
//
// For and ForEach follow the thread-local-state pattern: every worker owns a
// private local value created by init, folds items into it with body, and
// hands it to finally exactly once when its share is exhausted. MapReduce
// maps items in parallel and folds the results with an associative,
// commutative reducer.
//
// All loops check ctx before starting each item; an item already running is
// never interrupted. The first error cancels the loop and is returned.
package parallel
