// Package calculator is the recursive checksum engine of treesum.
//
// CalculateTree drives a full run: it locates or creates the persisted record
// tree, invalidates the ancestors of the target node, computes the target
// branch, restores the ancestor chain bottom-up, and saves the result.
//
// CalculateBranch computes one directory: subdirectory branches are fanned
// out across a bounded worker pool with a synchronous fallback once the pool
// is saturated, then joined before the directory's own aggregate checksum is
// combined from child checksums and a files-only digest. Progress reporting
// and incremental checkpoint saves are gated by a shared adaptive timer (the
// "occasion") that workers probe with a non-blocking lock.
package calculator
