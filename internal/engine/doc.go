// Package engine orchestrates a duplicate scan end to end: discover
// files under the requested roots, compute per-category signatures in
// parallel, cluster them into duplicate groups, and persist the results
// as a session. Runs can be paused, resumed, and stopped cooperatively
// between units of work.
package engine
