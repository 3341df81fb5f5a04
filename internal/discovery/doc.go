// Package discovery enumerates candidate files beneath the requested
// scan roots.
//
// The walker skips conventional dependency/build/VCS directories at any
// depth, keeps only files whose extension maps to a requested category,
// and swallows per-file errors so a vanished or unreadable entry never
// aborts a scan. Records are immutable once emitted.
package discovery
