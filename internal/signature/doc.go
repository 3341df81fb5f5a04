// Package signature computes and compares per-category file signatures.
//
// One Provider exists per category: exact SHA-256 hashing for archives,
// a three-channel perceptual hash for images, frame-sampled perceptual
// hashes for videos, and normalized-text hashes with a fuzzy comparison
// fallback for documents and source code. Every provider owns a bounded
// LRU cache so a signature is computed at most once per file per scan;
// caches are never persisted across runs.
//
// Per-file failures (unreadable, corrupt, unsupported format) degrade
// to an absent signature. They never abort a scan.
package signature
