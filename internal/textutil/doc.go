// Package textutil provides the text decoding and normalization shared
// by the document and code signature providers.
//
// Decoding accepts UTF-8 and falls back to common single-byte encodings
// (Windows-1252, ISO 8859-1) for legacy files. Normalization applies
// unicode NFC, collapses whitespace runs, and for source code strips
// comment-only lines so formatting changes do not defeat duplicate
// detection.
package textutil
