// Package organizer sorts a directory's files into per-category
// folders (images, documents, videos, archives, code, others). Name
// collisions in the destination are resolved by numbering, never by
// overwriting.
package organizer
