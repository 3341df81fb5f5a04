// Command dedupe scans directories for duplicate files, stores the
// results as sessions, and offers commands to inspect, export, and act
// on them.
package main
