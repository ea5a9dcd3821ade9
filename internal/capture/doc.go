// Package capture records a monitor session to disk and reads it back.
//
// A capture holds the emitted lines, already symbolicated, one per line.
// Files whose name ends in ".zst" are written and read with zstd.
package capture
