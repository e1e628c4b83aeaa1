// Package storage handles the files frienddump reads and writes: seed and
// probe lists on the way in, append-only "id|name" output files on the way out.
//
// Output files are never rewritten. Each Target.Append is one write of
// complete lines, so an interrupted dump leaves only whole lines behind.
package storage
