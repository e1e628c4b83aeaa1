// Package dumper crawls the friends relation and appends "id|name" lines to
// output files.
//
// A simple dump fetches the friends of each seed. A recursive dump first
// fetches the seeds' friends, sorts their ids in descending order and then
// fetches the friends of each of those. Every line is written at most once
// per run; with prefixes set, ids matching a prefix go to the main output and
// the rest to the unseparated output.
package dumper
