// Package fetchpool fans friends-list fetches out over a pool of workers.
//
// A dump phase hands its whole target list to FetchAll and gets back one
// Result per target, in target order, once every fetch has settled.
package fetchpool
