// Package state is the provider seam around the loadout core: it keeps
// decoded vehicle records (or any other snapshot type) keyed by a stable
// reference. The core itself assumes a single writer per vehicle; callers
// that share vehicles across goroutines own that synchronization here.
package state
