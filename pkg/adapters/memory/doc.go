// Package memory provides in-memory adapters: a progress key/value store and
// a scenario source. They back tests and embedders that manage persistence
// themselves.
package memory
