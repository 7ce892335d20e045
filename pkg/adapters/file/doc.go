// Package file provides filesystem adapters: an atomic JSON key/value store
// for progress and a directory-backed scenario source.
package file
