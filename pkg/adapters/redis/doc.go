// Package redis provides the Redis-backed progress store and distributed
// locker used when several server replicas share progress.
package redis
