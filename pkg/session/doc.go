/*
Package session serialises concurrent play requests in server mode.

One play session exists per (scenario, act) pair. The HTTP and MCP adapters
rebuild an engine from the progress store on every request, so two requests
must not interleave their read-modify-write. A request addressed to one act
may leave it (goto, or advancing past the act's last node) and write the
progress of another act of the same scenario, so the lock is taken per
scenario. Manager provides that in-process lock and, when several replicas
share a store, an additional ports.DistributedLocker.
*/
package session
