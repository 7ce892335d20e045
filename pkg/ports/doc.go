/*
Package ports defines the driven ports (interfaces) of the storyboard engine.

These interfaces decouple the compiler and runtime from external implementations,
allowing the engine to work with various document sources, storage backends and
telemetry sinks.

# Key Interfaces

  - ScenarioSource: Fetches raw scenario documents and the scenario index.
  - KVStore: Durable string-keyed storage backing the Progress Store.
  - Tracker: Fire-and-forget telemetry sink.
  - DistributedLocker: Serialises access to one act across server replicas.
*/
package ports
