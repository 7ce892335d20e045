/*
Package observability provides telemetry sinks for the traversal engine.

Every sink implements ports.Tracker. The engine treats sinks as
fire-and-forget: their errors are logged at debug level and never affect
traversal. Available sinks:

  - LogTracker writes each event to a slog.Logger.
  - Metrics counts events in Prometheus collectors.
  - MQTTTracker publishes events as JSON to an MQTT broker.
  - Multi fans one event out to several sinks.
*/
package observability
