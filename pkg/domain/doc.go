/*
Package domain contains the canonical models of the storyboard engine.

It defines the compiled scenario graph and the mutable play state. This package
is kept pure and free of I/O, following Hexagonal Architecture principles: the
compiler produces these types, the runtime mutates State, and adapters persist
Progress.

# Key Entities

  - Node: One narrative unit (line, choice, goto or end) after compilation.
  - Choice: A labelled edge out of a choice node, with optional meter effects.
  - Graph: The immutable compiled scenario (entry node, nodes, acts, meters).
  - State: The live position and meter values of one play session.
  - Progress: The persisted subset of State, keyed by scenario and act.
  - Snapshot: What the presentation layer paints after every transition.
*/
package domain
