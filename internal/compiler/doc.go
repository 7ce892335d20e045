/*
Package compiler turns authored scenario documents into canonical graphs.

Documents arrive in several incompatible shapes: acts whose steps are strings
or objects, nodes as arrays or keyed maps, "to"/"next"/"goto" target synonyms,
and plain or localized text. The compiler runs a strictly ordered pipeline of
pure, total stages:

 1. Text/Choice coercion: one text field or one choice into canonical form.
 2. Node coercion: one raw node into a domain.Node with a stable id.
 3. Act linearization: one act into an ordered node list.
 4. Graph compilation: id allocation, auto-chaining within and across acts,
    entry resolution, target resolution and meter configuration.

Compile never fails. A document that cannot be read degrades to a graph whose
entry is a synthetic terminal node.
*/
package compiler
