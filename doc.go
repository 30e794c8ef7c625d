// Package sweep reclaims disk space from a build tool's incremental output
// directory without forcing a full rebuild. It reconstructs the unit
// dependency graph from the tool's own fingerprint records, merges the unit
// graphs of all requested build invocations into one union live set and
// deletes exactly the on-disk entries that no requested invocation can
// reuse.
//
// The guiding bias is safety over reclamation: anything uncertain – a
// malformed record, an unresolvable dependency, an unrecognized path, a
// dependency cycle – keeps artefacts alive. Deleting a possibly-live
// artefact costs a rebuild; keeping a possibly-stale one only costs bytes.
//
// A run is a strict forward pass through the phases
//
//	Collecting → Resolving → Scanning → Planning → Sweeping → Done
//
// and no filesystem mutation happens before the Sweeping phase. Concurrent
// builds in the same output directory are expected: the scanner takes a
// best-effort snapshot and the sweep executor isolates per-entry failures
// instead of assuming exclusive access.
//
// Subpackage sweepcore holds the engine, outfs the output-root scanner,
// cargo the metadata adapters and run the build-tool subprocess
// collaborator.
package sweep
