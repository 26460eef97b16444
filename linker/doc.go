// Package linker resolves a set of decoded modules (plus any host-provided
// native modules) into a flat, cross-module function/table/memory/global
// index, following re-export chains until every import lands on either an
// internal definition or a native function.
//
// Linking proceeds in four independent passes — functions, tables,
// memories, globals — each memoized per module so that a module can be
// visited in any order relative to the modules it imports from. A chain
// of re-exports is followed recursively, bounded by the total number of
// importable slots across the whole module set; exceeding that bound
// means the chain can only be cyclic (errors.CyclicImport), since a
// well-formed chain visits each slot at most once.
//
// Grounded on original_source/crates/engine/src/linker.rs's four link
// passes (link_functions/link_tables/link_memorys/link_global_variables),
// restructured around per-module memoization instead of an explicit
// two-phase enumerate/resolve split — the two give the same result, since
// a location only needs resolving once regardless of how many importers
// reference it.
package linker
