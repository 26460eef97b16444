// Package instance implements the three kinds of shared, mutable
// engine-lifetime state a linked module can reference: linear memory,
// a funcref table, and global variable cells. Instances are created
// once by the linker and then aliased by every importing module —
// writes through one module's import are visible to every other
// importer of the same instance.
package instance
