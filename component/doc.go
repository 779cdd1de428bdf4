// Package component implements dense columnar component storage.
//
// A Table stores one row per entity. Every field of the component lives in
// its own Column, a flat slice indexed by slot, so a system can walk a
// single field across all entities without touching the others.
//
// # Partitions
//
// Each frame the table tracks which rows changed and which were created,
// without per-row flags. Rows are kept in three contiguous partitions:
//
//	[0, lastDirty]          dirty: modified since the last sync
//	(lastDirty, firstNew)   clean
//	[firstNew, Len())       new: created since the last sync
//
// MarkDirty moves a clean row to the end of the dirty partition with one
// swap; Create appends to the new partition. A sync step can therefore
// copy DirtyRange and NewRange as two contiguous runs, then call Reset.
//
// Tables are owned by the simulation goroutine and are not safe for
// concurrent use.
package component
