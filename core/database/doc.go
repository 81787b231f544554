// Package database provides connectivity and row access for the source
// and target stores.
//
// Connections are established through GORM with the MySQL driver. Two
// independent connections are held during a run, one per store, each with
// its own Config.
//
// # Row Access
//
// TableReader pages rows out in stable key order, which keeps batch
// offsets meaningful across resumed runs. Rows surface as generic
// records (column name to value) rather than typed models, since the
// engine reconciles arbitrary tables.
//
// Executor runs generated repair statements against the target store and
// reports affected row counts.
package database
