// Package reconcile implements the reconciliation engine for a CDC-replicated
// pair of datasets: an authoritative source store and a downstream target
// replica kept in sync by change-data-capture.
//
// The engine is pure and synchronous. It operates on in-memory record
// collections, performs no I/O, and holds no state between calls, so
// concurrent invocations over disjoint inputs are safe by construction.
// Fetching rows, persisting checkpoints, executing repairs, and emitting
// metrics are the job of the runner and cmd packages.
//
// # Pipeline
//
// The engine is composed of four layers, each usable on its own:
//
//  1. Normalizer: canonicalizes heterogeneous values (UUIDs, decimals,
//     timestamps, byte blobs, nested containers) into one comparable form.
//
//  2. Comparer: field-by-field row comparison under a configurable policy
//     (ignored fields, case folding, float tolerance). Comparison is
//     restricted to the field-name intersection, so asymmetric field sets
//     are not a mismatch.
//
//  3. Differ: index-based set algebra over two collections keyed by a
//     single or composite primary key. Reports missing, extra, and
//     mismatched keys, plus duplicates, schema-shape differences, and
//     summary statistics. Whole-collection, batched count-only, and
//     streaming variants are provided.
//
//  4. Repairer: turns discrepancies into safely quoted INSERT, DELETE, and
//     UPDATE statement objects, ordered DELETE before INSERT before UPDATE.
//
// # Failure semantics
//
// A key field that is absent or NULL anywhere in either collection aborts
// the whole call with an error naming the field and the offending row's
// position. No partial index or partial result is ever returned; a
// reconciliation built on a partially valid index would misreport
// discrepancies as false missing or extra rows.
//
// # Usage Example
//
//	d, err := reconcile.FindAllDiscrepancies(source, target,
//	    reconcile.SingleKey("user_id"), reconcile.DiffOptions{})
//	if err != nil {
//	    return err
//	}
//
//	actions, err := reconcile.GenerateRepairActions(d, "users", "cdc_data",
//	    reconcile.SingleKey("user_id"), dryRun)
package reconcile
