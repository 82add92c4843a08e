// Package sweeper is the weekly maintenance stage of the pipeline.
//
// A sweep runs three phases in order. Backfill re-queries every missing
// venue row through the elevated Foursquare endpoints, resolving what it
// can and marking what is definitively gone as unavailable. Backup copies
// the five durable files into a snapshot prefix named after the run date.
// Prune deletes every snapshot day older than the retention window. The
// later phases run even when backfill stopped early, so a flaky lookup
// service never costs a backup.
package sweeper
