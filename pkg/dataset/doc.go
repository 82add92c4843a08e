// Package dataset defines the durable tables the pipeline maintains and
// their object store keys.
//
// Three CSV tables live at the store root: the append-only check-in table
// (untappd_aggregate_data.csv), the venue registry (venue_list.csv), and the
// venue location table (venue_locations.csv). The two JSON checkpoints and
// the dated backup snapshots share the same root; this package owns the key
// layout so every stage agrees on it.
//
// Tables load fully into memory, are modified in place, and are written
// back whole. Absent objects load as empty tables so a fresh store needs no
// initialization step.
package dataset
