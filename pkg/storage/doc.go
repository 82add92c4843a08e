// Package storage provides the durable object store behind every pipeline
// stage.
//
// Components never talk to each other directly; they communicate only
// through objects in this store. The store holds:
//
//   - Raw posts under "<brewery id>/<brewery id>-<post id>"
//   - The two checkpoint files and three CSV datasets at the root
//   - Dated backup snapshots under the backup prefix
//
// Two implementations exist:
//
// S3Store targets the production bucket through the AWS SDK. LocalStore
// keeps the same layout in a directory tree, with temp-file-and-rename
// writes so an interrupted run cannot leave a torn object; it backs
// development and the test suites.
//
// Usage:
//
//	store, err := storage.New(cfg.Store)
//	if err != nil {
//	    return err
//	}
//	if err := store.Put(ctx, "venue_list.csv", data); err != nil {
//	    return err
//	}
//
// Get returns a typed not found error (errors.IsNotFound) when the object
// is absent, which callers use to distinguish "no checkpoint yet" from a
// real storage failure.
package storage
