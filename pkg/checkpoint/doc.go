// Package checkpoint tracks how far each pipeline stage has progressed
// through every brewery's feed.
//
// A checkpoint is a flat map of brewery ID to the highest post ID the stage
// has handled. Two live in the object store: the ingest checkpoint
// (last_update.json) marks the newest stored post, and the parse checkpoint
// (last_parsed.json) marks the newest post whose check-in has reached the
// aggregate table. Checkpoints only move forward, so a crashed run repeats
// work instead of skipping it.
//
// The stored form is a plain JSON object, compatible with the files earlier
// deployments of this pipeline wrote.
package checkpoint
