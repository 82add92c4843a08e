// Package ingest pulls tracked brewery RSS feeds and stores new posts.
//
// Each run loads the per-brewery checkpoint, fans the feeds out over a
// worker pool, and stores every post whose id is past the brewery's
// checkpoint entry, oldest first. Feeds that are not strictly newest first
// are rejected whole. Brewery failures are isolated: a failed feed leaves
// its checkpoint entry where the durably stored posts end, and the other
// breweries proceed.
package ingest
