// Package feed fetches and parses brewery RSS feeds.
//
// This package includes:
//   - A feed client that lists a brewery's visible posts, newest first
//   - Verbatim capture of each item's XML alongside the parsed fields
//   - Re-parsing of stored items for the downstream parse stage
//
// Example usage:
//
//	client := feed.NewClient(cfg.Feed, log)
//
//	posts, err := client.ListPosts(ctx, "42")
//	if err != nil {
//	    // typed errors distinguish rate limits from dead feeds
//	}
//
//	for _, post := range posts {
//	    store.Put(ctx, post.Key(), post.Raw)
//	}
//
// Posts persist as the source XML, so parsing improvements apply
// retroactively by re-reading stored posts:
//
//	item, err := feed.ParseStoredItem(raw)
package feed
