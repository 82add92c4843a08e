package checkpoint

import (
	"context"
	"fmt"
	"log"

	"github.com/dallangoldblatt/untappd-data/pkg/logger"
	"github.com/dallangoldblatt/untappd-data/pkg/storage"
)

func ExampleStore() {
	objects, err := storage.NewLocalStore("/var/lib/untappd-data")
	if err != nil {
		log.Fatal(err)
	}

	store := NewStore(objects, "last_update.json", logger.GetLogger())
	ctx := context.Background()

	// Load the current checkpoint; a first run gets an empty map
	cp, err := store.Load(ctx)
	if err != nil {
		log.Fatal(err)
	}

	// Work strictly after the checkpoint
	if last, ok := cp.Get("1001"); ok {
		fmt.Printf("Resuming brewery 1001 after post %d\n", last)
	} else {
		fmt.Println("Brewery 1001 has never been processed")
	}

	// Record progress as posts are handled, then persist once the
	// brewery's batch is complete
	cp.Advance("1001", 1474189569)
	if err := store.Save(ctx, cp); err != nil {
		log.Fatal(err)
	}
}

func ExampleCheckpoint_Advance() {
	cp := Checkpoint{}

	cp.Advance("1001", 10)
	cp.Advance("1001", 25)

	// Replayed or out-of-order posts never move a checkpoint backward
	if !cp.Advance("1001", 10) {
		fmt.Println("post 10 already covered")
	}

	// Output:
	// post 10 already covered
}
