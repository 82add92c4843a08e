package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"

	errs "github.com/dallangoldblatt/untappd-data/pkg/errors"
	"github.com/dallangoldblatt/untappd-data/pkg/storage"
)

// readTable fetches a CSV object and returns its data rows. An absent
// object yields no rows and no error, so a first run starts from an empty
// table. The stored header must match exactly.
func readTable(ctx context.Context, store storage.ObjectStore, key string, header []string) ([][]string, error) {
	data, err := store.Get(ctx, key)
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = len(header)

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errs.NewParsing(fmt.Sprintf("reading %s", key), err)
	}
	if len(records) == 0 {
		return nil, errs.NewParsing(fmt.Sprintf("%s has no header row", key), nil)
	}
	if !headerMatches(records[0], header) {
		return nil, errs.NewParsing(fmt.Sprintf("%s has unexpected header %v", key, records[0]), nil)
	}

	return records[1:], nil
}

// writeTable serializes the header and rows and overwrites the object
func writeTable(ctx context.Context, store storage.ObjectStore, key string, header []string, records [][]string) error {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(header); err != nil {
		return errs.NewStorage(fmt.Sprintf("writing %s", key), err)
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return errs.NewStorage(fmt.Sprintf("writing %s", key), err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return errs.NewStorage(fmt.Sprintf("writing %s", key), err)
	}

	return store.Put(ctx, key, buf.Bytes())
}

func headerMatches(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
