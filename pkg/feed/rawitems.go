package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/mmcdole/gofeed"

	errs "github.com/dallangoldblatt/untappd-data/pkg/errors"
)

// extractRawItems returns the verbatim <item>...</item> byte slices of an
// RSS document, in document order. Tokenizing instead of string matching
// keeps CDATA sections containing literal item tags from splitting an item.
func extractRawItems(data []byte) ([][]byte, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Strict = false

	var items [][]byte
	var start int64
	depth := 0

	for {
		offset := decoder.InputOffset()
		tok, err := decoder.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("tokenizing feed at offset %d: %w", offset, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "item" {
				if depth == 0 {
					start = offset
				}
				depth++
			}
		case xml.EndElement:
			if t.Name.Local == "item" && depth > 0 {
				depth--
				if depth == 0 {
					items = append(items, data[start:decoder.InputOffset()])
				}
			}
		}
	}

	if depth != 0 {
		return nil, fmt.Errorf("feed has an unterminated item element")
	}
	return items, nil
}

// ParseStoredItem re-parses a stored raw item by wrapping it in a minimal
// feed envelope. The stage that stored the post and the stage that parses
// it may run different builds, so posts persist as source XML rather than
// any parsed form.
func ParseStoredItem(raw []byte) (*gofeed.Item, error) {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel>`)
	buf.Write(raw)
	buf.WriteString(`</channel></rss>`)

	parsed, err := gofeed.NewParser().Parse(&buf)
	if err != nil {
		return nil, errs.NewParsing("re-parsing stored item", err)
	}
	if len(parsed.Items) != 1 {
		return nil, errs.NewParsing(fmt.Sprintf("stored item parsed to %d entries, want 1", len(parsed.Items)), nil)
	}
	return parsed.Items[0], nil
}
