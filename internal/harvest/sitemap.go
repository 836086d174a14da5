// internal/harvest/sitemap.go
package harvest

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// ProductURLs returns the <loc> entries of a sitemap that contain filter, in
// document order, keeping at most limit. limit <= 0 keeps all of them.
func ProductURLs(data []byte, filter string, limit int) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	urls := []string{}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse sitemap: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "loc" {
			continue
		}

		var loc string
		if err := dec.DecodeElement(&loc, &start); err != nil {
			return nil, fmt.Errorf("parse sitemap loc: %w", err)
		}
		loc = strings.TrimSpace(loc)
		if loc == "" || !strings.Contains(loc, filter) {
			continue
		}

		urls = append(urls, loc)
		if limit > 0 && len(urls) >= limit {
			break
		}
	}

	return urls, nil
}
