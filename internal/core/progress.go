package core

import "bytes"

// progress.go derives review progress from a response history. Nothing here
// touches the store.

// Later reports whether a was recorded after b. Equal timestamps fall back to
// the id: ids are UUIDv7 from a monotonic generator, so the greater id is the
// later insertion.
func Later(a, b Response) bool {
	if a.CreatedAt != b.CreatedAt {
		return a.CreatedAt > b.CreatedAt
	}
	return bytes.Compare(a.ID[:], b.ID[:]) > 0
}

// Latest returns the most recent response, or nil for an empty history.
func Latest(responses []Response) *Response {
	var last *Response
	for i := range responses {
		if last == nil || Later(responses[i], *last) {
			last = &responses[i]
		}
	}
	if last == nil {
		return nil
	}
	r := *last
	return &r
}

// Summarize counts remembered and forgotten attempts and picks the latest one.
func Summarize(responses []Response) Progress {
	var p Progress
	for _, r := range responses {
		if r.Remembered {
			p.YesCount++
		} else {
			p.NoCount++
		}
	}
	p.Total = p.YesCount + p.NoCount
	p.LastResponse = Latest(responses)
	return p
}

// StatusOf classifies a flashcard by its latest response.
func StatusOf(last *Response) Status {
	switch {
	case last == nil:
		return StatusUnseen
	case last.Remembered:
		return StatusRemembered
	default:
		return StatusNotRemembered
	}
}
