package agui

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/loomkit/loom/agui/events"
)

// WriteEvent writes one wire event as an SSE frame and flushes it.
//
// The frame carries the event type in the "event" field and the JSON
// payload in a single "data" field.
func WriteEvent(w io.Writer, flusher http.Flusher, e events.Event) error {
	data, err := e.ToJSON()
	if err != nil {
		return fmt.Errorf("agui: serialize %s: %w", e.Type(), err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type(), data); err != nil {
		return fmt.Errorf("agui: write %s: %w", e.Type(), err)
	}
	if flusher != nil {
		flusher.Flush()
	}
	return nil
}

// frameReader yields the data payload of successive SSE frames.
type frameReader struct {
	r *bufio.Reader
}

func newFrameReader(r io.Reader) *frameReader {
	return &frameReader{r: bufio.NewReader(r)}
}

// next returns the next frame's data payload. Multi-line data fields join
// with a newline per the SSE format; comment and event-name lines are
// skipped. io.EOF means the stream ended cleanly between frames.
func (f *frameReader) next() ([]byte, error) {
	var data []string
	for {
		line, err := f.r.ReadString('\n')
		if err != nil {
			if err == io.EOF && len(data) > 0 {
				// Frame cut off mid-way.
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")

		switch {
		case line == "":
			if len(data) > 0 {
				return []byte(strings.Join(data, "\n")), nil
			}
		case strings.HasPrefix(line, ":"):
			// Comment, keep-alive ping.
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		default:
			// "event:" and other fields carry nothing the payload lacks.
		}
	}
}

// readEvent parses the next frame into a typed wire event.
func (f *frameReader) readEvent() (events.Event, error) {
	payload, err := f.next()
	if err != nil {
		return nil, err
	}
	e, err := events.EventFromJSON(bytes.TrimSpace(payload))
	if err != nil {
		return nil, &ProtocolError{Err: err}
	}
	return e, nil
}
