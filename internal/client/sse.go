package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"taskchat/internal/logging"
	"taskchat/internal/types"
)

const maxEventLineBytes = 1024 * 1024

// openSSE performs one GET on the stream endpoint and delivers events
// until the body ends or ctx is cancelled.
func (c *Client) openSSE(ctx context.Context, deliver func(types.Event) bool, connected func()) (int, error) {
	url := c.baseURL + "/api/stream"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("X-Request-ID", logging.NewRequestID())

	httpClient := &http.Client{}
	if c.http != nil {
		httpClient.Transport = c.http.Transport
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, decodeAPIError(resp)
	}
	if connected != nil {
		connected()
	}
	c.streamLog("stream open", logging.F("url", url))
	return c.readEvents(resp.Body, deliver)
}

// readEvents decodes a stream body. It accepts text/event-stream framing
// (data: lines terminated by a blank line) and bare newline-delimited
// JSON on the same reader. Undecodable payloads are dropped, and so is
// an event with a line longer than maxEventLineBytes; decoding resumes
// with the next event.
func (c *Client) readEvents(body io.Reader, deliver func(types.Event) bool) (int, error) {
	start := time.Now()
	count := 0
	lines := newLineReader(body, maxEventLineBytes)
	var dataLines []string
	oversized := false

	emit := func(payload string) bool {
		event, ok := c.decodePayload(payload)
		if !ok {
			return true
		}
		if !deliver(event) {
			return false
		}
		count++
		if count == 1 {
			c.streamLog("stream first event", logging.F("type", string(event.Type)))
		}
		return true
	}

	var err error
	for {
		var line string
		var tooLong bool
		line, tooLong, err = lines.next()
		if err != nil {
			break
		}
		if tooLong {
			c.log().Warn("stream event too large, dropped", logging.F("limit", maxEventLineBytes))
			oversized = true
			continue
		}
		switch {
		case line == "":
			if len(dataLines) == 0 || oversized {
				dataLines = dataLines[:0]
				oversized = false
				continue
			}
			payload := strings.Join(dataLines, "\n")
			dataLines = dataLines[:0]
			if !emit(payload) {
				return count, nil
			}
		case strings.HasPrefix(line, "data:"):
			dataLines = append(dataLines, strings.TrimSpace(line[len("data:"):]))
		case strings.HasPrefix(line, ":"),
			strings.HasPrefix(line, "event:"),
			strings.HasPrefix(line, "id:"),
			strings.HasPrefix(line, "retry:"):
		default:
			trimmed := strings.TrimSpace(line)
			if len(dataLines) == 0 && strings.HasPrefix(trimmed, "{") {
				oversized = false
				if !emit(trimmed) {
					return count, nil
				}
			}
		}
	}
	if len(dataLines) > 0 && !oversized {
		emit(strings.Join(dataLines, "\n"))
	}
	if err != io.EOF {
		c.streamLog("stream read error", logging.Err(err))
	}
	c.streamLog("stream close", logging.F("count", count), logging.F("dur", time.Since(start)))
	return count, err
}

// lineReader yields lines without their terminator. Lines longer than
// max are consumed and reported as too long instead of returned.
type lineReader struct {
	r   *bufio.Reader
	max int
	buf []byte
}

func newLineReader(r io.Reader, max int) *lineReader {
	return &lineReader{r: bufio.NewReaderSize(r, 64*1024), max: max}
}

func (l *lineReader) next() (string, bool, error) {
	l.buf = l.buf[:0]
	tooLong := false
	for {
		chunk, err := l.r.ReadSlice('\n')
		if !tooLong {
			if len(l.buf)+len(chunk) > l.max {
				tooLong = true
				l.buf = l.buf[:0]
			} else {
				l.buf = append(l.buf, chunk...)
			}
		}
		switch {
		case err == bufio.ErrBufferFull:
			continue
		case err == io.EOF && (len(l.buf) > 0 || tooLong):
			return strings.TrimRight(string(l.buf), "\r\n"), tooLong, nil
		case err != nil:
			return "", false, err
		}
		return strings.TrimRight(string(l.buf), "\r\n"), tooLong, nil
	}
}

func (c *Client) decodePayload(payload string) (types.Event, bool) {
	event, err := types.DecodeEvent([]byte(payload))
	if err != nil {
		c.log().Debug("stream payload dropped", logging.Err(err), logging.F("bytes", len(payload)))
		return types.Event{}, false
	}
	if event.Type == types.EventHello {
		return types.Event{}, false
	}
	return event, true
}

func (c *Client) streamLog(msg string, fields ...logging.Field) {
	if c.stream.Debug {
		c.log().Info(msg, fields...)
		return
	}
	c.log().Debug(msg, fields...)
}

func describeStreamErr(err error) string {
	if err == nil {
		return ""
	}
	if err == io.EOF {
		return "stream ended"
	}
	return fmt.Sprintf("%v", err)
}
