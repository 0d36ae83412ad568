package stream

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
)

const boundary = "frame"

// ContentType is the MIME type served by the MJPEG stream.
const ContentType = "multipart/x-mixed-replace; boundary=" + boundary

// Relay buffers encoded JPEG frames from the camera process and serves
// them to viewers as an MJPEG stream. Frames are passed through as raw
// bytes; no decoding happens here. When the queue is full new frames are
// dropped, matching the camera-side behavior of skipping frames rather
// than stalling capture.
type Relay struct {
	frames  chan []byte
	pushed  atomic.Int64
	dropped atomic.Int64
}

// NewRelay creates a relay with the given queue capacity.
func NewRelay(capacity int) *Relay {
	return &Relay{
		frames: make(chan []byte, capacity),
	}
}

// Push queues one encoded frame. It reports whether the frame was queued
// or dropped because the queue is full.
func (r *Relay) Push(frame []byte) bool {
	select {
	case r.frames <- frame:
		r.pushed.Add(1)
		return true
	default:
		r.dropped.Add(1)
		return false
	}
}

// Stats returns the number of frames queued and dropped so far.
func (r *Relay) Stats() (pushed, dropped int64) {
	return r.pushed.Load(), r.dropped.Load()
}

// Serve writes queued frames to w as a multipart MJPEG stream until the
// context is canceled or the client goes away.
func (r *Relay) Serve(ctx context.Context, w http.ResponseWriter) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming not supported by response writer")
	}

	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame := <-r.frames:
			if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", boundary, len(frame)); err != nil {
				return err
			}
			if _, err := w.Write(frame); err != nil {
				return err
			}
			if _, err := fmt.Fprint(w, "\r\n"); err != nil {
				return err
			}
			flusher.Flush()
		}
	}
}
