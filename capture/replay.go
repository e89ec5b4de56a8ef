package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/muurk/n2klink/protocol"
)

// maxReplayGap caps the pause between two records in realtime replay,
// so clock jumps in a capture cannot stall a replay for hours.
const maxReplayGap = 5 * time.Second

// Replay reads records from r, re-wraps each frame in a stream envelope
// and hands the wire bytes to feed, in capture order. With realtime set,
// Replay sleeps the recorded gap between frames; otherwise it runs at
// full speed. It returns the number of frames fed.
//
// feed usually points at a parser or a device:
//
//	n, err := capture.Replay(ctx, r, parser.Feed, true)
func Replay(ctx context.Context, r *Reader, feed func(wire []byte), realtime bool) (int, error) {
	var last time.Time
	fed := 0
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return fed, nil
		}
		if err != nil {
			return fed, fmt.Errorf("capture record %d: %w", fed, err)
		}

		if realtime && !last.IsZero() {
			gap := rec.Time.Sub(last)
			if gap > maxReplayGap {
				gap = maxReplayGap
			}
			if gap > 0 {
				timer := time.NewTimer(gap)
				select {
				case <-timer.C:
				case <-ctx.Done():
					timer.Stop()
					return fed, ctx.Err()
				}
			}
		}
		if err := ctx.Err(); err != nil {
			return fed, err
		}

		wire, err := protocol.EncodeFrame(rec.Frame)
		if err != nil {
			return fed, fmt.Errorf("capture record %d: %w", fed, err)
		}
		feed(wire)
		last = rec.Time
		fed++
	}
}
