package sequence

import (
	"context"
	"iter"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Type reveals text incrementally: it yields one rune longer prefix every
// interval, the first after one interval, until the whole (NFC-normalized)
// text is shown. It stops without yielding again as soon as ctx is done or
// the consumer stops ranging. Every call starts from an empty prefix.
func Type(ctx context.Context, clock Clock, text string, interval time.Duration) iter.Seq[string] {
	return func(yield func(string) bool) {
		runes := []rune(norm.NFC.String(text))
		for i := range runes {
			select {
			case <-ctx.Done():
				return
			case <-clock.After(interval):
			}
			if ctx.Err() != nil {
				return
			}
			if !yield(string(runes[:i+1])) {
				return
			}
		}
	}
}
