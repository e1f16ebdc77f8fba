package grinding

import (
	"context"
	"sync/atomic"
	"time"
)

// Progress counts the digests tried by searchers. A nil *Progress counts
// nothing.
type Progress struct {
	hashesTried uint64
}

func (p *Progress) add(n uint64) {
	if p == nil {
		return
	}
	atomic.AddUint64(&p.hashesTried, n)
}

// HashesTried returns the number of candidates evaluated so far.
func (p *Progress) HashesTried() uint64 {
	if p == nil {
		return 0
	}
	return atomic.LoadUint64(&p.hashesTried)
}

// LogHashRate logs the candidate rate every interval until ctx is done.
func (p *Progress) LogHashRate(ctx context.Context, interval time.Duration) {
	spawn("logHashRate", func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		lastCheck := time.Now()
		lastCount := p.HashesTried()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				count := p.HashesTried()
				kiloHashesTried := float64(count-lastCount) / 1000.0
				log.Infof("Current hash rate is %.2f Khash/s, %d candidates tried",
					kiloHashesTried/now.Sub(lastCheck).Seconds(), count)
				lastCheck = now
				lastCount = count
			}
		}
	})
}
