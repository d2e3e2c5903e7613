package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/nyunai/nyun/lib/images"
	"github.com/samber/lo"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	skipStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	noteStyle = lipgloss.NewStyle().Faint(true)
)

// pullBar is the display state of one image in a batch.
type pullBar struct {
	bar *mpb.Bar

	mu     sync.Mutex
	status images.Status
}

func (b *pullBar) setStatus(s images.Status) {
	b.mu.Lock()
	b.status = s
	b.mu.Unlock()
}

func (b *pullBar) label(decor.Statistics) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.status)
}

// pullImages pulls refs through m, rendering one bar per image on out while
// the batch runs and one outcome line per image once it is done. Bars are
// only drawn when bars is true.
func pullImages(ctx context.Context, out io.Writer, bars bool, m images.Manager, refs []*images.Ref) []images.PullResult {
	refs = lo.Uniq(lo.Compact(refs))
	if len(refs) == 0 {
		return nil
	}

	barOut := io.Discard
	if bars {
		barOut = out
	}
	p := mpb.NewWithContext(ctx, mpb.WithOutput(barOut), mpb.WithWidth(40))

	width := 0
	for _, ref := range refs {
		width = max(width, len(ref.String()))
	}
	state := make(map[*images.Ref]*pullBar, len(refs))
	for i, ref := range refs {
		pb := &pullBar{status: images.StatusPending}
		pb.bar = p.AddBar(0,
			mpb.PrependDecorators(
				decor.Name(fmt.Sprintf("[%d/%d] ", i+1, len(refs))),
				decor.Name(ref.String(), decor.WC{W: width + 1, C: decor.DindentRight}),
			),
			mpb.AppendDecorators(
				decor.OnAbort(decor.OnComplete(decor.CountersKibiByte("% .1f / % .1f"), "done"), ""),
				decor.Any(pb.label, decor.WC{W: 8}),
			),
		)
		state[ref] = pb
	}

	subCtx, cancel := context.WithCancel(ctx)
	updates, err := m.Tracker().Subscribe(subCtx)
	done := make(chan struct{})
	if err != nil {
		close(done)
	} else {
		go func() {
			defer close(done)
			for u := range updates {
				pb, ok := state[u.Image]
				if !ok {
					continue
				}
				pb.setStatus(u.Status)
				if u.Size > 0 && !u.Status.Terminal() {
					pb.bar.SetTotal(u.Size, false)
					pb.bar.SetCurrent(u.Current)
				}
			}
		}()
	}

	results := m.PullAll(ctx, refs)
	cancel()
	<-done

	// Finalize from the results; the tracker may have dropped updates.
	for _, r := range results {
		pb, ok := state[r.Image]
		if !ok {
			continue
		}
		pb.setStatus(r.Status)
		if r.Status == images.StatusPulled {
			pb.bar.SetTotal(-1, true)
		} else {
			pb.bar.Abort(false)
		}
	}
	p.Wait()

	for _, r := range results {
		fmt.Fprintln(out, outcomeLine(r))
	}
	return results
}

func outcomeLine(r images.PullResult) string {
	switch r.Status {
	case images.StatusPulled:
		return okStyle.Render("✓ " + r.Message())
	case images.StatusSkipped:
		return skipStyle.Render("• " + r.Message())
	default:
		return failStyle.Render("✗ " + r.Message())
	}
}
