package manifestsync

import (
	"io"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// NewMPBProgress renders a single indeterminate spinner-bar for a Sync
// call on w, driven by go-git's sideband byte counter. Unlike the
// Installation Coordinator's per-runtime multi-bar view (rendered by
// internal/console's Bubble Tea model instead), a manifest repository sync
// is exactly the one-shot, single-stream case mpb's bar API fits best, so
// it's used directly here rather than routed through console. Adapted from
// internal/ui/progress.go's handleCommandStart spinner bar.
func NewMPBProgress(w io.Writer) (onProgress ProgressFunc, wait func()) {
	progress := mpb.New(mpb.WithOutput(w), mpb.WithWidth(40))
	bar, _ := progress.Add(0,
		mpb.SpinnerStyle(spinnerFrames...).Build(),
		mpb.BarFillerClearOnComplete(),
		mpb.PrependDecorators(decor.Name("syncing provider manifests ")),
		mpb.AppendDecorators(
			decor.CountersKibiByte("% .1f"),
			decor.OnComplete(decor.Name(""), " done"),
		),
	)

	onProgress = func(written int64) {
		bar.SetCurrent(written)
	}
	wait = func() {
		bar.SetTotal(bar.Current(), true)
		progress.Wait()
	}
	return onProgress, wait
}
