package progress

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Reporter gives feedback while a batch of documents is ingested. Step
// is called once per document as work on it begins; Done closes out the
// batch with a summary.
type Reporter interface {
	Step(name string)
	Done(ok, failed int)
}

// NewReporter picks an implementation for the environment: plain lines
// under CI, a progress bar on a terminal.
func NewReporter(total int) Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &lineReporter{total: total}
	}
	return &barReporter{
		bar: progressbar.NewOptions(total,
			progressbar.OptionSetDescription("Ingesting documents"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		),
	}
}

type barReporter struct {
	bar *progressbar.ProgressBar
}

func (r *barReporter) Step(name string) {
	r.bar.Describe(name)
	_ = r.bar.Add(1)
}

func (r *barReporter) Done(ok, failed int) {
	_ = r.bar.Finish()
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "Ingested %d documents, %d failed\n", ok, failed)
	}
}

type lineReporter struct {
	total int
	n     int
}

func (r *lineReporter) Step(name string) {
	r.n++
	fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", r.n, r.total, name)
}

func (r *lineReporter) Done(ok, failed int) {
	fmt.Fprintf(os.Stderr, "Done: %d ingested, %d failed\n", ok, failed)
}
