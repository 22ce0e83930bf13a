package progress

import (
	"fmt"
	"io"

	"github.com/vbauerster/mpb/v5"
	"github.com/vbauerster/mpb/v5/decor"
)

type (

	// Progress renders one spinner per in-flight scan on interactive runs.
	Progress struct {
		prog *mpb.Progress
	}

	Spinner struct {
		name string
		prog *Progress
		bar  *mpb.Bar
	}
)

func New() *Progress {
	return &Progress{
		prog: mpb.New(mpb.WithWidth(64)),
	}
}

func (p *Progress) AddSpinner(name string) *Spinner {
	bar := p.prog.AddSpinner(1, mpb.SpinnerOnLeft,
		mpb.PrependDecorators(decor.Name(name)),
		mpb.AppendDecorators(decor.Elapsed(decor.ET_STYLE_GO)),
		mpb.BarRemoveOnComplete(),
	)
	return &Spinner{name: name, prog: p, bar: bar}
}

func (p *Progress) Wait() {
	p.prog.Wait()
}

func (s *Spinner) Incr() {
	s.bar.Increment()
}

// Done replaces the spinner with a final status line
func (s *Spinner) Done(message string) {
	s.prog.prog.Add(0, mpb.BarFillerFunc(func(writer io.Writer, width int, st *decor.Statistics) {
		_, _ = fmt.Fprintf(writer, "- %s %s", s.name, message)
	})).SetTotal(0, true)
}
