package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/DRSN-tech/visual-search/internal/domain"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

const maxSkipsShown = 10

// progressBar адаптирует progressbar к usecase.ProgressFunc. Вызывается из воркеров.
type progressBar struct {
	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func newProgressBar(description string) *progressBar {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("img"),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
	return &progressBar{bar: bar}
}

func (p *progressBar) Update(done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar.GetMax() != total {
		p.bar.ChangeMax(total)
	}
	_ = p.bar.Set(done)
}

func (p *progressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.bar.Finish()
}

func printReport(report *domain.BuildReport) {
	if report == nil {
		return
	}

	title := color.New(color.Bold)
	title.Printf("\nGeneration %s\n", report.Generation)

	switch report.Status {
	case domain.BuildSucceeded:
		color.Green("  status:   %s", report.Status)
	case domain.BuildFailed:
		color.Red("  status:   %s", report.Status)
	default:
		color.Yellow("  status:   %s", report.Status)
	}

	fmt.Printf("  products: %d\n", report.Products)
	fmt.Printf("  images:   %d indexed / %d total\n", report.ImagesIndexed, report.ImagesTotal)
	if !report.FinishedAt.IsZero() {
		fmt.Printf("  duration: %s\n", report.Duration().Round(time.Millisecond))
	}

	if n := len(report.Skipped); n > 0 {
		color.Yellow("  skipped:  %d", n)
		for i, s := range report.Skipped {
			if i == maxSkipsShown {
				fmt.Printf("    ... and %d more\n", n-maxSkipsShown)
				break
			}
			fmt.Printf("    %s: %s\n", s.ImageURL, s.Reason)
		}
	}

	if report.Error != "" {
		color.Red("  error:    %s", report.Error)
	}
}

func printError(err error) {
	color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "error: ")
	fmt.Fprintln(os.Stderr, err)
}
