package probe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"morsel-sales/utils"
)

// ErrNoBrowser is returned when no Chrome or Chromium binary can be found.
var ErrNoBrowser = errors.New("no chrome binary found")

// Result is what the dashboard showed the headless browser.
type Result struct {
	Title         string   `json:"title"`
	Header        string   `json:"header"`
	GraphVisible  bool     `json:"graph_visible"`
	RegionOptions []string `json:"region_options"`
}

// Prober drives a headless browser against a running dashboard.
type Prober struct {
	chromeBin string
	logger    *utils.Logger
	retry     *utils.RetryConfig
	timeout   time.Duration
}

// New creates a Prober. An empty chromeBin searches the usual locations.
func New(chromeBin string, maxRetries int, logger *utils.Logger) *Prober {
	if chromeBin == "" {
		chromeBin = FindChromeBinary()
	}
	return &Prober{
		chromeBin: chromeBin,
		logger:    logger,
		retry: &utils.RetryConfig{
			MaxAttempts: maxRetries,
			BaseDelay:   time.Second,
			Logger:      logger,
		},
		timeout: 30 * time.Second,
	}
}

// Check loads url and reads the header, graph and region selector.
func (p *Prober) Check(ctx context.Context, url string) (*Result, error) {
	if p.chromeBin == "" {
		return nil, ErrNoBrowser
	}
	p.logger.Info("[probe] Using browser binary: %s", p.chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.ExecPath(p.chromeBin),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	var res Result
	err := p.retry.Do(ctx, "dashboard-probe", func() error {
		tabCtx, cancel := chromedp.NewContext(browserCtx)
		defer cancel()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, p.timeout)
		defer cancelTimeout()

		res = Result{}
		err := chromedp.Run(tabCtx,
			chromedp.Navigate(url),
			chromedp.WaitVisible("h1", chromedp.ByQuery),
			chromedp.Title(&res.Title),
			chromedp.Text("h1", &res.Header, chromedp.ByQuery),
			chromedp.Evaluate(`
				(function() {
					var el = document.querySelector('#sales-line');
					if (!el) return false;
					var box = el.getBoundingClientRect();
					return box.width > 0 && box.height > 0;
				})()
			`, &res.GraphVisible),
			chromedp.Evaluate(`
				Array.from(document.querySelectorAll('#region-radio input[type=radio]'))
					.map(function(el) { return el.value; })
			`, &res.RegionOptions),
		)
		if err != nil {
			return fmt.Errorf("chromedp probe: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("[probe] %q: graph visible=%t, %d region option(s)",
		res.Header, res.GraphVisible, len(res.RegionOptions))
	return &res, nil
}

// Verify checks that the header mentions product, the graph is shown and
// the region selector offers every region plus "all". It returns one
// problem per failed check.
func Verify(res *Result, product string, regions []string) []string {
	var problems []string

	if !strings.Contains(strings.ToLower(res.Header), strings.ToLower(strings.TrimSpace(product))) {
		problems = append(problems, fmt.Sprintf("header %q does not mention %q", res.Header, product))
	}
	if !res.GraphVisible {
		problems = append(problems, "sales graph is not visible")
	}

	offered := make(map[string]bool, len(res.RegionOptions))
	for _, o := range res.RegionOptions {
		offered[strings.ToLower(strings.TrimSpace(o))] = true
	}
	for _, want := range append(append([]string(nil), regions...), "all") {
		if !offered[strings.ToLower(strings.TrimSpace(want))] {
			problems = append(problems, fmt.Sprintf("region selector is missing %q", want))
		}
	}
	return problems
}

// FindChromeBinary locates a Chrome or Chromium binary.
func FindChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
