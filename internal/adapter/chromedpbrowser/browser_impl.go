package chromedpbrowser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/user/catalog-agent/internal/repository"
)

// Browser implements repository.Browser on top of chromedp. Exec allocators
// are pooled so repeated extractions reuse browser processes instead of
// spawning one per product.
type Browser struct {
	allocatorPool *sync.Pool
	pageTimeout   time.Duration
	opTimeout     time.Duration
}

// New creates a chromedp-backed browser. pageTimeout bounds initial page
// loads, opTimeout bounds every later read or control action.
func New(maxConcurrency int, pageTimeout, opTimeout time.Duration) (*Browser, error) {
	pool := &sync.Pool{
		New: func() interface{} {
			opts := append(chromedp.DefaultExecAllocatorOptions[:],
				chromedp.Flag("headless", true),
				chromedp.Flag("disable-gpu", true),
				chromedp.Flag("no-sandbox", true),
				chromedp.Flag("disable-dev-shm-usage", true),
				chromedp.UserAgent(`Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36`),
			)
			allocCtx, _ := chromedp.NewExecAllocator(context.Background(), opts...)
			return allocCtx
		},
	}

	// Pre-warm the pool
	for i := 0; i < maxConcurrency; i++ {
		allocCtx := pool.Get().(context.Context)
		pool.Put(allocCtx)
	}

	return &Browser{
		allocatorPool: pool,
		pageTimeout:   pageTimeout,
		opTimeout:     opTimeout,
	}, nil
}

// Open navigates a fresh session to the URL. The returned session owns a
// browser tab until Close is called; callers must close it on every exit
// path.
func (b *Browser) Open(ctx context.Context, url string) (repository.BrowserSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	allocCtx := b.allocatorPool.Get().(context.Context)
	taskCtx, cancel := chromedp.NewContext(allocCtx)

	loadCtx, loadCancel := context.WithTimeout(taskCtx, b.pageTimeout)
	defer loadCancel()

	err := chromedp.Run(loadCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible("body", chromedp.ByQuery),
	)
	if err != nil {
		cancel()
		b.allocatorPool.Put(allocCtx)
		return nil, fmt.Errorf("%w: %s: %v", repository.ErrNavigationFailed, url, err)
	}

	return &session{
		browser:  b,
		allocCtx: allocCtx,
		ctx:      taskCtx,
		cancel:   cancel,
	}, nil
}

type session struct {
	browser  *Browser
	allocCtx context.Context
	ctx      context.Context
	cancel   context.CancelFunc
	closed   bool
}

// evalResult carries a JS read back over CDP; Found distinguishes a missing
// element from an empty value.
type evalResult struct {
	Found bool   `json:"found"`
	Value string `json:"value"`
}

func (s *session) run(actions ...chromedp.Action) error {
	opCtx, opCancel := context.WithTimeout(s.ctx, s.browser.opTimeout)
	defer opCancel()
	return chromedp.Run(opCtx, actions...)
}

// HTML returns the current rendered document.
func (s *session) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var html string
	if err := s.run(chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// SelectOption sets a select control's value and dispatches input/change
// events so the storefront's own scripts re-render price and image.
func (s *session) SelectOption(ctx context.Context, selector, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	js := fmt.Sprintf(`(function() {
		const el = document.querySelector(%q);
		if (!el) {
			return {found: false, value: ""};
		}
		el.value = %q;
		el.dispatchEvent(new Event("input", {bubbles: true}));
		el.dispatchEvent(new Event("change", {bubbles: true}));
		return {found: true, value: el.value};
	})()`, selector, value)

	var res evalResult
	if err := s.run(chromedp.Evaluate(js, &res)); err != nil {
		return err
	}
	if !res.Found {
		return fmt.Errorf("%w: %s", repository.ErrElementNotFound, selector)
	}
	return nil
}

// ReadText returns the trimmed text content of the first matching element.
func (s *session) ReadText(ctx context.Context, selector string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	js := fmt.Sprintf(`(function() {
		const el = document.querySelector(%q);
		return el ? {found: true, value: el.textContent.trim()} : {found: false, value: ""};
	})()`, selector)

	var res evalResult
	if err := s.run(chromedp.Evaluate(js, &res)); err != nil {
		return "", err
	}
	if !res.Found {
		return "", fmt.Errorf("%w: %s", repository.ErrElementNotFound, selector)
	}
	return res.Value, nil
}

// ReadAttribute returns an attribute of the first matching element.
func (s *session) ReadAttribute(ctx context.Context, selector, attribute string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var nodes []*cdp.Node
	if err := s.run(chromedp.Nodes(selector, &nodes, chromedp.ByQuery, chromedp.AtLeast(0))); err != nil {
		return "", err
	}
	if len(nodes) == 0 {
		return "", fmt.Errorf("%w: %s", repository.ErrElementNotFound, selector)
	}
	val, ok := nodes[0].Attribute(attribute)
	if !ok {
		return "", fmt.Errorf("%w: %s[%s]", repository.ErrElementNotFound, selector, attribute)
	}
	return val, nil
}

// ScrollToBottom scrolls the window to the bottom of the document.
func (s *session) ScrollToBottom(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.run(chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil))
}

// PageHeight returns the current scroll height of the document.
func (s *session) PageHeight(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var height float64
	if err := s.run(chromedp.Evaluate(`document.body.scrollHeight`, &height)); err != nil {
		return 0, err
	}
	return int64(height), nil
}

// Close tears the tab down and returns the allocator to the pool.
func (s *session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.cancel()
	s.browser.allocatorPool.Put(s.allocCtx)
	return nil
}

var _ repository.BrowserSession = (*session)(nil)
