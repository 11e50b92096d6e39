// Package live bridges the engine to a real Chrome page via Rod. The
// engine edits an in-memory document; this package gets that document in
// and out of the browser, supplies real layout geometry for drag sessions,
// and executes javascript-kind records in page context.
package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/domedit/dom"
)

// Page wraps a Rod page with the operations the engine needs.
type Page struct {
	page   *rod.Page
	logger *slog.Logger
}

// Attach wraps an already-open Rod page.
func Attach(page *rod.Page, logger *slog.Logger) *Page {
	if logger == nil {
		logger = slog.Default()
	}
	return &Page{page: page, logger: logger}
}

// Open creates a tab on the browser, navigates to the URL and waits for
// load.
func Open(ctx context.Context, browser *rod.Browser, pageURL string, logger *slog.Logger) (*Page, error) {
	if logger == nil {
		logger = slog.Default()
	}
	page, err := browser.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return nil, fmt.Errorf("live: create tab: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		page.Close()
		return nil, fmt.Errorf("live: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		logger.Warn("live: wait load timeout", "url", pageURL, "error", err)
	}
	return &Page{page: page, logger: logger}, nil
}

// Snapshot serialises the page's current DOM as outer HTML.
func (p *Page) Snapshot(ctx context.Context) (string, error) {
	res, err := p.page.Context(ctx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return "", fmt.Errorf("live: snapshot: %w", err)
	}
	return res.Value.Str(), nil
}

// Push replaces the page's document with the given HTML. Used to mirror
// the engine's in-memory document back into the browser after changes
// are applied or reverted.
func (p *Page) Push(ctx context.Context, html string) error {
	if err := p.page.Context(ctx).SetDocumentContent(html); err != nil {
		return fmt.Errorf("live: push document: %w", err)
	}
	return nil
}

// Run executes a script in page context. Implements apply.ScriptRunner.
func (p *Page) Run(ctx context.Context, script string) error {
	_, err := p.page.Context(ctx).Eval(fmt.Sprintf(`() => { (0, eval)(%q); }`, script))
	if err != nil {
		return fmt.Errorf("live: run script: %w", err)
	}
	return nil
}

// Close closes the tab.
func (p *Page) Close() error {
	if p.page != nil {
		return p.page.Close()
	}
	return nil
}

// Layout returns a dom.Layout bound to ctx, backed by the real page.
func (p *Page) Layout(ctx context.Context) dom.Layout {
	return &pageLayout{page: p, ctx: ctx}
}

type pageLayout struct {
	page *Page
	ctx  context.Context
}

// Bounds evaluates getBoundingClientRect for the first selector match.
func (l *pageLayout) Bounds(selector string) (dom.Rect, error) {
	js := fmt.Sprintf(`() => {
		const el = document.querySelector(%q);
		if (!el) return "";
		const r = el.getBoundingClientRect();
		return JSON.stringify({x: r.x, y: r.y, width: r.width, height: r.height});
	}`, selector)

	res, err := l.page.page.Context(l.ctx).Eval(js)
	if err != nil {
		return dom.Rect{}, fmt.Errorf("live: bounds %q: %w", selector, err)
	}
	raw := res.Value.Str()
	if raw == "" {
		return dom.Rect{}, fmt.Errorf("live: bounds %q: no match", selector)
	}
	var rect dom.Rect
	if err := json.Unmarshal([]byte(raw), &rect); err != nil {
		return dom.Rect{}, fmt.Errorf("live: bounds %q: %w", selector, err)
	}
	return rect, nil
}

// ElementAt hit-tests the viewport point and builds a child-path selector
// for the topmost page element there. Editor-owned elements (marker
// attribute, namespaced id, or nested under one) are walked past.
func (l *pageLayout) ElementAt(x, y float64) (string, error) {
	js := fmt.Sprintf(`() => {
		const owned = (el) => {
			for (let n = el; n; n = n.parentElement) {
				if (n.hasAttribute && n.hasAttribute(%q)) return true;
				if (n.id && n.id.startsWith(%q)) return true;
			}
			return false;
		};
		let el = document.elementFromPoint(%f, %f);
		while (el && owned(el)) el = el.parentElement;
		if (!el || el === document.documentElement || el === document.body) return "";
		if (el.id && !el.id.startsWith(%q) && !/^\d+$|:/.test(el.id)) return "#" + el.id;
		const parts = [];
		for (let n = el; n && n.tagName && n.tagName !== "BODY" && n.tagName !== "HTML"; n = n.parentElement) {
			let part = n.tagName.toLowerCase();
			let idx = 0, same = 0, pos = 0;
			for (const sib of n.parentElement ? n.parentElement.children : []) {
				pos++;
				if (sib === n) idx = pos;
				if (sib.tagName === n.tagName) same++;
			}
			if (same > 1) part += ":nth-child(" + idx + ")";
			parts.unshift(part);
		}
		return parts.join(" > ");
	}`, dom.NamespaceAttr, dom.NamespacePrefix, x, y, dom.NamespacePrefix)

	res, err := l.page.page.Context(l.ctx).Eval(js)
	if err != nil {
		return "", fmt.Errorf("live: element at (%.0f, %.0f): %w", x, y, err)
	}
	return res.Value.Str(), nil
}
