package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

const (
	scraperUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

	pageRenderDelay = 700 * time.Millisecond
	pageFetchLimit  = 90 * time.Second
)

const enableBrowserDebugLogs = false

// RenderedPage is a fully rendered card page: the final URL after any
// redirects, the rendered markup, its parsed document, and every image
// URL the page references resolved to absolute form.
type RenderedPage struct {
	URL       string
	HTML      string
	Doc       *goquery.Document
	ImageURLs []string
}

// Browser wraps a shared headless Chrome session. A single allocator is
// reused across the whole crawl so each page fetch is just a new tab.
type Browser struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

func newBrowser(headless bool) *Browser {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.UserAgent(scraperUserAgent),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &Browser{allocCtx: allocCtx, allocCancel: allocCancel}
}

func (b *Browser) Close() {
	b.allocCancel()
}

const collectImageURLsJS = `
(() => {
	const urls = new Set();
	for (const img of document.querySelectorAll('img[src]')) {
		try { urls.add(new URL(img.getAttribute('src'), location.href).href) } catch (e) {}
	}
	for (const el of document.querySelectorAll('[style*="background"]')) {
		const m = /url\(["']?([^"')]+)["']?\)/.exec(el.style.backgroundImage || '');
		if (m) { try { urls.add(new URL(m[1], location.href).href) } catch (e) {} }
	}
	return Array.from(urls);
})()`

// clickPreEZAJS clicks the PRE-EZA tab when the toggle is present so the
// rendered markup shows the unenhanced kit.
const clickPreEZAJS = `
(() => {
	for (const b of document.querySelectorAll('b')) {
		if (b.textContent.trim().toUpperCase() === 'PRE-EZA') {
			(b.closest('div') || b).click();
			return true;
		}
	}
	return false;
})()`

// FetchPage renders a card page and returns its final markup. When
// wantPreEZA is set and the page shows the PRE-EZA/EZA toggle, the
// PRE-EZA tab is clicked before the markup is captured.
func (b *Browser) FetchPage(pageURL string, wantPreEZA bool) (*RenderedPage, error) {
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		page, err := b.fetchOnce(pageURL, wantPreEZA)
		if err == nil {
			return page, nil
		}
		lastErr = err
		log.Printf("[W] [Scraper/Browser] Attempt %d/3 failed for %s: %v", attempt, pageURL, err)
		if attempt < 3 {
			time.Sleep(time.Duration(attempt) * 3 * time.Second)
		}
	}
	return nil, fmt.Errorf("fetching %s: %w", pageURL, lastErr)
}

func (b *Browser) fetchOnce(pageURL string, wantPreEZA bool) (*RenderedPage, error) {
	tabCtx, tabCancel := chromedp.NewContext(b.allocCtx)
	defer tabCancel()
	ctx, cancel := context.WithTimeout(tabCtx, pageFetchLimit)
	defer cancel()

	var (
		html      string
		finalURL  string
		imageURLs []string
		clicked   bool
	)
	actions := []chromedp.Action{
		chromedp.Navigate(pageURL),
		chromedp.Sleep(pageRenderDelay),
	}
	if wantPreEZA {
		actions = append(actions,
			chromedp.Evaluate(clickPreEZAJS, &clicked),
			chromedp.Sleep(pageRenderDelay),
		)
	}
	actions = append(actions,
		chromedp.Location(&finalURL),
		chromedp.Evaluate(collectImageURLsJS, &imageURLs),
		chromedp.OuterHTML("html", &html),
	)
	if err := chromedp.Run(ctx, actions...); err != nil {
		return nil, err
	}
	if enableBrowserDebugLogs && clicked {
		log.Printf("[D] [Scraper/Browser] Clicked PRE-EZA toggle on %s", pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing rendered markup: %w", err)
	}
	return &RenderedPage{URL: finalURL, HTML: html, Doc: doc, ImageURLs: imageURLs}, nil
}
