package search

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"

	"go-debate/internal/config"
	"go-debate/internal/debate"
)

const (
	pageFetchTimeout = 10 * time.Second
	maxEnrichedChars = 4000
)

// Enricher upgrades snippet-only evidence to extracted page text, so agents
// argue from documents rather than search captions.
type Enricher struct {
	maxPages   int
	maxBody    int64
	userAgent  string
	httpClient *http.Client
}

// NewEnricher returns nil when enrichment is disabled.
func NewEnricher(cfg config.EnrichConfig) *Enricher {
	if !cfg.Enabled {
		return nil
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "go-debate/1.0"
	}
	return &Enricher{
		maxPages:   cfg.MaxPages,
		maxBody:    int64(cfg.MaxBodyKB) * 1024,
		userAgent:  ua,
		httpClient: &http.Client{Timeout: pageFetchTimeout},
	}
}

// Enrich fetches up to maxPages items sequentially, swapping each snippet
// for extracted page text when the page yields more than the snippet had.
// Per-page failures leave that item's snippet untouched.
func (e *Enricher) Enrich(ctx context.Context, items []debate.EvidenceItem) []debate.EvidenceItem {
	fetched := 0
	for i := range items {
		if fetched >= e.maxPages {
			break
		}
		if items[i].URL == "" {
			continue
		}
		fetched++
		text, err := e.fetchAndExtract(ctx, items[i].URL)
		if err != nil {
			log.Printf("[Enrich] WARNING: %s: %v", items[i].URL, err)
			continue
		}
		if len(text) > len(items[i].Content) {
			items[i].Content = text
		}
	}
	return items
}

// fetchAndExtract handles HTTP, readability, the HTML fallback, and PDF.
func (e *Enricher) fetchAndExtract(ctx context.Context, urlStr string) (string, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", err
	}

	reqCtx, cancel := context.WithTimeout(ctx, pageFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, "GET", urlStr, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBody))
	if err != nil {
		return "", err
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "application/pdf") {
		return extractPDFText(data)
	}

	if text, err := extractArticleText(data, parsedURL); err == nil && text != "" {
		return text, nil
	}
	return extractVisibleText(data)
}

func extractArticleText(data []byte, pageURL *url.URL) (string, error) {
	article, err := readability.FromReader(bytes.NewReader(data), pageURL)
	if err != nil {
		return "", err
	}
	return clampText(strings.TrimSpace(article.TextContent)), nil
}

// extractVisibleText is the fallback when readability rejects a page:
// strip the chrome elements and keep paragraph text.
func extractVisibleText(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, nav, header, footer, aside, noscript, form").Each(func(_ int, s *goquery.Selection) {
		s.Remove()
	})

	var b strings.Builder
	doc.Find("article, main, p").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text != "" {
			b.WriteString(text)
			b.WriteString(" ")
		}
	})

	text := strings.Join(strings.Fields(b.String()), " ")
	if text == "" {
		return "", fmt.Errorf("no readable text")
	}
	return clampText(text), nil
}

// extractPDFText pulls text from each page of a PDF document.
func extractPDFText(data []byte) (string, error) {
	pdfReader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			log.Printf("[Enrich] WARNING: PDF page %d: %v", i, err)
			continue
		}
		ex, err := extractor.New(page)
		if err != nil {
			continue
		}
		text, err := ex.ExtractText()
		if err != nil {
			log.Printf("[Enrich] WARNING: PDF page %d text: %v", i, err)
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return clampText(strings.TrimSpace(b.String())), nil
}

func clampText(text string) string {
	r := []rune(text)
	if len(r) <= maxEnrichedChars {
		return text
	}
	return string(r[:maxEnrichedChars])
}
