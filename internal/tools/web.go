package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/hashicorp/go-retryablehttp"

	"toolgate/internal/archive"
	"toolgate/internal/domain"
	"toolgate/internal/upstream"
)

const customSearchURL = "https://www.googleapis.com/customsearch/v1"

// searchResultLimit bounds how many hits get their pages fetched.
const searchResultLimit = 5

// summaryRunes bounds extracted content when full text is not requested.
const summaryRunes = 1500

const browserUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// PageContent is the extraction result for one URL. Error is set only when
// the fetch itself failed; page text is never inspected to infer failure.
type PageContent struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// WebService implements search, page browsing and URL shortening.
type WebService struct {
	client        *retryablehttp.Client
	searchKey     string
	searchCX      string
	store         *archive.Store
	shortBase     string
	maxConcurrent int
}

// NewWebService builds the adapter.
func NewWebService(client *retryablehttp.Client, searchKey, searchCX string, store *archive.Store, shortBase string, maxConcurrent int) *WebService {
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	return &WebService{
		client:        client,
		searchKey:     searchKey,
		searchCX:      searchCX,
		store:         store,
		shortBase:     strings.TrimRight(shortBase, "/"),
		maxConcurrent: maxConcurrent,
	}
}

// Tools returns the web tool pairs.
func (s *WebService) Tools() []Tool {
	return []Tool{
		{
			Def: domain.ToolDefinition{
				Name:        "google_search",
				Description: "Perform a Google search with advanced operators and return web content",
				Params: []domain.ParameterSpec{
					{Name: "search_term", Kind: domain.KindString, Description: "The main search query", Required: true},
					{Name: "before", Kind: domain.KindString, Description: "Search for content before this date (YYYY-MM-DD)"},
					{Name: "after", Kind: domain.KindString, Description: "Search for content after this date (YYYY-MM-DD)"},
					{Name: "intext", Kind: domain.KindString, Description: "Search for this text within the page content"},
					{Name: "allintext", Kind: domain.KindString, Description: "Search for all these terms within the page content"},
					{Name: "and_condition", Kind: domain.KindString, Description: "Additional term that must be present (AND operator)"},
					{Name: "must_have", Kind: domain.KindString, Description: "Exact phrase that must be present in results"},
				},
			},
			Handler: domain.HandlerFunc(s.googleSearch),
		},
		{
			Def: domain.ToolDefinition{
				Name:        "browse_internet",
				Description: "Browse and extract content from a list of URLs",
				Params: []domain.ParameterSpec{
					{Name: "urls", Kind: domain.KindList, ItemKind: domain.KindString, Description: "List of URLs to browse and extract content from", Required: true},
					{Name: "full_text", Kind: domain.KindBoolean, Description: "Whether to return full text or summarized content", Default: false},
				},
			},
			Handler: domain.HandlerFunc(s.browseInternet),
		},
		{
			Def: domain.ToolDefinition{
				Name:        "shorten_url",
				Description: "Create a shortened URL using the URL shortener service",
				Params: []domain.ParameterSpec{
					{Name: "url", Kind: domain.KindString, Description: "The URL to shorten", Required: true},
					{Name: "custom_code", Kind: domain.KindString, Description: "Optional custom short code"},
				},
			},
			Handler: domain.HandlerFunc(s.shortenURL),
		},
	}
}

// composeSearchTerm assembles the advanced-operator query string.
func composeSearchTerm(args domain.Args) string {
	components := []string{argString(args, "search_term")}
	if and := argString(args, "and_condition"); and != "" {
		components = append(components, argString(args, "search_term")+" AND "+and)
	}
	if before := argString(args, "before"); before != "" {
		components = append(components, "before:"+before)
	}
	if after := argString(args, "after"); after != "" {
		components = append(components, "after:"+after)
	}
	if intext := argString(args, "intext"); intext != "" {
		components = append(components, "intext:"+intext)
	}
	if allintext := argString(args, "allintext"); allintext != "" {
		components = append(components, "allintext:"+allintext)
	}
	if must := argString(args, "must_have"); must != "" {
		components = append(components, `"`+must+`"`)
	}
	return strings.Join(components, " ")
}

func (s *WebService) googleSearch(ctx context.Context, args domain.Args) (any, error) {
	if s.searchKey == "" || s.searchCX == "" {
		return nil, fmt.Errorf("Google Custom Search API credentials not configured")
	}

	query := url.Values{
		"q":   {composeSearchTerm(args)},
		"cx":  {s.searchCX},
		"key": {s.searchKey},
	}
	var result struct {
		Items []struct {
			Link string `json:"link"`
		} `json:"items"`
	}
	if err := upstream.GetJSON(ctx, s.client, customSearchURL, query, nil, &result); err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	links := make([]string, 0, len(result.Items))
	for _, item := range result.Items {
		links = append(links, item.Link)
	}
	if len(links) > searchResultLimit {
		links = links[:searchResultLimit]
	}
	pages := s.fetchPages(ctx, links, false)
	return map[string]any{"results": pages, "total_results": len(pages)}, nil
}

func (s *WebService) browseInternet(ctx context.Context, args domain.Args) (any, error) {
	raw := argList(args, "urls")
	urls := make([]string, 0, len(raw))
	for _, v := range raw {
		urls = append(urls, v.(string))
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("no URLs to browse")
	}
	pages := s.fetchPages(ctx, urls, argBool(args, "full_text"))
	return map[string]any{"results": pages, "total_results": len(pages)}, nil
}

func (s *WebService) shortenURL(ctx context.Context, args domain.Args) (any, error) {
	target := argString(args, "url")
	code, err := s.store.CreateShortlink(ctx, target, argString(args, "custom_code"))
	if err != nil {
		if errors.Is(err, archive.ErrInvalidTarget) || errors.Is(err, archive.ErrInvalidCode) {
			return nil, domain.Faultf(domain.FaultInvalidArguments, "%v", err)
		}
		return nil, fmt.Errorf("could not shorten URL: %w", err)
	}
	return map[string]any{
		"code":      code,
		"short_url": s.shortBase + "/" + code,
	}, nil
}

// fetchPages retrieves urls concurrently with a bounded worker pool and
// returns results in input order. Concurrency stays confined to this call.
func (s *WebService) fetchPages(ctx context.Context, urls []string, fullText bool) []PageContent {
	results := make([]PageContent, len(urls))
	sem := make(chan struct{}, s.maxConcurrent)
	var wg sync.WaitGroup
	for i, pageURL := range urls {
		wg.Add(1)
		go func(i int, pageURL string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = s.fetchPage(ctx, pageURL, fullText)
		}(i, pageURL)
	}
	wg.Wait()
	return results
}

func (s *WebService) fetchPage(ctx context.Context, pageURL string, fullText bool) PageContent {
	body, err := s.download(ctx, pageURL)
	if err != nil {
		return PageContent{URL: pageURL, Error: err.Error()}
	}

	parsed, _ := url.Parse(pageURL)
	article, err := readability.FromReader(strings.NewReader(body), parsed)
	if err != nil || strings.TrimSpace(article.TextContent) == "" {
		// Readability can fail on sparse pages; fall back to title and
		// meta description.
		title, desc := headMetadata(body)
		if title == "" && desc == "" {
			return PageContent{URL: pageURL, Error: "could not extract readable content"}
		}
		return PageContent{URL: pageURL, Title: title, Content: desc}
	}

	content := strings.TrimSpace(article.TextContent)
	if !fullText {
		content = truncateRunes(content, summaryRunes)
	}
	return PageContent{URL: pageURL, Title: article.Title, Content: content}
}

func (s *WebService) download(ctx context.Context, pageURL string) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("failed to fetch page: status %d", resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if ct != "" && !strings.Contains(ct, "text/html") && !strings.Contains(ct, "text/plain") && !strings.Contains(ct, "application/xhtml") {
		return "", fmt.Errorf("unsupported content type %q", ct)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read page: %w", err)
	}
	return string(data), nil
}

func headMetadata(body string) (title, description string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", ""
	}
	title = strings.TrimSpace(doc.Find("title").First().Text())
	description, _ = doc.Find(`meta[name="description"]`).First().Attr("content")
	return title, strings.TrimSpace(description)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
