package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"toolgate/internal/domain"
	"toolgate/internal/upstream"
)

const (
	amazonSearchURL = "https://real-time-amazon-data.p.rapidapi.com/search"
	amazonAPIHost   = "real-time-amazon-data.p.rapidapi.com"
)

// AmazonService queries the real-time Amazon data API on RapidAPI.
type AmazonService struct {
	client *retryablehttp.Client
	apiKey string
}

func NewAmazonService(client *retryablehttp.Client, apiKey string) *AmazonService {
	return &AmazonService{client: client, apiKey: apiKey}
}

func (a *AmazonService) Tools() []Tool {
	countryParam := domain.ParameterSpec{
		Name: "country", Kind: domain.KindString, Description: "Amazon marketplace country code", Default: "CA",
		Enum: []any{"US", "CA", "GB", "DE", "FR", "IT", "ES", "JP", "AU", "IN", "MX", "BR"},
	}

	return []Tool{
		{
			Def: domain.ToolDefinition{
				Name:        "search_amazon_products",
				Description: "Search Amazon products and return raw product data",
				Params: []domain.ParameterSpec{
					{Name: "query", Kind: domain.KindString, Description: "Search phrase", Required: true},
					countryParam,
					{Name: "page", Kind: domain.KindInteger, Description: "Result page to fetch", Default: 1},
					{Name: "sort_by", Kind: domain.KindString, Description: "Result ordering", Default: "RELEVANCE",
						Enum: []any{"RELEVANCE", "LOWEST_PRICE", "HIGHEST_PRICE", "REVIEWS", "NEWEST", "BEST_SELLERS"}},
					{Name: "product_condition", Kind: domain.KindString, Description: "Condition filter", Default: "NEW",
						Enum: []any{"ALL", "NEW", "USED", "RENEWED", "COLLECTIBLE"}},
					{Name: "is_prime", Kind: domain.KindBoolean, Description: "Only Prime-eligible products", Default: false},
					{Name: "deals_and_discounts", Kind: domain.KindString, Description: "Deals filter", Default: "NONE",
						Enum: []any{"NONE", "ALL_DISCOUNTS", "TODAYS_DEALS"}},
				},
			},
			Handler: domain.HandlerFunc(a.search),
		},
		{
			Def: domain.ToolDefinition{
				Name:        "search_and_format_products",
				Description: "Search Amazon products and return a readable text summary",
				Params: []domain.ParameterSpec{
					{Name: "query", Kind: domain.KindString, Description: "Search phrase", Required: true},
					countryParam,
					{Name: "max_products", Kind: domain.KindInteger, Description: "Maximum number of products in the summary", Default: 5},
				},
			},
			Handler: domain.HandlerFunc(a.searchFormatted),
		},
	}
}

type amazonProduct struct {
	ASIN       string `json:"asin"`
	Title      string `json:"product_title"`
	Price      string `json:"product_price"`
	Rating     string `json:"product_star_rating"`
	NumRatings int64  `json:"product_num_ratings"`
	URL        string `json:"product_url"`
	IsPrime    bool   `json:"is_prime"`
}

type amazonSearchResponse struct {
	Status string `json:"status"`
	Data   struct {
		TotalProducts int64           `json:"total_products"`
		Products      []amazonProduct `json:"products"`
	} `json:"data"`
}

func (a *AmazonService) search(ctx context.Context, args domain.Args) (any, error) {
	resp, err := a.query(ctx, args)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"products":       resp.Data.Products,
		"total_products": resp.Data.TotalProducts,
	}, nil
}

func (a *AmazonService) searchFormatted(ctx context.Context, args domain.Args) (any, error) {
	resp, err := a.query(ctx, args)
	if err != nil {
		return nil, err
	}

	products := resp.Data.Products
	if max := int(argInt(args, "max_products")); max > 0 && len(products) > max {
		products = products[:max]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d products for %q:\n", resp.Data.TotalProducts, argString(args, "query"))
	for i, p := range products {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, p.Title)
		if p.Price != "" {
			fmt.Fprintf(&b, "   Price: %s\n", p.Price)
		}
		if p.Rating != "" {
			fmt.Fprintf(&b, "   Rating: %s (%d ratings)\n", p.Rating, p.NumRatings)
		}
		if p.IsPrime {
			b.WriteString("   Prime eligible\n")
		}
		fmt.Fprintf(&b, "   %s\n", p.URL)
	}
	return map[string]any{
		"formatted":      b.String(),
		"total_products": resp.Data.TotalProducts,
	}, nil
}

func (a *AmazonService) query(ctx context.Context, args domain.Args) (*amazonSearchResponse, error) {
	if a.apiKey == "" {
		return nil, fmt.Errorf("RapidAPI key not configured")
	}

	q := url.Values{}
	q.Set("query", argString(args, "query"))
	q.Set("country", argString(args, "country"))
	if argPresent(args, "page") {
		q.Set("page", strconv.FormatInt(argInt(args, "page"), 10))
	}
	if argPresent(args, "sort_by") {
		q.Set("sort_by", argString(args, "sort_by"))
	}
	if argPresent(args, "product_condition") {
		q.Set("product_condition", argString(args, "product_condition"))
	}
	if argPresent(args, "is_prime") {
		q.Set("is_prime", strconv.FormatBool(argBool(args, "is_prime")))
	}
	if argPresent(args, "deals_and_discounts") {
		q.Set("deals_and_discounts", argString(args, "deals_and_discounts"))
	}

	headers := http.Header{}
	headers.Set("X-RapidAPI-Key", a.apiKey)
	headers.Set("X-RapidAPI-Host", amazonAPIHost)

	var resp amazonSearchResponse
	if err := upstream.GetJSON(ctx, a.client, amazonSearchURL, q, headers, &resp); err != nil {
		return nil, fmt.Errorf("Amazon search failed: %w", err)
	}
	if resp.Status != "OK" {
		return nil, fmt.Errorf("Amazon search returned status %q", resp.Status)
	}
	return &resp, nil
}
