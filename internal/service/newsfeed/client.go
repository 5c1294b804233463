package newsfeed

import (
    "context"
    "fmt"
    "strconv"
    "strings"
    "time"

    "NewsEdge/internal/domain/models"
    domsvc "NewsEdge/internal/domain/service"
    pkgcache "NewsEdge/pkg/cache"
    "NewsEdge/pkg/config"
    xhttp "NewsEdge/pkg/http"
    applogger "NewsEdge/pkg/logger"
)

// Client pulls recent business headlines from the news feed API. Item IDs
// are the MD5 of the article URL, so the same story fetched twice maps to
// the same NewsItem.
type Client struct {
    http     *xhttp.Client
    baseURL  string
    apiKey   string
    sources  []string
    pageSize int
    l        *applogger.Logger
}

// New creates a news feed client from config.
func New(cfg *config.Config, l *applogger.Logger) *Client {
    pageSize := cfg.NewsFeed.PageSize
    if pageSize <= 0 {
        pageSize = 50
    }
    return &Client{
        http:     xhttp.NewClient(xhttp.WithTimeout(10 * time.Second)),
        baseURL:  cfg.NewsFeed.BaseURL,
        apiKey:   cfg.NewsFeed.APIKey,
        sources:  cfg.NewsFeed.Sources,
        pageSize: pageSize,
        l:        l,
    }
}

type feedResp struct {
    Status   string        `json:"status"`
    Message  string        `json:"message"`
    Articles []feedArticle `json:"articles"`
}

type feedArticle struct {
    Source struct {
        Name string `json:"name"`
    } `json:"source"`
    Title       string `json:"title"`
    Description string `json:"description"`
    URL         string `json:"url"`
    PublishedAt string `json:"publishedAt"`
}

// Fetch returns headlines published at or after `since`, newest first as the
// feed serves them. Items without a URL, a title, or a parseable timestamp
// are dropped; downstream gates need real publication times.
func (c *Client) Fetch(ctx context.Context, since time.Time) ([]*models.NewsItem, error) {
    if c.apiKey == "" {
        return nil, fmt.Errorf("news feed api key not configured")
    }

    params := map[string][]string{
        "from":     {since.UTC().Format(time.RFC3339)},
        "pageSize": {strconv.Itoa(c.pageSize)},
        "apiKey":   {c.apiKey},
    }
    // The feed rejects mixing explicit sources with category filters.
    if len(c.sources) > 0 {
        params["sources"] = []string{strings.Join(c.sources, ",")}
    } else {
        params["category"] = []string{"business"}
        params["country"] = []string{"us"}
    }

    var resp feedResp
    err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
        Method:      xhttp.MethodGet,
        URL:         c.baseURL + "/v2/top-headlines",
        QueryParams: params,
    }, &resp)
    if err != nil {
        return nil, fmt.Errorf("fetch headlines: %w", err)
    }
    if resp.Status != "ok" {
        return nil, fmt.Errorf("news feed error: %s", resp.Message)
    }

    seen := make(map[string]struct{}, len(resp.Articles))
    items := make([]*models.NewsItem, 0, len(resp.Articles))
    for _, a := range resp.Articles {
        if a.URL == "" || a.Title == "" {
            continue
        }
        published, ok := xhttp.ParseTime(a.PublishedAt)
        if !ok {
            if c.l != nil {
                c.l.Warn("dropping article with bad timestamp",
                    applogger.String("url", a.URL),
                    applogger.String("published_at", a.PublishedAt),
                )
            }
            continue
        }
        if published.Before(since) {
            continue
        }
        id := pkgcache.HashKey(a.URL)
        if _, dup := seen[id]; dup {
            continue
        }
        seen[id] = struct{}{}

        items = append(items, &models.NewsItem{
            ID:          id,
            Headline:    a.Title,
            Body:        a.Description,
            Source:      a.Source.Name,
            URL:         a.URL,
            PublishedAt: published,
        })
    }

    if c.l != nil {
        c.l.Info("fetched headlines",
            applogger.Int("received", len(resp.Articles)),
            applogger.Int("accepted", len(items)),
        )
    }
    return items, nil
}

var _ domsvc.NewsSource = (*Client)(nil)
