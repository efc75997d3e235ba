package wikipedia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"whatflower/internal/domain/entity"
	"whatflower/internal/domain/port"
)

// ThumbnailSize ширина миниатюры статьи в пикселях.
const ThumbnailSize = 500

// ErrEmptyTitle возвращается для пустого названия статьи.
var ErrEmptyTitle = errors.New("empty title")

// Client получает описание вида из MediaWiki API.
type Client struct {
	endpoint  string
	userAgent string
	http      *http.Client
}

// NewClient создаёт клиент для endpoint вида https://en.wikipedia.org/w/api.php.
func NewClient(endpoint, userAgent string, timeout time.Duration) *Client {
	return &Client{
		endpoint:  endpoint,
		userAgent: userAgent,
		http:      &http.Client{Timeout: timeout},
	}
}

// Query строит параметры запроса вступления статьи и её миниатюры.
func Query(title string) url.Values {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("action", "query")
	q.Set("prop", "extracts|pageimages")
	q.Set("exintro", "")
	q.Set("explaintext", "")
	q.Set("titles", title)
	q.Set("indexpageids", "")
	q.Set("redirects", "1")
	q.Set("pithumbsize", fmt.Sprint(ThumbnailSize))
	return q
}

// Summary выполняет один GET и извлекает вступление и URL миниатюры.
func (c *Client) Summary(ctx context.Context, title string) (*entity.FlowerInfo, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+Query(title).Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wikipedia request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("wikipedia status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return Decode(resp.Body)
}

type queryResponse struct {
	Query struct {
		PageIDs []string        `json:"pageids"`
		Pages   map[string]page `json:"pages"`
	} `json:"query"`
}

type page struct {
	Title     string  `json:"title"`
	Extract   string  `json:"extract"`
	Missing   *string `json:"missing"`
	Thumbnail struct {
		Source string `json:"source"`
	} `json:"thumbnail"`
}

// Decode разбирает ответ action=query. Отсутствующие поля дают пустые строки.
func Decode(r io.Reader) (*entity.FlowerInfo, error) {
	var qr queryResponse
	if err := json.NewDecoder(r).Decode(&qr); err != nil {
		return nil, fmt.Errorf("decode wikipedia response: %w", err)
	}

	info := &entity.FlowerInfo{}
	if len(qr.Query.PageIDs) == 0 {
		info.Missing = true
		return info, nil
	}

	info.PageID = qr.Query.PageIDs[0]
	p, ok := qr.Query.Pages[info.PageID]
	if !ok {
		info.Missing = true
		return info, nil
	}

	info.Title = p.Title
	info.Extract = p.Extract
	info.ThumbnailURL = p.Thumbnail.Source
	info.Missing = p.Missing != nil || strings.HasPrefix(info.PageID, "-")
	return info, nil
}

var _ port.Encyclopedia = (*Client)(nil)
