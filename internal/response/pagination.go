package response

import (
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Pagination defaults applied when the client sends no page/limit params.
const (
	DefaultLimit = 25
	DefaultPage  = 1
)

// Page is one slice of a paginated result set. NextPage is empty on the
// last page.
type Page struct {
	Items    any
	HasMore  bool
	NextPage string
}

// Paginate reads limit/page query parameters, loads the matching slice of
// the query into dest and reports whether more pages follow.
func (e *Envelope) Paginate(c *fiber.Ctx, query *gorm.DB, dest any) (*Page, error) {
	limit := c.QueryInt("limit", DefaultLimit)
	if limit < 1 {
		limit = DefaultLimit
	}
	page := c.QueryInt("page", DefaultPage)
	if page < 1 {
		page = DefaultPage
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	if err := query.Limit(limit).Offset((page - 1) * limit).Find(dest).Error; err != nil {
		return nil, err
	}

	result := &Page{Items: dest, HasMore: int64(page)*int64(limit) < total}
	if result.HasMore {
		result.NextPage = NextPageURL(c.BaseURL()+c.OriginalURL(), page+1, limit)
	}
	return result, nil
}

// NextPageURL rewrites the page/limit parameters of the request URL to
// point at the following page.
func NextPageURL(requestURL string, page, limit int) string {
	parsed, err := url.Parse(requestURL)
	if err != nil {
		return ""
	}
	q := parsed.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	parsed.RawQuery = q.Encode()
	return parsed.String()
}
