package canvas

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/noah-isme/canvas-sync-api/pkg/config"
	appErrors "github.com/noah-isme/canvas-sync-api/pkg/errors"
)

// Client is an authenticated Canvas REST client. It follows Link-header
// pagination, maps HTTP failures onto the typed error taxonomy and
// bounds its request rate; retrying is left to the caller.
type Client struct {
	baseURL  string
	token    string
	http     *http.Client
	limiter  *rate.Limiter
	pageSize int
}

// New builds a client from configuration.
func New(cfg config.CanvasConfig) *Client {
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.RequestBurst
	if burst <= 0 {
		burst = 10
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		token:    cfg.AccessToken,
		http:     &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		pageSize: pageSize,
	}
}

// CurrentUser returns the user the access token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.getJSON(ctx, "/api/v1/users/self", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListCourses lists courses visible to the token's user, restricted to
// the given enrollment state ("active" excludes dropped and completed).
func (c *Client) ListCourses(ctx context.Context, enrollmentState string) ([]Course, error) {
	q := url.Values{}
	if enrollmentState != "" {
		q.Set("enrollment_state", enrollmentState)
	}
	q.Add("include[]", "term")
	return collect[Course](ctx, c, "/api/v1/courses", q)
}

// GetCourse fetches one course with syllabus, term and teacher details.
func (c *Client) GetCourse(ctx context.Context, courseID int64) (*Course, error) {
	q := url.Values{}
	q.Add("include[]", "syllabus_body")
	q.Add("include[]", "term")
	q.Add("include[]", "teachers")
	q.Add("include[]", "public_description")

	var course Course
	path := fmt.Sprintf("/api/v1/courses/%d", courseID)
	if err := c.getJSON(ctx, path, q, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

// ListAssignments lists all assignments for a course.
func (c *Client) ListAssignments(ctx context.Context, courseID int64) ([]Assignment, error) {
	path := fmt.Sprintf("/api/v1/courses/%d/assignments", courseID)
	return collect[Assignment](ctx, c, path, nil)
}

// ListModules lists all modules for a course.
func (c *Client) ListModules(ctx context.Context, courseID int64) ([]Module, error) {
	path := fmt.Sprintf("/api/v1/courses/%d/modules", courseID)
	return collect[Module](ctx, c, path, nil)
}

// ListModuleItems lists the items of one module.
func (c *Client) ListModuleItems(ctx context.Context, courseID, moduleID int64) ([]ModuleItem, error) {
	path := fmt.Sprintf("/api/v1/courses/%d/modules/%d/items", courseID, moduleID)
	return collect[ModuleItem](ctx, c, path, nil)
}

// ListAnnouncements lists the announcements of a course.
func (c *Client) ListAnnouncements(ctx context.Context, courseID int64) ([]Announcement, error) {
	q := url.Values{}
	q.Set("only_announcements", "true")
	path := fmt.Sprintf("/api/v1/courses/%d/discussion_topics", courseID)
	return collect[Announcement](ctx, c, path, q)
}

// ListCalendarEvents lists calendar events scoped to a course context.
func (c *Client) ListCalendarEvents(ctx context.Context, courseID int64) ([]CalendarEvent, error) {
	q := url.Values{}
	q.Add("context_codes[]", fmt.Sprintf("course_%d", courseID))
	q.Set("all_events", "true")
	return collect[CalendarEvent](ctx, c, "/api/v1/calendar_events", q)
}

// ListConversations lists inbox threads filtered to a course context.
func (c *Client) ListConversations(ctx context.Context, courseID int64) ([]Conversation, error) {
	q := url.Values{}
	q.Set("filter", fmt.Sprintf("course_%d", courseID))
	return collect[Conversation](ctx, c, "/api/v1/conversations", q)
}

// collect pages through a list endpoint, accumulating decoded items
// until no rel="next" link remains.
func collect[T any](ctx context.Context, c *Client, path string, q url.Values) ([]T, error) {
	if q == nil {
		q = url.Values{}
	}
	q.Set("per_page", strconv.Itoa(c.pageSize))

	next := c.baseURL + path + "?" + q.Encode()
	var out []T

	for next != "" {
		body, links, err := c.get(ctx, next)
		if err != nil {
			return nil, err
		}

		var page []T
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code,
				appErrors.ErrUpstreamUnavailable.Status, "malformed canvas response")
		}
		out = append(out, page...)
		next = links["next"]
	}

	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, dst any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	body, _, err := c.get(ctx, u)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code,
			appErrors.ErrUpstreamUnavailable.Status, "malformed canvas response")
	}
	return nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, map[string]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code,
			appErrors.ErrUpstreamUnavailable.Status, "rate limiter interrupted")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code,
			appErrors.ErrInternal.Status, "build canvas request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code,
			appErrors.ErrUpstreamUnavailable.Status, "canvas request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code,
			appErrors.ErrUpstreamUnavailable.Status, "read canvas response")
	}

	if err := statusError(resp.StatusCode); err != nil {
		return nil, nil, err
	}

	return body, parseLinks(resp.Header.Get("Link")), nil
}

// statusError maps an HTTP status onto the sync error taxonomy.
func statusError(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return appErrors.Clone(appErrors.ErrUnauthorized, "canvas rejected credentials")
	case status == http.StatusNotFound:
		return appErrors.Clone(appErrors.ErrNotFound, "canvas resource not found")
	case status == http.StatusTooManyRequests:
		return appErrors.Clone(appErrors.ErrRateLimited, "")
	case status >= 500:
		return appErrors.Clone(appErrors.ErrUpstreamUnavailable, fmt.Sprintf("canvas returned %d", status))
	default:
		return appErrors.New("CANVAS_ERROR", status, fmt.Sprintf("canvas returned %d", status))
	}
}

// parseLinks extracts rel targets from an RFC 5988 Link header.
func parseLinks(header string) map[string]string {
	links := map[string]string{}
	for _, part := range strings.Split(header, ",") {
		sections := strings.Split(strings.TrimSpace(part), ";")
		if len(sections) < 2 {
			continue
		}
		target := strings.Trim(strings.TrimSpace(sections[0]), "<>")
		for _, attr := range sections[1:] {
			attr = strings.TrimSpace(attr)
			if rel, ok := strings.CutPrefix(attr, `rel="`); ok {
				links[strings.TrimSuffix(rel, `"`)] = target
			}
		}
	}
	return links
}
