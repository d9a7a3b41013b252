package canvas

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/canvas-sync-api/pkg/config"
	appErrors "github.com/noah-isme/canvas-sync-api/pkg/errors"
)

func testClient(baseURL string) *Client {
	return New(config.CanvasConfig{
		BaseURL:        baseURL,
		AccessToken:    "token-123",
		Timeout:        5 * time.Second,
		PageSize:       2,
		RequestsPerSec: 1000,
		RequestBurst:   1000,
	})
}

func TestListCoursesFollowsPagination(t *testing.T) {
	var sawAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAuth = r.Header.Get("Authorization")
		switch r.URL.Query().Get("page") {
		case "", "1":
			w.Header().Set("Link", fmt.Sprintf(`<http://%s/api/v1/courses?page=2>; rel="next", <http://%s/api/v1/courses?page=2>; rel="last"`,
				r.Host, r.Host))
			fmt.Fprint(w, `[{"id": 1, "name": "Algorithms", "course_code": "CS101"}, {"id": 2, "name": "Databases", "course_code": "CS102"}]`)
		case "2":
			fmt.Fprint(w, `[{"id": 3, "name": "Networks", "course_code": "CS103"}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	courses, err := testClient(srv.URL).ListCourses(context.Background(), "active")
	require.NoError(t, err)
	require.Len(t, courses, 3)
	assert.Equal(t, int64(3), courses[2].ID)
	assert.Equal(t, "Bearer token-123", sawAuth)
}

func TestGetCourseRequestsIncludes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		includes := r.URL.Query()["include[]"]
		assert.Contains(t, includes, "syllabus_body")
		assert.Contains(t, includes, "term")
		assert.Contains(t, includes, "teachers")
		fmt.Fprint(w, `{"id": 9, "name": "Algorithms", "course_code": "CS101", "syllabus_body": "<p>hi</p>"}`)
	}))
	defer srv.Close()

	course, err := testClient(srv.URL).GetCourse(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", course.SyllabusBody)
}

func TestStatusErrorMapping(t *testing.T) {
	tests := []struct {
		status    int
		wantCode  string
		retryable bool
	}{
		{http.StatusUnauthorized, appErrors.ErrUnauthorized.Code, false},
		{http.StatusForbidden, appErrors.ErrUnauthorized.Code, false},
		{http.StatusNotFound, appErrors.ErrNotFound.Code, false},
		{http.StatusTooManyRequests, appErrors.ErrRateLimited.Code, true},
		{http.StatusBadGateway, appErrors.ErrUpstreamUnavailable.Code, true},
		{http.StatusInternalServerError, appErrors.ErrUpstreamUnavailable.Code, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := testClient(srv.URL).ListAssignments(context.Background(), 1)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, appErrors.FromError(err).Code)
			assert.Equal(t, tt.retryable, appErrors.Retryable(err))
		})
	}
}

func TestNetworkFailureIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := testClient(srv.URL).ListModules(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, appErrors.Retryable(err))
}

func TestMalformedBodyIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"not": "a list"`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).ListAnnouncements(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstreamUnavailable.Code, appErrors.FromError(err).Code)
}

func TestParseLinks(t *testing.T) {
	header := `<https://canvas.example.edu/api/v1/courses?page=2&per_page=10>; rel="next", ` +
		`<https://canvas.example.edu/api/v1/courses?page=1&per_page=10>; rel="first"`
	links := parseLinks(header)
	assert.Equal(t, "https://canvas.example.edu/api/v1/courses?page=2&per_page=10", links["next"])
	assert.Equal(t, "https://canvas.example.edu/api/v1/courses?page=1&per_page=10", links["first"])
	assert.Empty(t, parseLinks(""))
}

func TestListCoursesSendsEnrollmentState(t *testing.T) {
	var sawState []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawState = append(sawState, r.URL.Query().Get("enrollment_state"))
		assert.Contains(t, r.URL.Query()["include[]"], "term")
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	_, err := client.ListCourses(context.Background(), "active")
	require.NoError(t, err)
	_, err = client.ListCourses(context.Background(), "completed")
	require.NoError(t, err)

	assert.Equal(t, []string{"active", "completed"}, sawState)
}
