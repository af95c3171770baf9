package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/plazareviews/revscope/pkg/period"
	"github.com/plazareviews/revscope/pkg/review"
	"github.com/plazareviews/revscope/pkg/storage"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func newTestServer(t *testing.T, user, pass string) *httptest.Server {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "revscope.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	b, err := period.ParseBoundary("2016-02-01", "2018-05-31")
	require.NoError(t, err)
	_, err = db.UpsertReviews(context.Background(), "fixture", []review.Review{
		{ID: "1", Platform: "tripadvisor", Date: day("2015-01-10"), Rating: 5, Text: "lovely"},
		{ID: "2", Platform: "tripadvisor", Date: day("2015-02-10"), Rating: 3},
		{ID: "3", Platform: "google", Date: day("2016-02-10"), Rating: 2},
		{ID: "4", Platform: "google", Date: day("2017-06-01"), Rating: 1},
		{ID: "5", Platform: "yelp", Date: day("2019-01-01"), Rating: 4},
		{ID: "6", Platform: "yelp", Rating: 4},
	}, b)
	require.NoError(t, err)

	s := New(db, user, pass, b, period.RollingOptions{Window: 3, Align: period.Trailing})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (int, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestPeriods(t *testing.T) {
	srv := newTestServer(t, "", "")

	code, body := get(t, srv.URL+"/api/periods")
	require.Equal(t, http.StatusOK, code)
	keys := gjson.GetBytes(body, "#.key").Array()
	require.Len(t, keys, 5)
	assert.Equal(t, "pre", keys[0].String())
	assert.Equal(t, "border_start_month", keys[1].String())
	assert.Equal(t, "missing_date", keys[4].String())
	assert.Equal(t, 4.0, gjson.GetBytes(body, "0.mean").Float())

	code, body = get(t, srv.URL+"/api/periods?exclude_border=true&platform=google")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"during"}, stringsOf(gjson.GetBytes(body, "#.key").Array()))

	code, _ = get(t, srv.URL+"/api/periods?field=length")
	assert.Equal(t, http.StatusBadRequest, code)
}

func stringsOf(rs []gjson.Result) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.String()
	}
	return out
}

func TestTimeline(t *testing.T) {
	srv := newTestServer(t, "", "")

	code, body := get(t, srv.URL+"/api/timeline?by=year")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"2015", "2016", "2017", "2019"}, stringsOf(gjson.GetBytes(body, "#.key").Array()))
	assert.InDelta(t, 3.0, gjson.GetBytes(body, "1.rolling").Float(), 1e-9)

	code, _ = get(t, srv.URL+"/api/timeline?by=period")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = get(t, srv.URL+"/api/timeline?window=0")
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = get(t, srv.URL+"/api/timeline?by=year&window=2&align=centered")
	require.Equal(t, http.StatusOK, code)
	assert.InDelta(t, 4.0, gjson.GetBytes(body, "0.rolling").Float(), 1e-9)
	assert.InDelta(t, 3.0, gjson.GetBytes(body, "1.rolling").Float(), 1e-9)
}

func TestDashboardAndReviews(t *testing.T) {
	srv := newTestServer(t, "", "")

	code, body := get(t, srv.URL+"/api/dashboard")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "2016-02-01", gjson.GetBytes(body, "construction.start").String())
	assert.True(t, gjson.GetBytes(body, "ratingsByPeriod").IsArray())

	code, body = get(t, srv.URL+"/api/reviews?platform=yelp")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, gjson.ParseBytes(body).Array(), 2)
	assert.Equal(t, "post", gjson.GetBytes(body, "0.period").String())
	assert.Equal(t, "missing_date", gjson.GetBytes(body, "1.period").String())

	id := gjson.GetBytes(body, "0.id").String()
	code, body = get(t, srv.URL+"/api/reviews/"+id)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(4), gjson.GetBytes(body, "rating").Int())

	code, _ = get(t, srv.URL+"/api/reviews/9999")
	assert.Equal(t, http.StatusNotFound, code)

	code, body = get(t, srv.URL+"/api/imports")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "fixture", gjson.GetBytes(body, "0.Source").String())
}

func TestReviewsFilters(t *testing.T) {
	srv := newTestServer(t, "", "")

	code, body := get(t, srv.URL+"/api/reviews?since=2017-01-01&until=2017-12-31")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, gjson.ParseBytes(body).Array(), 1)
	assert.Equal(t, "during", gjson.GetBytes(body, "0.period").String())

	code, body = get(t, srv.URL+"/api/reviews?exclude_border=true")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, gjson.ParseBytes(body).Array(), 5)
	assert.NotContains(t, stringsOf(gjson.GetBytes(body, "#.period").Array()), "border_start_month")

	code, body = get(t, srv.URL+"/api/reviews?exclude_border=true&limit=3")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"pre", "pre", "during"}, stringsOf(gjson.GetBytes(body, "#.period").Array()))

	code, _ = get(t, srv.URL+"/api/reviews?since=garbage")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestBasicAuth(t *testing.T) {
	srv := newTestServer(t, "admin", "secret")

	code, _ := get(t, srv.URL+"/api/stats")
	assert.Equal(t, http.StatusUnauthorized, code)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/stats", nil)
	require.NoError(t, err)
	req.SetBasicAuth("admin", "secret")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
