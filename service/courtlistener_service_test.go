package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newCourtListenerStub serves a tiny slice of CourtListener:
// "410 U.S. 113" redirects to opinion 108713, "1 NOID. 1" redirects to a page
// without an opinion id, everything else under /c/ is 404.
func newCourtListenerStub(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/c/U.S./410/113/":
			http.Redirect(w, r, "/opinion/108713/roe-v-wade/", http.StatusFound)
		case "/c/NOID./1/1/":
			http.Redirect(w, r, "/somewhere-else/", http.StatusFound)
		case "/opinion/108713/roe-v-wade/", "/somewhere-else/":
			w.Write([]byte("<html></html>"))
		case "/api/rest/v3/opinions/108713/":
			assert.Equal(t, "Token secret", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"id":                  108713,
				"case_name":           "Roe v. Wade",
				"html_with_citations": "<p>opinion</p>",
				"plain_text":          "opinion",
			})
		case "/api/rest/v3/search/":
			q := r.URL.Query()
			assert.Equal(t, "o", q.Get("type"))
			assert.Equal(t, "on", q.Get("stat_Precedential"))
			assert.Equal(t, "json", q.Get("format"))
			if q.Get("q") != "Roe Wade" {
				json.NewEncoder(w).Encode(map[string]any{"count": 0, "results": []any{}})
				return
			}
			results := make([]map[string]any, 0, 7)
			for i := 1; i <= 7; i++ {
				results = append(results, map[string]any{
					"id":       i,
					"citation": []string{"410 U.S. 113"},
				})
			}
			// A bare string citation is also accepted
			results[1]["citation"] = "93 S. Ct. 705"
			json.NewEncoder(w).Encode(map[string]any{"count": 7, "results": results})
		default:
			http.NotFound(w, r)
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestCourtListener(baseURL string) *CourtListenerService {
	return NewCourtListenerService(
		CourtListenerWithBaseURL(baseURL),
		CourtListenerWithAPIKey("secret"),
		CourtListenerWithLogger(quietLogger()),
	)
}

func TestCourtListener_ResolveCitation(t *testing.T) {
	srv := newCourtListenerStub(t)
	cl := newTestCourtListener(srv.URL)

	hit := cl.ResolveCitation(context.Background(), "410 U.S. 113")

	require.NotNil(t, hit)
	assert.Equal(t, int64(108713), hit.ID)
	assert.Equal(t, "410 U.S. 113", hit.Citation)
	assert.Equal(t, "https://www.courtlistener.com/opinion/108713/", hit.OpinionURL)
	assert.Equal(t, "Roe v. Wade", hit.Data.CaseName)
	assert.Equal(t, "<p>opinion</p>", hit.Data.Text())
}

func TestCourtListener_ResolveCitation_NegativeOutcomes(t *testing.T) {
	srv := newCourtListenerStub(t)
	cl := newTestCourtListener(srv.URL)

	cases := map[string]string{
		"unparseable": "Roe v. Wade",
		"not_found":   "999 FOO. 1",
		"no_opinion":  "1 NOID. 1",
	}
	for name, citation := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Nil(t, cl.ResolveCitation(context.Background(), citation))
		})
	}
}

func TestCourtListener_ResolveCitation_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	cl := NewCourtListenerService(
		CourtListenerWithBaseURL(srv.URL),
		CourtListenerWithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}),
		CourtListenerWithLogger(quietLogger()),
	)

	assert.Nil(t, cl.ResolveCitation(context.Background(), "410 U.S. 113"))
	assert.Nil(t, cl.Search(context.Background(), "Roe Wade", 5))
}

func TestCourtListener_ResolveCitation_BadOpinionPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/c/U.S./410/113/":
			http.Redirect(w, r, "/opinion/5/x/", http.StatusFound)
		case "/api/rest/v3/opinions/5/":
			w.Write([]byte("not json"))
		default:
			w.Write([]byte("ok"))
		}
	}))
	defer srv.Close()

	cl := newTestCourtListener(srv.URL)
	assert.Nil(t, cl.ResolveCitation(context.Background(), "410 U.S. 113"))
}

func TestCourtListener_Search(t *testing.T) {
	srv := newCourtListenerStub(t)
	cl := newTestCourtListener(srv.URL)

	hits := cl.Search(context.Background(), "Roe Wade", 5)

	require.Len(t, hits, 5)
	assert.Equal(t, int64(1), hits[0].ID)
	assert.Equal(t, "410 U.S. 113", hits[0].Citation.First(""))
	assert.Equal(t, "93 S. Ct. 705", hits[1].Citation.First(""))

	assert.Empty(t, cl.Search(context.Background(), "nothing", 5))
}

func TestCourtListener_SearchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cl := newTestCourtListener(srv.URL)
	assert.Nil(t, cl.Search(context.Background(), "Roe Wade", 5))
}

func TestCitationService_WithCourtListener(t *testing.T) {
	srv := newCourtListenerStub(t)
	svc := NewCitationService(newTestCourtListener(srv.URL), CitationWithLogger(quietLogger()))

	result := svc.HandleCitationQuery(context.Background(), "Roe v. Wade")
	assert.Equal(t, "search_result", string(result.ResolutionStatus()))

	result = svc.HandleCitationQuery(context.Background(), "410 u.s. 113")
	assert.Equal(t, "single", string(result.ResolutionStatus()))
}
