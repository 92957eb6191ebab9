package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestFixCookieExpires(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "already_rfc1123",
			in:   "sid=1; Expires=Thu, 10 Jul 2025 16:17:04 GMT; Path=/",
			want: "sid=1; Expires=Thu, 10 Jul 2025 16:17:04 GMT; Path=/",
		},
		{
			name: "iso_utc",
			in:   "sid=1; Expires=2025-07-10T16:17:04Z; Path=/",
			want: "sid=1; Expires=Thu, 10 Jul 2025 16:17:04 GMT; Path=/",
		},
		{
			name: "iso_offset",
			in:   "sid=1; Expires=2025-07-10T18:17:04+02:00",
			want: "sid=1; Expires=Thu, 10 Jul 2025 16:17:04 GMT",
		},
		{
			name: "space_separated",
			in:   "sid=1; Expires=2025-07-10 16:17:04; HttpOnly",
			want: "sid=1; Expires=Thu, 10 Jul 2025 16:17:04 GMT; HttpOnly",
		},
		{
			name: "unparseable_middle",
			in:   "sid=1; Expires=next tuesday; Path=/",
			want: "sid=1; Path=/",
		},
		{
			name: "unparseable_last",
			in:   "sid=1; Expires=soon",
			want: "sid=1",
		},
		{
			name: "no_expires",
			in:   "sid=1; Max-Age=60",
			want: "sid=1; Max-Age=60",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FixCookieExpires(tc.in))
		})
	}
}

func TestCookieDatesMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CookieDates(quietLogger()))
	r.GET("/body", func(c *gin.Context) {
		c.Writer.Header().Add("Set-Cookie", "a=1; Expires=2025-07-10T16:17:04Z")
		c.Writer.Header().Add("Set-Cookie", "b=2; Expires=bogus; Path=/")
		c.String(http.StatusOK, "ok")
	})
	r.GET("/empty", func(c *gin.Context) {
		c.Writer.Header().Add("Set-Cookie", "a=1; Expires=2025-07-10 16:17:04")
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/body", nil))
	assert.Equal(t, []string{
		"a=1; Expires=Thu, 10 Jul 2025 16:17:04 GMT",
		"b=2; Path=/",
	}, w.Header().Values("Set-Cookie"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/empty", nil))
	assert.Equal(t, []string{"a=1; Expires=Thu, 10 Jul 2025 16:17:04 GMT"}, w.Header().Values("Set-Cookie"))
}
