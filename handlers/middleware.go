package handlers

import (
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	cookieExpires       = regexp.MustCompile(`Expires=([^;]+)`)
	cookieExpiresStrip  = regexp.MustCompile(`Expires=[^;]+;?\s*`)
	cookieExpiryLayouts = []string{
		http.TimeFormat,
		time.RFC1123,
		time.RFC1123Z,
		time.RFC850,
		time.ANSIC,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	}
)

// FixCookieExpires rewrites the Expires attribute of a Set-Cookie value to
// RFC 1123 in GMT. Unparseable dates drop the attribute.
func FixCookieExpires(cookie string) string {
	m := cookieExpires.FindStringSubmatch(cookie)
	if m == nil {
		return cookie
	}

	raw := strings.TrimSpace(m[1])
	for _, layout := range cookieExpiryLayouts {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		formatted := "Expires=" + t.UTC().Format(http.TimeFormat)
		return cookieExpires.ReplaceAllLiteralString(cookie, formatted)
	}

	return strings.TrimRight(cookieExpiresStrip.ReplaceAllString(cookie, ""), "; ")
}

// cookieDateWriter fixes Set-Cookie headers right before they are sent
type cookieDateWriter struct {
	gin.ResponseWriter
	logger *slog.Logger
	fixed  bool
}

func (w *cookieDateWriter) fix() {
	if w.fixed {
		return
	}
	w.fixed = true
	fixCookieHeaders(w.Header(), w.logger)
}

func (w *cookieDateWriter) WriteHeaderNow() {
	w.fix()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *cookieDateWriter) Write(data []byte) (int, error) {
	w.fix()
	return w.ResponseWriter.Write(data)
}

func (w *cookieDateWriter) WriteString(s string) (int, error) {
	w.fix()
	return w.ResponseWriter.WriteString(s)
}

func (w *cookieDateWriter) Flush() {
	w.fix()
	w.ResponseWriter.Flush()
}

func fixCookieHeaders(h http.Header, logger *slog.Logger) {
	cookies := h.Values("Set-Cookie")
	if len(cookies) == 0 {
		return
	}
	h.Del("Set-Cookie")
	for _, cookie := range cookies {
		fixed := FixCookieExpires(cookie)
		if fixed != cookie && !strings.Contains(fixed, "Expires=") {
			logger.Warn("removed invalid cookie date", "cookie", cookie)
		}
		h.Add("Set-Cookie", fixed)
	}
}

// CookieDates normalizes the Expires dates of every Set-Cookie header
func CookieDates(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		w := &cookieDateWriter{ResponseWriter: c.Writer, logger: logger}
		c.Writer = w
		c.Next()
		// Responses without a body are flushed by gin after this returns
		if !w.Written() {
			w.fix()
		}
	}
}

// RequestLogger logs one line per request
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
