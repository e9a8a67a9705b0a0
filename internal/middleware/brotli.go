package middleware

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

type BrotliConfig struct {
	Quality   int
	Skipper   func(c *gin.Context) bool
	MinLength int
}

var DefaultBrotliConfig = BrotliConfig{
	Quality:   brotli.DefaultCompression,
	MinLength: 1024,
}

// brotliWriter holds the whole body so the encoding can be chosen once its
// size is known. Exam papers and bank exports are the large responses.
type brotliWriter struct {
	gin.ResponseWriter
	buf    bytes.Buffer
	status int
}

func (bw *brotliWriter) WriteHeader(code int) {
	bw.status = code
}

func (bw *brotliWriter) WriteHeaderNow() {}

func (bw *brotliWriter) Write(data []byte) (int, error) {
	return bw.buf.Write(data)
}

func (bw *brotliWriter) WriteString(s string) (int, error) {
	return bw.buf.WriteString(s)
}

func (bw *brotliWriter) Status() int {
	if bw.status == 0 {
		return bw.ResponseWriter.Status()
	}
	return bw.status
}

func (bw *brotliWriter) Size() int { return bw.buf.Len() }

func (bw *brotliWriter) Written() bool { return bw.buf.Len() > 0 || bw.status != 0 }

// finish writes the buffered body, compressed when it is at least minLength.
func (bw *brotliWriter) finish(quality, minLength int) error {
	w := bw.ResponseWriter
	status := bw.Status()

	if bw.buf.Len() < minLength || !bodyAllowed(status) || w.Header().Get("Content-Encoding") != "" {
		w.WriteHeader(status)
		_, err := w.Write(bw.buf.Bytes())
		return err
	}

	w.Header().Set("Content-Encoding", "br")
	w.Header().Del("Content-Length")
	w.WriteHeader(status)

	enc := brotli.NewWriterLevel(w, quality)
	if _, err := enc.Write(bw.buf.Bytes()); err != nil {
		return err
	}
	return enc.Close()
}

func Brotli() gin.HandlerFunc {
	return BrotliWithConfig(DefaultBrotliConfig)
}

func BrotliWithConfig(cfg BrotliConfig) gin.HandlerFunc {
	if cfg.Quality < 0 || cfg.Quality > 11 {
		cfg.Quality = brotli.DefaultCompression
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultBrotliConfig.MinLength
	}

	return func(c *gin.Context) {
		if shouldSkip(c) || (cfg.Skipper != nil && cfg.Skipper(c)) || !acceptsBrotli(c.Request) {
			c.Next()
			return
		}

		c.Header("Vary", "Accept-Encoding")

		bw := &brotliWriter{ResponseWriter: c.Writer}
		c.Writer = bw
		defer func() {
			c.Writer = bw.ResponseWriter
			if err := bw.finish(cfg.Quality, cfg.MinLength); err != nil {
				_ = c.Error(err)
			}
		}()

		c.Next()
	}
}

// shouldSkip returns true for protocols that are incompatible with
// buffered compression and must be passed through untouched.
func shouldSkip(c *gin.Context) bool {
	if strings.Contains(c.GetHeader("Accept"), "text/event-stream") {
		return true
	}
	// The WebSocket handshake hijacks the connection.
	return strings.EqualFold(c.GetHeader("Upgrade"), "websocket")
}

func acceptsBrotli(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		name, _, _ := strings.Cut(strings.TrimSpace(enc), ";")
		if strings.EqualFold(name, "br") {
			return true
		}
	}
	return false
}

func bodyAllowed(status int) bool {
	return status != http.StatusNoContent && status != http.StatusNotModified && (status < 100 || status > 199)
}
