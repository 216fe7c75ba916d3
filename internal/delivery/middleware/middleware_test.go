package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"userhub/config"
	deliverycontext "userhub/internal/delivery/context"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}

	return slog.New(slog.NewTextHandler(buf, nil)), buf
}

func TestRequestIDMiddleware(t *testing.T) {
	logger, _ := newBufferedLogger()
	mw := NewRequestIDMiddleware(logger)

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{name: "generates when missing", incoming: ""},
		{name: "keeps client id", incoming: "client-req-1", keep: true},
		{name: "replaces overlong id", incoming: strings.Repeat("x", maxRequestIDLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(deliverycontext.HeaderXRequestID, tt.incoming)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			var seenCtxID string
			var seenLogger *slog.Logger
			err := mw.Process(func(c echo.Context) error {
				seenCtxID = deliverycontext.GetRequestIDFromContext(c.Request().Context())
				seenLogger = deliverycontext.GetLogger(c.Request().Context())

				return nil
			})(c)
			require.NoError(t, err)

			header := rec.Header().Get(deliverycontext.HeaderXRequestID)
			assert.NotEmpty(t, header)
			assert.Equal(t, header, seenCtxID)
			assert.Equal(t, header, deliverycontext.GetRequestID(c))
			assert.NotNil(t, seenLogger)
			if tt.keep {
				assert.Equal(t, tt.incoming, header)
			} else {
				assert.NotEqual(t, tt.incoming, header)
			}
		})
	}
}

func TestLoggerMiddleware(t *testing.T) {
	t.Run("logs when debug", func(t *testing.T) {
		logger, buf := newBufferedLogger()
		cfg := &config.Config{}
		cfg.Env.Debug = true
		mw := NewLoggerMiddleware(logger, cfg)

		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/users?limit=1", nil), rec)

		err := mw.Handle(func(c echo.Context) error {
			return echo.NewHTTPError(http.StatusNotFound, "missing")
		})(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, buf.String(), "HTTP Request")
		assert.Contains(t, buf.String(), "status=404")
		assert.Contains(t, buf.String(), "level=WARN")
		assert.Contains(t, buf.String(), `query="limit=1"`)
	})

	t.Run("silent without debug", func(t *testing.T) {
		logger, buf := newBufferedLogger()
		mw := NewLoggerMiddleware(logger, &config.Config{})

		e := echo.New()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

		err := mw.Handle(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)

		require.NoError(t, err)
		assert.Empty(t, buf.String())
	})
}
