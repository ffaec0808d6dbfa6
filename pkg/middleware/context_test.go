package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	fernctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextExtractsPrincipalHeaders(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/schedules", nil)
	req.Header.Set(HeaderTenantID, "tenant-1")
	req.Header.Set(HeaderUserID, "user-1")
	req.Header.Set(HeaderUserRole, "coordinator")
	req.Header.Set(echo.HeaderXRequestID, "req-1")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Context()(func(c echo.Context) error {
		ctx := c.Request().Context()
		assert.Equal(t, "tenant-1", fernctx.GetTenantID(ctx))
		assert.Equal(t, "user-1", fernctx.GetUserID(ctx))
		assert.Equal(t, "coordinator", fernctx.GetUserRole(ctx))
		assert.Equal(t, "req-1", fernctx.GetRequestID(ctx))
		assert.Equal(t, http.MethodPost, fernctx.GetMethod(ctx))
		assert.Equal(t, "/api/v1/schedules", fernctx.GetRoute(ctx))
		return nil
	})

	require.NoError(t, handler(c))
}

func TestContextGeneratesRequestID(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/schedules", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Context()(func(c echo.Context) error {
		assert.NotEmpty(t, fernctx.GetRequestID(c.Request().Context()))
		return nil
	})

	require.NoError(t, handler(c))
}
