package middleware

import (
	"github.com/Ramsey-B/fern/pkg/context"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// HeaderTenantID is the header key for tenant ID
	HeaderTenantID = "X-Tenant-ID"
	// HeaderUserID is the header key for user ID
	HeaderUserID = "X-User-ID"
	// HeaderUserRole is the header key for the authenticated principal's role
	HeaderUserRole = "X-User-Role"
)

// Context extracts the authenticated principal and request metadata into the
// request context. Authentication itself happens upstream; this service
// trusts the forwarded headers.
func Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			req := c.Request()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			tenantID := req.Header.Get(HeaderTenantID)
			userID := req.Header.Get(HeaderUserID)
			userRole := req.Header.Get(HeaderUserRole)

			ctx := req.Context()
			ctx = context.SetRequestID(ctx, requestID)
			ctx = context.SetMethod(ctx, req.Method)
			ctx = context.SetRoute(ctx, req.URL.Path)
			ctx = context.SetRemoteIP(ctx, c.RealIP())
			ctx = context.SetTenantID(ctx, tenantID)
			ctx = context.SetUserID(ctx, userID)
			ctx = context.SetUserRole(ctx, userRole)

			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}
