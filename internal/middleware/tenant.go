package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"divemanager/internal/pkg/response"
)

// ResolveTenant reads the tenant from the X-Tenant-ID header on routes
// that run before authentication, e.g. registration, login and lead
// capture. Authenticated routes take the tenant from the token instead.
func ResolveTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-Tenant-ID")
		tenantID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || tenantID <= 0 {
			response.Error(c, http.StatusBadRequest, "TENANT_REQUIRED", "A valid X-Tenant-ID header is required")
			c.Abort()
			return
		}
		c.Set("tenant_id", tenantID)
		c.Next()
	}
}
