package ginserver

import (
	"errors"
	"log/slog"

	gin "github.com/gin-gonic/gin"

	"stayhub/internal/app/identity"
)

const (
	headerUserID     = "X-User-ID"
	headerUserRoles  = "X-User-Roles"
	headerUserData   = "X-User-Data"
	headerActiveRole = "X-Active-Role"
)

// IdentityMiddleware resolves the caller the gateway forwards in X-User-*
// headers and switches to the role asked for in X-Active-Role. Requests
// without a caller continue anonymously; use cases that need one reject
// them later. The effective role is echoed back in X-Active-Role.
type IdentityMiddleware struct {
	Logger *slog.Logger
}

func (m IdentityMiddleware) Handle(c *gin.Context) {
	raw := identity.Raw{
		UserID:   c.GetHeader(headerUserID),
		Roles:    c.GetHeader(headerUserRoles),
		UserData: c.GetHeader(headerUserData),
	}
	if raw == (identity.Raw{}) {
		c.Next()
		return
	}
	ic, err := identity.Establish(raw, c.GetHeader(headerActiveRole))
	switch {
	case errors.Is(err, identity.ErrAnonymous):
		c.Next()
		return
	case err != nil:
		if m.Logger != nil {
			m.Logger.Debug("identity headers rejected", "error", err)
		}
		c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.Header(headerActiveRole, ic.Current().ActiveRole)
	ctx := identity.WithContext(c.Request.Context(), ic)
	c.Request = c.Request.WithContext(ctx)
	c.Next()
}

// callerID is the resolved user id, or empty for anonymous requests.
func callerID(c *gin.Context) string {
	p, err := identity.PrincipalFrom(c.Request.Context())
	if err != nil {
		return ""
	}
	return p.UserID
}
