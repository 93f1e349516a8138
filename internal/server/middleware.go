package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/leadstack/crm/internal/identity"
	obscontext "github.com/leadstack/crm/internal/observability/context"
	"github.com/leadstack/crm/internal/observability/logger"
	"github.com/leadstack/crm/internal/orgcontext"
)

const (
	rateLimitReasonOrgRate  = "org-rate"
	rateLimitReasonUserRate = "user-rate"
)

// AuthRequired authenticates the bearer token and stashes the caller identity
// and org scope on the request context. Every domain service reads both from
// there; no handler passes them explicitly.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		user, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx := identity.WithIdentity(c.Request.Context(), user.Identity())
		ctx = orgcontext.WithOrgID(ctx, int64(user.OrgID))
		ctx = obscontext.WithOrgID(ctx, user.OrgID.String())
		ctx = obscontext.WithActor(ctx, "user", user.ID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Server) authorize(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.authzSvc == nil {
			AbortWithError(c, ErrForbidden)
			return
		}
		if err := s.authzSvc.Authorize(c.Request.Context(), object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// ImportRateLimit throttles bulk imports per org and per user. Without Redis
// the limiter is disabled and every request passes.
func (s *Server) ImportRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.importLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		orgID, ok := orgcontext.OrgIDFromContext(ctx)
		if !ok || orgID == 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		actor, ok := identity.FromContext(ctx)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		allowed, err := s.importLimiter.AllowOrg(ctx, orgID.String())
		if err != nil {
			logger.FromContext(ctx).Warn("import org rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !allowed {
			denyImportRateLimit(c, rateLimitReasonOrgRate)
			return
		}

		allowed, err = s.importLimiter.AllowUser(ctx, actor.UserID.String())
		if err != nil {
			logger.FromContext(ctx).Warn("import user rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !allowed {
			denyImportRateLimit(c, rateLimitReasonUserRate)
			return
		}

		c.Next()
	}
}

func denyImportRateLimit(c *gin.Context, reason string) {
	logger.FromContext(c.Request.Context()).Warn("import rate limit exceeded",
		zap.String("reason", reason),
	)
	c.Header("Retry-After", "1")
	c.Header("X-Rate-Limited-Reason", reason)
	AbortWithError(c, ErrRateLimited)
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
