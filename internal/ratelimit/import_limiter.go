package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"

	"github.com/leadstack/crm/internal/config"
)

const (
	keyImportOrg  = "import:org:%s"
	keyImportUser = "import:user:%s"
)

// ImportLimiter throttles bulk CSV imports per organization and per user.
// It is nil-safe: without a Redis address every check passes.
type ImportLimiter struct {
	enabled bool

	bucket *TokenBucket

	orgRate   float64
	orgBurst  int
	userRate  float64
	userBurst int
}

func NewImportLimiter(cfg config.Config, client *redis.Client) *ImportLimiter {
	if client == nil {
		return nil
	}
	return &ImportLimiter{
		enabled:   true,
		bucket:    NewTokenBucket(client),
		orgRate:   cfg.ImportOrgRate,
		orgBurst:  cfg.ImportOrgBurst,
		userRate:  cfg.ImportUserRate,
		userBurst: cfg.ImportUserBurst,
	}
}

func (l *ImportLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *ImportLimiter) AllowOrg(ctx context.Context, orgID string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyImportOrg, strings.TrimSpace(orgID)), l.orgRate, l.orgBurst)
}

func (l *ImportLimiter) AllowUser(ctx context.Context, userID string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyImportUser, strings.TrimSpace(userID)), l.userRate, l.userBurst)
}
