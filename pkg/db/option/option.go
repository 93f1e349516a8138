package option

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/leadstack/crm/pkg/db/pagination"
)

type Option interface {
	Apply(stmt *gorm.DB) *gorm.DB
}

type paginationOption struct {
	page pagination.Pagination
}

// ApplyPagination turns a cursor token and page size into the keyset
// predicate and limit used by list queries ordered by created_at desc,
// id desc. The limit is page size plus one so callers can detect a next
// page.
func ApplyPagination(page pagination.Pagination) Option {
	return paginationOption{page: page}
}

func (o paginationOption) Apply(stmt *gorm.DB) *gorm.DB {
	if token := strings.TrimSpace(o.page.PageToken); token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err == nil {
			createdAt, timeErr := time.Parse(time.RFC3339, cursor.CreatedAt)
			id, idErr := snowflake.ParseString(strings.TrimSpace(cursor.ID))
			if timeErr == nil && idErr == nil && id != 0 {
				stmt = stmt.Where(
					"(created_at < ?) OR (created_at = ? AND id < ?)",
					createdAt, createdAt, id,
				)
			}
		}
	}
	if o.page.PageSize > 0 {
		stmt = stmt.Limit(o.page.PageSize + 1)
	}
	return stmt
}
