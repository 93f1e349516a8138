package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, job *Job) error
	FindByID(ctx context.Context, db *gorm.DB, orgID snowflake.ID, id string) (*Job, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]Job, error)
}
