package service

import (
	"context"
	"crypto/rand"
	"encoding/csv"
	"io"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/leadstack/crm/internal/clock"
	"github.com/leadstack/crm/internal/identity"
	"github.com/leadstack/crm/internal/importer/domain"
	"github.com/leadstack/crm/internal/orgcontext"
	suspectdomain "github.com/leadstack/crm/internal/suspect/domain"
)

const maxRecordedErrors = 200

var suspectHeader = []string{"company_id", "interest_level", "source", "notes"}

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	Repo       domain.Repository
	SuspectSvc suspectdomain.Service
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	repo       domain.Repository
	suspectSvc suspectdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("importer.service"),
		clock:      p.Clock,
		repo:       p.Repo,
		suspectSvc: p.SuspectSvc,
	}
}

// ImportSuspects reads the stream row by row: row N+1 is not read until row
// N has been fully processed, so a slow database backpressures the upload
// instead of buffering the file.
func (s *Service) ImportSuspects(ctx context.Context, body io.Reader) (domain.Job, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return domain.Job{}, err
	}

	reader := csv.NewReader(body)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return domain.Job{}, domain.ErrInvalidCSV
	}
	columns, err := mapHeader(header)
	if err != nil {
		return domain.Job{}, err
	}

	startedAt := s.clock.Now()
	job := domain.Job{
		ID:         ulid.MustNew(ulid.Timestamp(startedAt), rand.Reader).String(),
		OrgID:      orgID,
		EntityType: "suspects",
		ActorID:    actor.UserID,
		ActorRole:  actor.Role,
		StartedAt:  startedAt,
	}

	var rowErrors []domain.RowError
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return domain.Job{}, err
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			job.Failed++
			rowErrors = appendRowError(rowErrors, line, "malformed csv row")
			continue
		}
		job.Total++

		req := rowToRequest(record, columns)
		if _, err := s.suspectSvc.Create(ctx, req); err != nil {
			job.Failed++
			rowErrors = appendRowError(rowErrors, line, err.Error())
			continue
		}
		job.Succeeded++
	}
	job.Total = job.Succeeded + job.Failed

	job.Errors = datatypes.NewJSONSlice(rowErrors)
	job.Status = domain.StatusCompleted
	if job.Total > 0 && job.Succeeded == 0 {
		job.Status = domain.StatusFailed
	}
	job.FinishedAt = s.clock.Now()

	if err := s.repo.Insert(ctx, s.db, &job); err != nil {
		return domain.Job{}, err
	}
	s.log.Info("suspect import finished",
		zap.String("job_id", job.ID),
		zap.Int("total", job.Total),
		zap.Int("succeeded", job.Succeeded),
		zap.Int("failed", job.Failed),
	)
	return job, nil
}

func (s *Service) GetJob(ctx context.Context, id string) (domain.Job, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return domain.Job{}, err
	}
	job, err := s.repo.FindByID(ctx, s.db, orgID, strings.TrimSpace(id))
	if err != nil {
		return domain.Job{}, err
	}
	if job == nil {
		return domain.Job{}, domain.ErrNotFound
	}
	if !actor.Role.IsSuperAdmin() && job.ActorID != actor.UserID {
		return domain.Job{}, domain.ErrForbidden
	}
	return *job, nil
}

func (s *Service) ListJobs(ctx context.Context) ([]domain.Job, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return nil, err
	}
	jobs, err := s.repo.List(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	if actor.Role.IsSuperAdmin() {
		return jobs, nil
	}
	mine := jobs[:0]
	for _, job := range jobs {
		if job.ActorID == actor.UserID {
			mine = append(mine, job)
		}
	}
	return mine, nil
}

func mapHeader(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["company_id"]; !ok {
		return nil, domain.ErrInvalidCSV
	}
	for name := range columns {
		if !contains(suspectHeader, name) {
			return nil, domain.ErrInvalidCSV
		}
	}
	return columns, nil
}

func rowToRequest(record []string, columns map[string]int) suspectdomain.CreateSuspectRequest {
	return suspectdomain.CreateSuspectRequest{
		CompanyID:     field(record, columns, "company_id"),
		InterestLevel: field(record, columns, "interest_level"),
		Source:        field(record, columns, "source"),
		Notes:         field(record, columns, "notes"),
	}
}

func field(record []string, columns map[string]int, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func appendRowError(errs []domain.RowError, line int, message string) []domain.RowError {
	if len(errs) >= maxRecordedErrors {
		return errs
	}
	return append(errs, domain.RowError{Line: line, Message: message})
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

func callerScope(ctx context.Context) (snowflake.ID, identity.Identity, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return 0, identity.Identity{}, domain.ErrInvalidOrganization
	}
	actor, ok := identity.FromContext(ctx)
	if !ok {
		return 0, identity.Identity{}, domain.ErrForbidden
	}
	return orgID, actor, nil
}
