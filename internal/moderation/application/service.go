package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmehra2102/agro-marketplace/internal/identity"
	"github.com/dmehra2102/agro-marketplace/internal/moderation/domain"
	"github.com/dmehra2102/agro-marketplace/pkg/apperr"
	"github.com/dmehra2102/agro-marketplace/pkg/outbox"
)

type Service struct {
	log  *slog.Logger
	repo ReportRepository
	now  func() time.Time
}

func NewService(log *slog.Logger, repo ReportRepository) *Service {
	return &Service{log: log, repo: repo, now: time.Now}
}

func (s *Service) Create(ctx context.Context, actor identity.Actor, n domain.NewReport) (domain.Report, error) {
	if actor.ID == "" || !actor.Role.Valid() {
		return domain.Report{}, apperr.ErrUnauthorized
	}
	n.ReporterID = actor.ID
	if err := n.Validate(); err != nil {
		return domain.Report{}, err
	}
	r := domain.Open(uuid.NewString(), n, s.now())
	msg, err := outbox.NewMessage(ctx, domain.AggregateType, r.ID, domain.EventReportCreated, domain.ReportCreated{
		ReportID: r.ID, ReporterID: r.ReporterID, TargetType: r.TargetType, TargetID: r.TargetID, Category: r.Category,
	})
	if err != nil {
		return domain.Report{}, err
	}
	if err := s.repo.Create(ctx, r, msg); err != nil {
		return domain.Report{}, err
	}
	s.log.Info("report created", "report_id", r.ID, "target_type", r.TargetType, "target_id", r.TargetID)
	return r, nil
}

func (s *Service) Get(ctx context.Context, actor identity.Actor, id string) (domain.Report, error) {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Report{}, err
	}
	if !actor.IsAdmin() && r.ReporterID != actor.ID {
		return domain.Report{}, apperr.ErrNotFound
	}
	return r, nil
}

func (s *Service) List(ctx context.Context, actor identity.Actor, f domain.ListFilter) ([]domain.Report, error) {
	if !actor.IsAdmin() {
		return nil, apperr.ErrUnauthorized
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Newf(apperr.CodeInvalidArgument, "unknown state %q", f.Status)
	}
	if f.TargetType != "" && !f.TargetType.Valid() {
		return nil, apperr.Newf(apperr.CodeInvalidArgument, "unknown target type %q", f.TargetType)
	}
	return s.repo.List(ctx, f)
}

type ResolveInput struct {
	To            domain.ReportStatus
	ActionTaken   string
	DelistProduct bool
}

// Resolve closes a pending report. DelistProduct only applies to product
// reports that are resolved (not rejected).
func (s *Service) Resolve(ctx context.Context, actor identity.Actor, id string, in ResolveInput) (domain.Report, error) {
	if !actor.IsAdmin() {
		return domain.Report{}, apperr.ErrUnauthorized
	}
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Report{}, err
	}
	res, err := r.Resolve(in.To, in.ActionTaken, actor.ID, s.now())
	if err != nil {
		return domain.Report{}, err
	}
	delist := in.DelistProduct && res.To == domain.StatusResolved && r.TargetType == domain.TargetProduct
	msg, err := outbox.NewMessage(ctx, domain.AggregateType, r.ID, domain.EventReportResolved, domain.ReportResolved{
		ReportID:      r.ID,
		Status:        res.To,
		TargetType:    r.TargetType,
		TargetID:      r.TargetID,
		ActionTaken:   res.ActionTaken,
		ResolvedBy:    actor.ID,
		DelistProduct: delist,
		At:            res.At,
	})
	if err != nil {
		return domain.Report{}, err
	}
	if err := s.repo.Resolve(ctx, res, msg); err != nil {
		return domain.Report{}, err
	}
	s.log.Info("report resolved", "report_id", r.ID, "state", res.To, "delist_product", delist)
	return r.Apply(res), nil
}

func (s *Service) Delete(ctx context.Context, actor identity.Actor, id string) error {
	if !actor.IsAdmin() {
		return apperr.ErrUnauthorized
	}
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !r.Deletable() {
		return apperr.ErrReportNotDeletable
	}
	msg, err := outbox.NewMessage(ctx, domain.AggregateType, id, domain.EventReportDeleted, domain.ReportDeleted{
		ReportID: id, DeletedBy: actor.ID, At: s.now().UTC(),
	})
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id, msg); err != nil {
		return err
	}
	s.log.Info("report deleted", "report_id", id)
	return nil
}
