package memory

import (
	"context"
	"sort"

	moddomain "github.com/dmehra2102/agro-marketplace/internal/moderation/domain"
	"github.com/dmehra2102/agro-marketplace/pkg/apperr"
	"github.com/dmehra2102/agro-marketplace/pkg/outbox"
)

type Reports struct{ s *Store }

func (r *Reports) Create(ctx context.Context, rep moddomain.Report, msg outbox.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.reports[rep.ID] = rep
	r.s.events = append(r.s.events, msg)
	return nil
}

func (r *Reports) Get(ctx context.Context, id string) (moddomain.Report, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rep, ok := r.s.reports[id]
	if !ok {
		return moddomain.Report{}, apperr.ErrNotFound
	}
	return rep, nil
}

func (r *Reports) List(ctx context.Context, f moddomain.ListFilter) ([]moddomain.Report, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]moddomain.Report, 0)
	for _, rep := range r.s.reports {
		if f.Status != "" && rep.Status != f.Status {
			continue
		}
		if f.TargetType != "" && rep.TargetType != f.TargetType {
			continue
		}
		out = append(out, rep)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *Reports) Resolve(ctx context.Context, res moddomain.Resolution, msg outbox.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rep, ok := r.s.reports[res.ReportID]
	if !ok {
		return apperr.ErrNotFound
	}
	if rep.Status != moddomain.StatusPending {
		return apperr.ErrStateConflict
	}
	r.s.reports[res.ReportID] = rep.Apply(res)
	r.s.events = append(r.s.events, msg)
	return nil
}

func (r *Reports) Delete(ctx context.Context, id string, msg outbox.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rep, ok := r.s.reports[id]
	if !ok {
		return apperr.ErrNotFound
	}
	if !rep.Deletable() {
		return apperr.ErrReportNotDeletable
	}
	delete(r.s.reports, id)
	r.s.events = append(r.s.events, msg)
	return nil
}
