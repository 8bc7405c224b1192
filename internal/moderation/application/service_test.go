package application

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/agro-marketplace/internal/identity"
	"github.com/dmehra2102/agro-marketplace/internal/moderation/domain"
	"github.com/dmehra2102/agro-marketplace/internal/storage/memory"
	"github.com/dmehra2102/agro-marketplace/pkg/apperr"
)

var admin = identity.Admin("adm")

func newService() (*Service, *memory.Store) {
	store := memory.NewStore()
	return NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), store.Reports()), store
}

func productReport(t *testing.T, svc *Service) domain.Report {
	t.Helper()
	r, err := svc.Create(context.Background(), identity.Consumer("c-1"), domain.NewReport{
		TargetType: domain.TargetProduct, TargetID: "p-9", Category: "fraude", Description: "foto falsa",
	})
	require.NoError(t, err)
	return r
}

func TestCreate(t *testing.T) {
	svc, store := newService()
	r := productReport(t, svc)
	assert.Equal(t, "c-1", r.ReporterID)
	assert.Equal(t, domain.StatusPending, r.Status)
	require.Len(t, store.Events(), 1)
	assert.Equal(t, domain.EventReportCreated, store.Events()[0].Type)

	_, err := svc.Create(context.Background(), identity.Actor{}, domain.NewReport{TargetType: domain.TargetUser, TargetID: "u", Category: "x"})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestResolveOnlyByAdmin(t *testing.T) {
	svc, _ := newService()
	r := productReport(t, svc)
	ctx := context.Background()

	_, err := svc.Resolve(ctx, identity.Producer("p"), r.ID, ResolveInput{To: domain.StatusResolved, ActionTaken: "x"})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	got, err := svc.Resolve(ctx, admin, r.ID, ResolveInput{To: domain.StatusRejected})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, got.Status)
	assert.Equal(t, domain.DefaultRejectionText, got.ActionTaken)

	_, err = svc.Resolve(ctx, admin, r.ID, ResolveInput{To: domain.StatusResolved, ActionTaken: "x"})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestResolveWithDelistEmitsEvent(t *testing.T) {
	svc, store := newService()
	r := productReport(t, svc)

	_, err := svc.Resolve(context.Background(), admin, r.ID, ResolveInput{To: domain.StatusResolved, ActionTaken: "producto retirado", DelistProduct: true})
	require.NoError(t, err)

	events := store.Events()
	require.Len(t, events, 2)
	var ev domain.ReportResolved
	require.NoError(t, json.Unmarshal(events[1].Payload, &ev))
	assert.True(t, ev.DelistProduct)
	assert.Equal(t, "p-9", ev.TargetID)
	assert.Equal(t, "adm", ev.ResolvedBy)
}

func TestDeleteOnlyResolved(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	pending := productReport(t, svc)
	rejected := productReport(t, svc)
	resolved := productReport(t, svc)

	_, err := svc.Resolve(ctx, admin, rejected.ID, ResolveInput{To: domain.StatusRejected, ActionTaken: "sin pruebas"})
	require.NoError(t, err)
	_, err = svc.Resolve(ctx, admin, resolved.ID, ResolveInput{To: domain.StatusResolved, ActionTaken: "advertencia"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, admin, pending.ID), apperr.ErrReportNotDeletable)
	assert.ErrorIs(t, svc.Delete(ctx, admin, rejected.ID), apperr.ErrReportNotDeletable)
	assert.ErrorIs(t, svc.Delete(ctx, identity.Consumer("c-1"), resolved.ID), apperr.ErrUnauthorized)
	require.NoError(t, svc.Delete(ctx, admin, resolved.ID))
	assert.ErrorIs(t, svc.Delete(ctx, admin, resolved.ID), apperr.ErrNotFound)
}

func TestListAndGet(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	r := productReport(t, svc)
	_, err := svc.Create(ctx, identity.Producer("p-1"), domain.NewReport{TargetType: domain.TargetUser, TargetID: "c-1", Category: "abuso"})
	require.NoError(t, err)

	_, err = svc.List(ctx, identity.Consumer("c-1"), domain.ListFilter{})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	all, err := svc.List(ctx, admin, domain.ListFilter{Status: domain.StatusPending})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	users, err := svc.List(ctx, admin, domain.ListFilter{TargetType: domain.TargetUser})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "c-1", users[0].TargetID)

	_, err = svc.Get(ctx, identity.Consumer("c-1"), r.ID)
	assert.NoError(t, err)
	_, err = svc.Get(ctx, identity.Consumer("c-2"), r.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
