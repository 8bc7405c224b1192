package application

import (
	"context"

	"github.com/dmehra2102/agro-marketplace/internal/checkout/domain"
)

// racingCommitter runs before() between validation and commit to simulate a
// concurrent writer.
type racingCommitter struct {
	inner  Committer
	before func()
}

func (r *racingCommitter) Commit(ctx context.Context, p domain.Placement) error {
	r.before()
	return r.inner.Commit(ctx, p)
}
