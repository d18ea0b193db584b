package inmem

import (
	"context"
	"fmt"
	"time"

	"github.com/dekarrin/vsopc/internal/util"
	"github.com/dekarrin/vsopc/server/dao"
	"github.com/google/uuid"
)

func NewAnalysisRepository() *InMemoryAnalysisRepository {
	return &InMemoryAnalysisRepository{
		runs: make(map[uuid.UUID]dao.AnalysisRun),
	}
}

type InMemoryAnalysisRepository struct {
	runs map[uuid.UUID]dao.AnalysisRun
}

func (r *InMemoryAnalysisRepository) Close() error {
	return nil
}

func (r *InMemoryAnalysisRepository) Create(ctx context.Context, run dao.AnalysisRun) (dao.AnalysisRun, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.AnalysisRun{}, fmt.Errorf("could not generate ID: %w", err)
	}

	run.ID = newUUID
	run.SubmittedAt = time.Now()
	r.runs[run.ID] = run

	return run, nil
}

func (r *InMemoryAnalysisRepository) GetByID(ctx context.Context, id uuid.UUID) (dao.AnalysisRun, error) {
	run, ok := r.runs[id]
	if !ok {
		return dao.AnalysisRun{}, dao.ErrNotFound
	}

	return run, nil
}

func (r *InMemoryAnalysisRepository) GetAll(ctx context.Context) ([]dao.AnalysisRun, error) {
	all := make([]dao.AnalysisRun, 0, len(r.runs))

	for k := range r.runs {
		all = append(all, r.runs[k])
	}

	all = util.SortBy(all, func(l, rr dao.AnalysisRun) bool {
		return l.SubmittedAt.Before(rr.SubmittedAt)
	})

	return all, nil
}

func (r *InMemoryAnalysisRepository) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]dao.AnalysisRun, error) {
	all, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]dao.AnalysisRun, 0, len(all))
	for _, run := range all {
		if run.UserID == userID {
			filtered = append(filtered, run)
		}
	}

	return filtered, nil
}

func (r *InMemoryAnalysisRepository) Delete(ctx context.Context, id uuid.UUID) (dao.AnalysisRun, error) {
	run, ok := r.runs[id]
	if !ok {
		return dao.AnalysisRun{}, dao.ErrNotFound
	}

	delete(r.runs, id)

	return run, nil
}
