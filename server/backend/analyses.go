package backend

import (
	"context"
	"errors"

	"github.com/dekarrin/vsopc/internal/vsop/fixture"
	"github.com/dekarrin/vsopc/internal/vsop/sema"
	"github.com/dekarrin/vsopc/server/dao"
	"github.com/dekarrin/vsopc/server/serr"
	"github.com/google/uuid"
)

// SubmitAnalysis parses source as a VSOP program, runs the four-pass
// semantic analyzer over it, and persists the outcome -- success or
// failure -- as a new AnalysisRun owned by who. A source program that fails
// to parse or type-check is not an error from this function's point of
// view; it is a normal result, recorded with OK false and Err set.
func (svc Service) SubmitAnalysis(ctx context.Context, who uuid.UUID, source string) (dao.AnalysisRun, error) {
	prog, err := fixture.Parse("<submitted>", source)
	if err != nil {
		return dao.AnalysisRun{}, serr.New("malformed source", err, serr.ErrBadArgument)
	}

	run := dao.AnalysisRun{
		UserID: who,
		Source: source,
	}

	res, semaErr := sema.Analyze(prog)
	if semaErr != nil {
		se, ok := semaErr.(*sema.Error)
		if !ok {
			return dao.AnalysisRun{}, serr.New("analysis failed", semaErr)
		}
		run.OK = false
		run.Err = se
	} else {
		run.OK = true
		run.Result = res
	}

	created, err := svc.DB.Analyses().Create(ctx, run)
	if err != nil {
		return dao.AnalysisRun{}, serr.WrapDB("could not save analysis run", err)
	}
	return created, nil
}

// GetAnalysis retrieves a single analysis run by ID.
func (svc Service) GetAnalysis(ctx context.Context, id uuid.UUID) (dao.AnalysisRun, error) {
	run, err := svc.DB.Analyses().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.AnalysisRun{}, serr.ErrNotFound
		}
		return dao.AnalysisRun{}, serr.WrapDB("could not retrieve analysis", err)
	}
	return run, nil
}

// ListAnalyses retrieves every analysis run recorded on the server, ordered
// by submission time.
func (svc Service) ListAnalyses(ctx context.Context) ([]dao.AnalysisRun, error) {
	all, err := svc.DB.Analyses().GetAll(ctx)
	if err != nil {
		return nil, serr.WrapDB("could not retrieve analyses", err)
	}
	return all, nil
}

// ListAnalysesByUser retrieves the analysis runs submitted by a single user,
// ordered by submission time.
func (svc Service) ListAnalysesByUser(ctx context.Context, who uuid.UUID) ([]dao.AnalysisRun, error) {
	mine, err := svc.DB.Analyses().GetAllByUser(ctx, who)
	if err != nil {
		return nil, serr.WrapDB("could not retrieve analyses", err)
	}
	return mine, nil
}

// DeleteAnalysis removes an analysis run, returning the run as it existed
// immediately before deletion.
func (svc Service) DeleteAnalysis(ctx context.Context, id uuid.UUID) (dao.AnalysisRun, error) {
	deleted, err := svc.DB.Analyses().Delete(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.AnalysisRun{}, serr.ErrNotFound
		}
		return dao.AnalysisRun{}, serr.WrapDB("could not delete analysis", err)
	}
	return deleted, nil
}
