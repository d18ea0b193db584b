package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/dekarrin/vsopc/internal/vsop/printer"
	"github.com/dekarrin/vsopc/server/dao"
	"github.com/dekarrin/vsopc/server/middle"
	"github.com/dekarrin/vsopc/server/result"
	"github.com/dekarrin/vsopc/server/serr"
)

// HTTPCreateAnalysis returns a HandlerFunc that runs the four-pass semantic
// analyzer over a submitted VSOP source program and records the outcome.
//
// The handler has requirements for the request context it receives, and if the
// requirements are not met it may return an HTTP-500. The context must
// contain the logged-in user of the client making the request.
func (api API) HTTPCreateAnalysis() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epCreateAnalysis)
}

func (api API) epCreateAnalysis(req *http.Request) result.Result {
	user := req.Context().Value(middle.AuthUser).(dao.User)

	var submitReq AnalysisSubmitRequest
	if err := parseJSON(req, &submitReq); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}
	if submitReq.Source == "" {
		return result.BadRequest("source: property is empty or missing from request", "empty source")
	}

	run, err := api.Backend.SubmitAnalysis(req.Context(), user.ID, submitReq.Source)
	if err != nil {
		if errors.Is(err, serr.ErrBadArgument) {
			return result.BadRequest(err.Error(), err.Error())
		}
		return result.InternalServerError(err.Error())
	}

	return result.Created(analysisToModel(run), "user '%s' submitted analysis %s (ok=%v)", user.Username, run.ID, run.OK)
}

// HTTPGetAnalysis returns a HandlerFunc that retrieves a single previously
// submitted analysis run by ID. Any logged-in user may retrieve any
// analysis; runs are not private to their submitter.
func (api API) HTTPGetAnalysis() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epGetAnalysis)
}

func (api API) epGetAnalysis(req *http.Request) result.Result {
	id := requireIDParam(req)

	run, err := api.Backend.GetAnalysis(req.Context(), id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}

	return result.OK(analysisToModel(run), "got analysis %s", run.ID)
}

// HTTPGetAllAnalyses returns a HandlerFunc that lists every analysis run
// recorded on the server.
func (api API) HTTPGetAllAnalyses() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epGetAllAnalyses)
}

func (api API) epGetAllAnalyses(req *http.Request) result.Result {
	runs, err := api.Backend.ListAnalyses(req.Context())
	if err != nil {
		return result.InternalServerError(err.Error())
	}

	models := make([]AnalysisModel, len(runs))
	for i, run := range runs {
		models[i] = analysisToModel(run)
	}

	return result.OK(models, "got all analyses")
}

// HTTPDeleteAnalysis returns a HandlerFunc that deletes an analysis run. Only
// the admin user may delete analyses submitted by others; any user may
// delete their own.
func (api API) HTTPDeleteAnalysis() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epDeleteAnalysis)
}

func (api API) epDeleteAnalysis(req *http.Request) result.Result {
	id := requireIDParam(req)
	user := req.Context().Value(middle.AuthUser).(dao.User)

	existing, err := api.Backend.GetAnalysis(req.Context(), id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}
	if existing.UserID != user.ID && user.Role != dao.Admin {
		return result.Forbidden("user '%s' (role %s) delete analysis %s: forbidden", user.Username, user.Role, id)
	}

	deleted, err := api.Backend.DeleteAnalysis(req.Context(), id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}

	return result.OK(analysisToModel(deleted), "user '%s' deleted analysis %s", user.Username, deleted.ID)
}

func analysisToModel(run dao.AnalysisRun) AnalysisModel {
	m := AnalysisModel{
		URI:         PathPrefix + "/analyses/" + run.ID.String(),
		ID:          run.ID.String(),
		SubmittedAt: run.SubmittedAt.Format(time.RFC3339),
		OK:          run.OK,
	}
	if run.OK {
		m.Annotated = printer.Print(run.Result.Program, true)
	} else if run.Err != nil {
		m.Error = run.Err.Error()
	}
	return m
}
