package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/dekarrin/vsopc/server/dao"
	"github.com/dekarrin/vsopc/server/middle"
	"github.com/dekarrin/vsopc/server/result"
	"github.com/dekarrin/vsopc/server/serr"
)

// HTTPGetUser returns a HandlerFunc that gets an account along with the
// analysis runs it has submitted. Users may retrieve themselves; only an
// admin may retrieve another account. This is the whole of the user surface:
// vsopd accounts exist to authenticate and attribute analysis submissions,
// so there is no user create/update/delete API -- the initial admin is
// seeded at server start, and further accounts come from
// [backend.Service.CreateUser] via that same process.
//
// The handler has requirements for the request context it receives, and if the
// requirements are not met it may return an HTTP-500. The context must contain
// the ID of the user being retrieved and the logged-in user of the client
// making the request.
func (api API) HTTPGetUser() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epGetUser)
}

func (api API) epGetUser(req *http.Request) result.Result {
	id := requireIDParam(req)
	user := req.Context().Value(middle.AuthUser).(dao.User)

	if id != user.ID && user.Role != dao.Admin {
		return result.Forbidden("user '%s' (role %s) get user %s: forbidden", user.Username, user.Role, id)
	}

	userInfo, err := api.Backend.GetUser(req.Context(), id.String())
	if err != nil {
		if errors.Is(err, serr.ErrBadArgument) {
			return result.BadRequest(err.Error(), err.Error())
		} else if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError("could not get user: " + err.Error())
	}

	runs, err := api.Backend.ListAnalysesByUser(req.Context(), userInfo.ID)
	if err != nil {
		return result.InternalServerError("could not get user's analyses: " + err.Error())
	}

	resp := UserModel{
		URI:            PathPrefix + "/users/" + userInfo.ID.String(),
		ID:             userInfo.ID.String(),
		Username:       userInfo.Username,
		Role:           userInfo.Role.String(),
		Created:        userInfo.Created.Format(time.RFC3339),
		LastLogoutTime: userInfo.LastLogoutTime.Format(time.RFC3339),
		LastLoginTime:  userInfo.LastLoginTime.Format(time.RFC3339),
		Analyses:       make([]AnalysisModel, len(runs)),
	}
	if userInfo.Email != nil {
		resp.Email = userInfo.Email.Address
	}
	for i, run := range runs {
		resp.Analyses[i] = analysisToModel(run)
	}

	whoStr := "self"
	if id != user.ID {
		whoStr = "user '" + userInfo.Username + "'"
	}

	return result.OK(resp, "user '%s' successfully got %s (%d analyses)", user.Username, whoStr, len(runs))
}
