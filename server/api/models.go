package api

// Note that these are *not* the DAO models; those are distinct and closer to
// the DB format they are stored in. These are the models sent to and
// received from API clients.

// InfoModel gives version and request-identity info about the running
// vsopd server, returned by GET /api/v1/info.
type InfoModel struct {
	Version struct {
		Server string `json:"server"`
		VSOPC  string `json:"vsopc"`
	} `json:"version"`
}

type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserModel is the representation of a submitting account returned by
// GET /api/v1/users/{id}: the account's own details plus every analysis run
// it has submitted. It is read-only; there is no request model for users
// because the API offers no user mutations.
type UserModel struct {
	URI            string          `json:"uri"`
	ID             string          `json:"id"`
	Username       string          `json:"username"`
	Email          string          `json:"email,omitempty"`
	Role           string          `json:"role"`
	Created        string          `json:"created"`
	LastLogoutTime string          `json:"last_logout"`
	LastLoginTime  string          `json:"last_login"`
	Analyses       []AnalysisModel `json:"analyses"`
}

// AnalysisSubmitRequest is the body of POST /api/v1/analyses: the VSOP
// source to run the four semantic-analysis passes over.
type AnalysisSubmitRequest struct {
	Source string `json:"source"`
}

// AnalysisModel is the representation of a completed analysis run returned
// to API clients: either the annotated pretty-print of the program on
// success, or the semantic error that stopped analysis (the analyzer aborts
// at the first one, so there is never more than one).
type AnalysisModel struct {
	URI         string `json:"uri"`
	ID          string `json:"id"`
	SubmittedAt string `json:"submitted_at"`
	OK          bool   `json:"ok"`
	Annotated   string `json:"annotated,omitempty"`
	Error       string `json:"error,omitempty"`
}
