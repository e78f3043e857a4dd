package protocol

import (
	"encoding/json"
	"net/http"
)

// ProblemMediaType is the media type for problem-detail responses (RFC 7807).
const ProblemMediaType = "application/problem+json"

// defaultProblemType is used when the response carries no error_uri.
const defaultProblemType = "about:blank"

// Problem is a structured problem-detail payload, the alternative to raw
// OAuth2-spec error bodies. Callers opt into it per-deployment.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title,omitempty"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// ToProblem extracts the error, error_description and error_uri fields from
// an engine response (each optional) and its status code into a Problem.
func ToProblem(resp *Response) Problem {
	p := Problem{
		Type:   defaultProblemType,
		Title:  resp.Parameter(ParamError),
		Status: resp.StatusCode,
		Detail: resp.Parameter(ParamErrorDescription),
	}
	if uri := resp.Parameter(ParamErrorURI); uri != "" {
		p.Type = uri
	}
	if p.Status == 0 {
		p.Status = http.StatusInternalServerError
	}
	return p
}

// WriteProblem writes a problem-detail payload with its own status code.
func WriteProblem(w http.ResponseWriter, p Problem) {
	w.Header().Set("Content-Type", ProblemMediaType)
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}
