package gateway

import (
	"html/template"
	"net/http"
)

// consentPromptTemplate is the consent view shown when no decision exists
// for the (session, client) pair. The form posts back to the authorize
// endpoint with authorized=yes or authorized=no; the form action keeps the
// original query string so the resumed flow revalidates the same request.
const consentPromptTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Authorize Application</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif;
            background: #f5f6f8;
            display: flex;
            align-items: center;
            justify-content: center;
            min-height: 100vh;
            margin: 0;
        }
        .card {
            background: #fff;
            border-radius: 8px;
            box-shadow: 0 2px 12px rgba(0, 0, 0, 0.08);
            padding: 2rem;
            max-width: 420px;
            text-align: center;
        }
        h1 { font-size: 1.4rem; margin-bottom: 0.75rem; }
        .client { color: #2a6df4; font-weight: 600; }
        p { color: #555; line-height: 1.5; }
        .actions { margin-top: 1.5rem; display: flex; gap: 0.75rem; justify-content: center; }
        button {
            padding: 0.7rem 1.8rem;
            border: none;
            border-radius: 6px;
            font-size: 1rem;
            cursor: pointer;
        }
        .approve { background: #2a6df4; color: #fff; }
        .deny { background: #e5e7eb; color: #333; }
    </style>
</head>
<body>
    <div class="card">
        <h1>Authorization Request</h1>
        <p>The application <span class="client">{{.ClientID}}</span> is requesting access to your account.</p>
        <form method="POST" action="{{.Action}}">
            <div class="actions">
                <button class="approve" type="submit" name="authorized" value="yes">Approve</button>
                <button class="deny" type="submit" name="authorized" value="no">Deny</button>
            </div>
        </form>
    </div>
</body>
</html>`

// receiveCodeTemplate echoes the authorization code back to the resource
// owner. Display only; html/template escaping keeps the query value inert.
const receiveCodeTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Authorization Code</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif;
            background: #f5f6f8;
            display: flex;
            align-items: center;
            justify-content: center;
            min-height: 100vh;
            margin: 0;
        }
        .card {
            background: #fff;
            border-radius: 8px;
            box-shadow: 0 2px 12px rgba(0, 0, 0, 0.08);
            padding: 2rem;
            max-width: 480px;
            text-align: center;
        }
        code {
            display: block;
            margin-top: 1rem;
            padding: 0.75rem;
            background: #f0f1f3;
            border-radius: 6px;
            word-break: break-all;
        }
    </style>
</head>
<body>
    <div class="card">
        <h1>Authorization Code</h1>
        {{if .Code}}<p>Hand this code to the application:</p>
        <code>{{.Code}}</code>{{else}}<p>No authorization code was received.</p>{{end}}
    </div>
</body>
</html>`

var (
	consentPromptTmpl = template.Must(template.New("consent").Parse(consentPromptTemplate))
	receiveCodeTmpl   = template.Must(template.New("receive-code").Parse(receiveCodeTemplate))
)

// consentPromptData holds the template data for the consent prompt.
type consentPromptData struct {
	ClientID string
	Action   template.URL
}

// receiveCodeData holds the template data for the code display view.
type receiveCodeData struct {
	Code string
}

func renderConsentPrompt(w http.ResponseWriter, data consentPromptData) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	return consentPromptTmpl.Execute(w, data)
}

func renderReceiveCode(w http.ResponseWriter, data receiveCodeData) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	return receiveCodeTmpl.Execute(w, data)
}
