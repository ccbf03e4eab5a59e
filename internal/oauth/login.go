package oauth

import "html/template"

// loginPage renders the admin login form. When the request arrived via
// the authorize endpoint the OAuth parameters ride along as hidden
// fields, so a single successful login doubles as the consent step.
var loginPage = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>flowgate</title>
<style>
  *, *::before, *::after { box-sizing: border-box; margin: 0; padding: 0; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
    background: #f5f5f5;
    color: #1a1a1a;
    display: flex;
    align-items: center;
    justify-content: center;
    min-height: 100vh;
  }
  .card {
    background: #fff;
    border: 1px solid #e0e0e0;
    border-radius: 8px;
    padding: 2.5rem 2rem;
    width: 100%;
    max-width: 380px;
    box-shadow: 0 1px 3px rgba(0,0,0,0.06);
  }
  .card h1 {
    font-size: 1.25rem;
    font-weight: 600;
    margin-bottom: 0.25rem;
  }
  .card p.sub {
    font-size: 0.85rem;
    color: #666;
    margin-bottom: 1.5rem;
  }
  .consent {
    background: #f8f9fa;
    border: 1px solid #e0e0e0;
    border-radius: 6px;
    padding: 0.6rem 0.75rem;
    font-size: 0.85rem;
    margin-bottom: 1rem;
  }
  .consent p { margin-bottom: 0.3rem; }
  .consent p:last-child { margin-bottom: 0; }
  .consent .redirect { color: #666; word-break: break-all; }
  .consent code { font-size: 0.8rem; }
  .error {
    background: #fef2f2;
    color: #991b1b;
    border: 1px solid #fecaca;
    border-radius: 6px;
    padding: 0.6rem 0.75rem;
    font-size: 0.85rem;
    margin-bottom: 1rem;
  }
  label {
    display: block;
    font-size: 0.85rem;
    font-weight: 500;
    margin-bottom: 0.35rem;
    color: #333;
  }
  input[type="text"], input[type="password"] {
    width: 100%;
    padding: 0.55rem 0.7rem;
    border: 1px solid #d0d0d0;
    border-radius: 6px;
    font-size: 0.9rem;
    outline: none;
    margin-bottom: 1rem;
  }
  input[type="text"]:focus, input[type="password"]:focus {
    border-color: #2563eb;
    box-shadow: 0 0 0 2px rgba(37,99,235,0.15);
  }
  button {
    width: 100%;
    padding: 0.6rem;
    background: #1a1a1a;
    color: #fff;
    border: none;
    border-radius: 6px;
    font-size: 0.9rem;
    font-weight: 500;
    cursor: pointer;
  }
  button:hover { background: #333; }
</style>
</head>
<body>
<div class="card">
  <h1>flowgate</h1>
  <p class="sub">Sign in to manage the gateway.</p>
  {{if .ClientID}}
  <div class="consent">
    <p><strong>{{.ClientID}}</strong> is requesting access.</p>
    {{if .RedirectURI}}<p class="redirect">You will be redirected to: <code>{{.RedirectURI}}</code></p>{{end}}
  </div>
  {{end}}
  {{if .Error}}<div class="error">{{.Error}}</div>{{end}}
  <form method="POST" action="/oauth/login">
    <input type="hidden" name="client_id" value="{{.ClientID}}">
    <input type="hidden" name="redirect_uri" value="{{.RedirectURI}}">
    <input type="hidden" name="state" value="{{.State}}">
    <input type="hidden" name="scope" value="{{.Scope}}">
    <input type="hidden" name="code_challenge" value="{{.CodeChallenge}}">
    <input type="hidden" name="code_challenge_method" value="{{.CodeChallengeMethod}}">
    <input type="hidden" name="host_id" value="{{.HostID}}">
    <label for="username">Username</label>
    <input type="text" id="username" name="username" autocomplete="username" required autofocus>
    <label for="password">Password</label>
    <input type="password" id="password" name="password" autocomplete="current-password" required>
    <button type="submit">Sign in</button>
  </form>
</div>
</body>
</html>`))

type loginData struct {
	ClientID            string
	RedirectURI         string
	State               string
	Scope               string
	CodeChallenge       string
	CodeChallengeMethod string
	HostID              string
	Error               string
}
