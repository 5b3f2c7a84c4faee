package server

import (
	"html/template"
	"net/http"

	"strava-dashboard/internal/auth"
)

var errorMessages = map[string]string{
	auth.ErrCodeNoCode:        "Strava did not send an authorization code.",
	auth.ErrCodeStateMismatch: "The login request expired or did not match. Please try again.",
	auth.ErrCodeExchange:      "Strava rejected the authorization. Please try again.",
	auth.ErrCodeStore:         "Your tokens could not be saved locally.",
	"access_denied":           "Access was denied. The dashboard needs activity read permission.",
}

var landingTmpl = template.Must(template.New("landing").Parse(`<!DOCTYPE html>
<html>
<head><title>Strava Dashboard</title></head>
<body style="font-family: system-ui; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0;">
<div style="text-align: center;">
<h1 style="color: #FC4C02;">Strava Dashboard</h1>
{{if .Error}}<p style="color: #EF4444;">{{.Error}}</p>{{end}}
<p><a href="/login" style="color: #FC4C02;">Connect with Strava</a></p>
</div>
</body>
</html>`))

// The fragment never reaches the server; the script moves it into
// localStorage and removes it from the address bar.
var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html>
<head><title>Authentication Successful</title></head>
<body style="font-family: system-ui; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0;">
<div style="text-align: center;">
<h1 style="color: #10B981;">Success!</h1>
<p>You can close this window and return to the terminal.</p>
</div>
<script>
(function () {
  var params = new URLSearchParams(window.location.hash.slice(1));
  var access = params.get("access_token");
  var refresh = params.get("refresh_token");
  if (access) { localStorage.setItem("strava_access_token", access); }
  if (refresh) { localStorage.setItem("strava_refresh_token", refresh); }
  if (window.location.hash) {
    history.replaceState(null, "", window.location.pathname + window.location.search);
  }
})();
</script>
</body>
</html>`))

func landingPage(w http.ResponseWriter, r *http.Request) {
	var data struct{ Error string }
	if code := r.URL.Query().Get("error"); code != "" {
		data.Error = errorMessages[code]
		if data.Error == "" {
			data.Error = "Authorization failed: " + code
		}
	}
	render(w, landingTmpl, data)
}

func dashboardPage(w http.ResponseWriter, r *http.Request) {
	render(w, dashboardTmpl, nil)
}

func render(w http.ResponseWriter, t *template.Template, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Referrer-Policy", "no-referrer")
	if err := t.Execute(w, data); err != nil {
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}
