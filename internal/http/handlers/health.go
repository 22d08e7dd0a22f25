package handlers

import "net/http"

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ClientConfig hands UI tuning values to the browser client. The shake
// thresholds are empirical knobs, served rather than hard-coded client-side
// so they can be adjusted without a redeploy of the front end.
func (a *App) ClientConfig(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"shake_velocity_px_per_sec": a.Config.ShakeVelocityPxPerSec,
		"shake_cooldown_ms":         a.Config.ShakeCooldown.Milliseconds(),
		"max_upload_dimension":      a.Config.MaxUploadDimension,
		"default_locale":            a.Config.DefaultLocale,
	})
}
