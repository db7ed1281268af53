package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"
)

const (
	toastSuccess = "success"
	toastError   = "error"

	// flashCookie carries the last toast across a full page load, where
	// HX-Trigger never reaches the client.
	flashCookie = "flash_toast"
)

// toastPayload is the detail of the client's showToast event.
type toastPayload struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// SetToast queues a toast for the client: as a showToast event in the
// HX-Trigger header, next to any events already set there, and as a short
// lived flash cookie.
func SetToast(e *core.RequestEvent, toastType string, message string) {
	toast := toastPayload{Message: message, Type: toastType}

	trigger, err := withToast(e.Response.Header().Get("HX-Trigger"), toast)
	if err != nil {
		zap.L().Error("toast: failed to marshal HX-Trigger JSON", zap.Error(err))
		return
	}
	e.Response.Header().Set("HX-Trigger", trigger)

	raw, err := json.Marshal(toast)
	if err != nil {
		return
	}
	http.SetCookie(e.Response, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(string(raw)),
		Path:     "/",
		MaxAge:   10,
		HttpOnly: false, // read by the toast script
		SameSite: http.SameSiteLaxMode,
	})
}

// withToast returns the HX-Trigger value with showToast set. An existing JSON
// object keeps its other events; a bare comma separated list of event names
// is turned into detail-less events.
func withToast(existing string, toast toastPayload) (string, error) {
	events := map[string]any{}
	existing = strings.TrimSpace(existing)
	switch {
	case existing == "":
	case strings.HasPrefix(existing, "{"):
		if err := json.Unmarshal([]byte(existing), &events); err != nil || events == nil {
			zap.L().Warn("toast: existing HX-Trigger is not valid JSON, overwriting",
				zap.String("hx_trigger", existing))
			events = map[string]any{}
		}
	default:
		for _, name := range strings.Split(existing, ",") {
			if name = strings.TrimSpace(name); name != "" {
				events[name] = nil
			}
		}
	}

	events["showToast"] = toast
	data, err := json.Marshal(events)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ErrorToast answers with statusCode and an error toast. HX-Reswap: none
// keeps HTMX from swapping the message text into the page.
func ErrorToast(e *core.RequestEvent, statusCode int, message string) error {
	SetToast(e, toastError, message)
	e.Response.Header().Set("HX-Reswap", "none")
	return e.String(statusCode, message)
}
