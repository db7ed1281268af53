package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"pcbquote/cam"
	"pcbquote/services"
)

const genericErrorMessage = "Something went wrong. Please try again."

// isHTMX reports whether the request was issued by an HTMX swap.
func isHTMX(e *core.RequestEvent) bool {
	return e.Request.Header.Get("HX-Request") == "true"
}

// classifyError maps a domain error onto a status code and a message that is
// safe to show the user.
func classifyError(err error) (int, string) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		fields := fieldErrors(verrs)
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s %s", k, fields[k]))
		}
		return http.StatusBadRequest, "Please check: " + strings.Join(parts, "; ")
	case errors.Is(err, cam.ErrArchiveTooLarge):
		return http.StatusRequestEntityTooLarge, "An archive entry is too large to analyze."
	case errors.Is(err, cam.ErrCorruptArchive):
		return http.StatusUnprocessableEntity, "The archive could not be read. Please upload a valid .zip file."
	case errors.Is(err, services.ErrAnalysisNotFound):
		return http.StatusNotFound, "This analysis no longer exists. Please upload the archive again."
	case errors.Is(err, services.ErrRuleNotFound):
		return http.StatusNotFound, "Price rule not found."
	case errors.Is(err, services.ErrRuleExists):
		return http.StatusConflict, "A price rule with this id already exists."
	default:
		return http.StatusInternalServerError, genericErrorMessage
	}
}

// fieldErrors flattens nested validation errors into dotted field paths.
func fieldErrors(errs validation.Errors) map[string]string {
	out := make(map[string]string, len(errs))
	var walk func(prefix string, errs validation.Errors)
	walk = func(prefix string, errs validation.Errors) {
		for field, err := range errs {
			key := field
			if prefix != "" {
				key = prefix + "." + field
			}
			var nested validation.Errors
			if errors.As(err, &nested) {
				walk(key, nested)
				continue
			}
			out[key] = err.Error()
		}
	}
	walk("", errs)
	return out
}

// respondError logs err under scope and answers with a toast for HTMX
// requests or a JSON error body otherwise.
func respondError(e *core.RequestEvent, scope string, err error) error {
	status, message := classifyError(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error(scope+": request failed", zap.Error(err))
	} else {
		zap.L().Debug(scope+": request rejected", zap.Int("status", status), zap.Error(err))
	}

	if isHTMX(e) {
		return ErrorToast(e, status, message)
	}

	body := map[string]any{"error": message}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		body["fields"] = fieldErrors(verrs)
	}
	return e.JSON(status, body)
}
