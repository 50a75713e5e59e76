package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	pkgerrors "github.com/angelmondragon/nutriscan-activation/pkg/errors"
	"github.com/angelmondragon/nutriscan-activation/pkg/logger"
)

// WriteSuccess writes a 200 body with success:true merged in.
func WriteSuccess(w http.ResponseWriter, body map[string]any) {
	WriteSuccessStatus(w, http.StatusOK, body)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, body map[string]any) {
	payload := make(map[string]any, len(body)+1)
	for k, v := range body {
		payload[k] = v
	}
	payload["success"] = true
	writeJSON(w, status, payload)
}

// WriteError maps err onto its HTTP status and writes {success:false, error, code}.
// Map details of client errors are merged into the top level of the body.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(typed.Code())

	msg := meta.PublicMessage
	switch typed.Code() {
	case pkgerrors.CodeValidation,
		pkgerrors.CodeNotFound,
		pkgerrors.CodeInvalidState:
		if m := typed.Message(); m != "" {
			msg = m
		}
	}

	payload := map[string]any{
		"success": false,
		"error":   msg,
		"code":    string(typed.Code()),
	}

	if meta.DetailsAllowed {
		switch details := typed.Details().(type) {
		case nil:
		case map[string]any:
			for k, v := range details {
				if _, reserved := payload[k]; !reserved {
					payload[k] = v
				}
			}
		default:
			payload["details"] = details
		}
	}

	if logg != nil {
		dump := pkgerrors.Dump(err)
		ctx = logg.WithFields(ctx, map[string]any{
			"error":       dump.Message,
			"error_code":  dump.Code,
			"error_chain": dump.Chain,
			"retryable":   dump.Retryable,
			"status":      meta.HTTPStatus,
		})
		if meta.HTTPStatus >= http.StatusInternalServerError {
			logg.Error(ctx, "request.error", err)
		} else {
			logg.Warn(ctx, "request.rejected")
		}
	}

	writeJSON(w, meta.HTTPStatus, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}
