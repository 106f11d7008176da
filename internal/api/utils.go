package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"

	"github.com/FACorreiaa/go-food-course-suggestions/internal/types"
)

// maxRequestBody caps decoded request bodies at 1MB.
const maxRequestBody = 1 << 20

// retryAfterSeconds is advertised when an upstream dependency failed.
const retryAfterSeconds = "30"

type errorBody struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse writes a JSON error with the given status and message.
func ErrorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	WriteJSONResponse(w, r, status, errorBody{
		Error:     message,
		Code:      statusCode(status),
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// WriteError writes err as a JSON error response. Tagged errors keep their
// code and the status of their kind, and upstream failures are marked
// retryable. Anything else is reported as a server error without leaking its
// message.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := types.AsAppError(err)
	if !ok {
		appErr = types.NewInternalError("internal server error", err)
	}
	message := appErr.Message
	if appErr.Kind == types.ErrKindInternal {
		message = "internal server error"
	}
	retryable := appErr.Kind.IsExternal()
	if retryable {
		w.Header().Set("Retry-After", retryAfterSeconds)
	}
	WriteJSONResponse(w, r, appErr.Kind.HTTPStatus(), errorBody{
		Error:     message,
		Code:      appErr.Code,
		Retryable: retryable,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

func statusCode(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case status >= http.StatusInternalServerError:
		return types.CodeServerError
	case status >= http.StatusBadRequest:
		return types.CodeBadRequest
	default:
		return ""
	}
}

// WriteJSONResponse encodes data as the JSON body of a response with the given status.
func WriteJSONResponse(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}

	js, err := json.Marshal(data)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to marshal JSON response",
			slog.Any("error", err),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(js); err != nil {
		// status is already on the wire
		slog.ErrorContext(r.Context(), "Failed to write response body",
			slog.Any("error", err),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	}
}

// DecodeJSONBody decodes exactly one JSON value from the request body into dst,
// rejecting unknown fields and bodies over 1MB.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return describeDecodeError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}
	return nil
}

func describeDecodeError(err error) error {
	var (
		syntaxErr    *json.SyntaxError
		typeErr      *json.UnmarshalTypeError
		maxBytesErr  *http.MaxBytesError
		invalidUnmrs *json.InvalidUnmarshalError
	)

	switch {
	case errors.As(err, &syntaxErr):
		return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxErr.Offset)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return errors.New("body contains badly-formed JSON")
	case errors.As(err, &typeErr):
		if typeErr.Field != "" {
			return fmt.Errorf("body contains incorrect JSON type for field %q (wanted %s)", typeErr.Field, typeErr.Type)
		}
		return fmt.Errorf("body contains incorrect JSON type (at character %d)", typeErr.Offset)
	case errors.Is(err, io.EOF):
		return errors.New("body must not be empty")
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		name := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return fmt.Errorf("body contains unknown key %q", name)
	case errors.As(err, &maxBytesErr):
		return fmt.Errorf("body must not be larger than %d bytes", maxBytesErr.Limit)
	case errors.As(err, &invalidUnmrs):
		panic(fmt.Errorf("developer error: invalid argument passed to json.Unmarshal: %w", err))
	default:
		return fmt.Errorf("error decoding JSON body: %w", err)
	}
}

// VerifyAudience reports whether expected is one of the token audiences.
// An empty expectation accepts any token.
func VerifyAudience(claimsAudience jwt.ClaimStrings, expected string) bool {
	if expected == "" {
		return true
	}
	return slices.Contains(claimsAudience, expected)
}
