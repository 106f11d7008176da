package generativeAI

import (
	"fmt"
	"net/http"

	"github.com/FACorreiaa/go-food-course-suggestions/internal/types"
)

// classifyStatus maps a non-2xx answer from an AI provider to a tagged error.
func classifyStatus(provider string, status int, detail string) *types.AppError {
	cause := fmt.Errorf("%s returned status %d: %s", provider, status, truncate(detail, 200))
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return types.NewAppError(types.ErrKindUpstreamAuth, types.CodeAIAuthFailed,
			"AI service rejected the credentials", cause)
	case http.StatusTooManyRequests:
		return types.NewAppError(types.ErrKindUpstreamAuth, types.CodeAIQuotaExceeded,
			"AI service quota exceeded", cause)
	default:
		return types.NewAppError(types.ErrKindUpstreamUnavailable, types.CodeAIRequestFailed,
			"AI service request failed", cause)
	}
}

func connectionFailed(err error) *types.AppError {
	return types.NewAppError(types.ErrKindUpstreamUnavailable, types.CodeAIConnectionFailed,
		"could not reach the AI service", err)
}

func emptyAnswer(provider string) *types.AppError {
	return types.NewAppError(types.ErrKindAIResponseInvalid, types.CodeAIResponseInvalid,
		"AI service returned no content", fmt.Errorf("%s answer had no text", provider))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
