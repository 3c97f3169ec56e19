package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	openai "github.com/sashabaranov/go-openai"
)

// upstreamStatus extracts the HTTP status and provider error code from a
// provider error, when the provider reported one.
func upstreamStatus(err error) (int, string) {
	var oaiAPI *openai.APIError
	if errors.As(err, &oaiAPI) {
		code := ""
		if oaiAPI.Code != nil {
			code = fmt.Sprint(oaiAPI.Code)
		}
		return oaiAPI.HTTPStatusCode, code
	}

	var oaiReq *openai.RequestError
	if errors.As(err, &oaiReq) {
		return oaiReq.HTTPStatusCode, ""
	}

	var antErr *anthropic.Error
	if errors.As(err, &antErr) {
		return antErr.StatusCode, ""
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode, ""
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return 0, "timeout"
	}
	return 0, ""
}
