package llm

import (
	"context"
	"errors"
	"time"
)

// MaxCompletionRetries bounds retry attempts for retryable provider errors.
const MaxCompletionRetries = 4

// CompleteWithRetry calls client.Complete, retrying retryable classified
// errors with exponential backoff. Non-retryable errors return immediately.
func CompleteWithRetry(ctx context.Context, client Client, in CompletionRequest) (CompletionResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= MaxCompletionRetries; attempt++ {
		if attempt > 0 {
			var classified *Error
			if !errors.As(lastErr, &classified) || !classified.Type.Retryable() {
				return CompletionResponse{}, lastErr
			}
			select {
			case <-ctx.Done():
				return CompletionResponse{}, ctx.Err()
			case <-time.After(RetryDelay(classified.Type, attempt)):
			}
		}

		resp, err := client.Complete(ctx, in)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return CompletionResponse{}, lastErr
}
