package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// StandardError response
type StandardError struct {
	Message string `json:"message"`
}

// ResponseJSON response http request with application/json
func ResponseJSON(data interface{}, status int, writer http.ResponseWriter) (err error) {
	d, err := json.Marshal(data)
	if err != nil {
		status = http.StatusInternalServerError
		d, _ = json.Marshal(StandardError{Message: "ResponseJSON: Failed to response " + err.Error()})
		err = fmt.Errorf("ResponseJSON: Failed to response : %s", err)
	}

	writer.Header().Set("Content-type", "application/json")
	writer.WriteHeader(status)
	writer.Write(d)
	return
}

// ResponseError response http request with standard error
func ResponseError(message string, status int, writer http.ResponseWriter) (err error) {
	return ResponseJSON(StandardError{Message: message}, status, writer)
}

// RetryCallback handles a retry attempt error.
type RetryCallback func(attempt, maxAttempts int, err error)

// HTTPStatusError represents a non-2xx HTTP response.
type HTTPStatusError struct {
	StatusCode int
}

func (err HTTPStatusError) Error() string {
	return fmt.Sprintf("non-success status: %d", err.StatusCode)
}

// PostJSONWithRetry sends a JSON POST request with retry support.
func PostJSONWithRetry(ctx context.Context, client *http.Client, url string, payload interface{}, maxRetries int, delay time.Duration, onRetry RetryCallback) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if client == nil {
		client = &http.Client{}
	}
	if maxRetries < 1 {
		maxRetries = 1
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
		if err != nil {
			return err
		}
		request.Header.Set("Content-Type", "application/json")

		response, err := client.Do(request)
		if err != nil {
			lastErr = err
		} else {
			response.Body.Close()
			if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
				lastErr = HTTPStatusError{StatusCode: response.StatusCode}
			} else {
				return nil
			}
		}

		if onRetry != nil {
			onRetry(attempt, maxRetries, lastErr)
		}
		if attempt < maxRetries && delay > 0 {
			if err := sleep(ctx, delay); err != nil {
				return err
			}
		}
	}

	return lastErr
}

// GetWithRetry downloads url, reading at most maxBytes. Transport errors and
// 5xx responses are retried; 4xx responses fail immediately.
func GetWithRetry(ctx context.Context, client *http.Client, url string, maxBytes int64, maxRetries int, delay time.Duration, onRetry RetryCallback) ([]byte, error) {
	if client == nil {
		client = &http.Client{}
	}
	if maxRetries < 1 {
		maxRetries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}

		body, retry, err := fetch(client, request, maxBytes)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry {
			return nil, lastErr
		}

		if onRetry != nil {
			onRetry(attempt, maxRetries, lastErr)
		}
		if attempt < maxRetries && delay > 0 {
			if err := sleep(ctx, delay); err != nil {
				return nil, err
			}
		}
	}

	return nil, lastErr
}

func fetch(client *http.Client, request *http.Request, maxBytes int64) ([]byte, bool, error) {
	response, err := client.Do(request)
	if err != nil {
		return nil, request.Context().Err() == nil, err
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return nil, response.StatusCode >= http.StatusInternalServerError, HTTPStatusError{StatusCode: response.StatusCode}
	}

	reader := io.Reader(response.Body)
	if maxBytes > 0 {
		reader = io.LimitReader(response.Body, maxBytes+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, true, err
	}
	if maxBytes > 0 && int64(len(body)) > maxBytes {
		return nil, false, fmt.Errorf("response larger than %d bytes", maxBytes)
	}
	return body, false, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// DecodeJSON decodes JSON with strict field checking.
func DecodeJSON(reader io.Reader, target interface{}) error {
	if target == nil {
		return nil
	}

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}
