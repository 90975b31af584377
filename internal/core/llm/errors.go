package llm

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/aws/smithy-go"

	"github.com/Somers1/logsheet/internal/core/apperrors"
)

var (
	retryableCodes = map[string]bool{
		"ThrottlingException":         true,
		"TooManyRequestsException":    true,
		"ServiceUnavailableException": true,
		"InternalServerException":     true,
		"ModelTimeoutException":       true,
		"ModelNotReadyException":      true,
		"RequestTimeout":              true,
	}
	fatalCodes = map[string]bool{
		"AccessDeniedException":         true,
		"UnrecognizedClientException":   true,
		"ExpiredTokenException":         true,
		"ValidationException":           true,
		"ResourceNotFoundException":     true,
		"ModelErrorException":           true,
		"ServiceQuotaExceededException": true,
	}
	// status fragments surfaced by the HTTP based backends
	fatalStatus = []string{"status code: 400", "status code: 401", "status code: 403", "status code: 404", "invalid_api_key", "model not found"}
)

// classify wraps a provider failure as a retryable or fatal gateway error.
// Timeouts, throttling, 5xx and network failures are retryable; credential,
// permission and request validation failures are fatal. Anything unrecognised
// is treated as retryable.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if apperrors.IsGateway(err) {
		return err
	}

	if errors.Is(err, context.Canceled) {
		return apperrors.Fatal(op, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Retryable(op, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		switch {
		case retryableCodes[code]:
			return apperrors.Retryable(op, err)
		case fatalCodes[code]:
			return apperrors.Fatal(op, err)
		case apiErr.ErrorFault() == smithy.FaultServer:
			return apperrors.Retryable(op, err)
		case apiErr.ErrorFault() == smithy.FaultClient:
			return apperrors.Fatal(op, err)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return apperrors.Retryable(op, err)
	}

	msg := strings.ToLower(err.Error())
	for _, s := range fatalStatus {
		if strings.Contains(msg, s) {
			return apperrors.Fatal(op, err)
		}
	}
	return apperrors.Retryable(op, err)
}
