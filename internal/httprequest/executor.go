// Package httprequest sends HTTP requests to remote JSON APIs and classifies
// their failures.
package httprequest

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/simplesurance/mrspy/internal/logfields"
	"github.com/simplesurance/mrspy/internal/metrics"
	"github.com/simplesurance/mrspy/internal/spyerr"
)

// DefaultTimeout is the default timeout for a single request.
const DefaultTimeout = 5 * time.Second

const loggerName = "http_executor"

// APIResponse can be implemented by response types of APIs that report
// logical failures in successful responses.
type APIResponse interface {
	// APIError returns an error if the response reports a failure.
	APIError() error
}

// Validator can be implemented by response types to reject bodies that are
// valid JSON but do not contain the expected data.
type Validator interface {
	Validate() error
}

var errNullBody = errors.New("response body is null")

// Executor sends requests and decodes JSON responses.
// Requests are not retried.
type Executor struct {
	clt     *http.Client
	service string
	logger  *zap.Logger
}

// NewExecutor returns an Executor for requests to the API of service.
// If timeout is <=0, DefaultTimeout is used.
func NewExecutor(service string, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Executor{
		clt:     &http.Client{Timeout: timeout},
		service: service,
		logger:  zap.L().Named(loggerName).With(zap.String("service", service)),
	}
}

// DoJSON sends req and decodes the JSON response body into result.
//
// If the request could not be sent or the body could not be read, a
// spyerr.TransportError is returned.
// If the response status code is not 2xx, the body can not be decoded, is
// null or result implements Validator and rejects it, a
// spyerr.InvalidResponseError is returned.
// If result implements APIResponse and reports an error, the error is
// returned.
// endpoint is only used as metric label.
func (e *Executor) DoJSON(req *http.Request, endpoint string, result any) error {
	err := e.doJSON(req, result)
	metrics.RemoteRequestInc(e.service, endpoint, resultLabel(err))

	return err
}

func (e *Executor) doJSON(req *http.Request, result any) error {
	url := req.URL.Redacted()
	logger := e.logger.With(
		logfields.URL(url),
		zap.String("http_method", req.Method),
	)

	resp, err := e.clt.Do(req)
	if err != nil {
		return spyerr.NewTransportError(url, err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return spyerr.NewTransportError(url, err)
	}

	logger = logger.With(logfields.HTTPStatus(resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Debug(
			"http request failed",
			logfields.Event("http_request_failed"),
			zap.ByteString("http_response_body", body),
		)

		return &spyerr.InvalidResponseError{
			URL:    url,
			Status: resp.StatusCode,
			Body:   body,
		}
	}

	if err := decode(body, result); err != nil {
		logger.Debug(
			"decoding http response failed",
			logfields.Event("http_response_invalid"),
			zap.ByteString("http_response_body", body),
			zap.Error(err),
		)

		return &spyerr.InvalidResponseError{
			URL:    url,
			Status: resp.StatusCode,
			Body:   body,
			Err:    err,
		}
	}

	logger.Debug("http request succeeded", logfields.Event("http_request_succeeded"))

	if apiResp, ok := result.(APIResponse); ok {
		return apiResp.APIError()
	}

	return nil
}

func decode(body []byte, result any) error {
	if bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		return errNullBody
	}

	if err := json.Unmarshal(body, result); err != nil {
		return err
	}

	if v, ok := result.(Validator); ok {
		return v.Validate()
	}

	return nil
}

func resultLabel(err error) metrics.ResultLabelVal {
	if err == nil {
		return metrics.ResultSuccess
	}

	var transportErr *spyerr.TransportError
	if errors.As(err, &transportErr) {
		return metrics.ResultTransportError
	}

	var invalidRespErr *spyerr.InvalidResponseError
	if errors.As(err, &invalidRespErr) {
		return metrics.ResultInvalidResponse
	}

	var apiErr *spyerr.RemoteAPIError
	if errors.As(err, &apiErr) {
		return metrics.ResultAPIError
	}

	return metrics.ResultFailure
}
