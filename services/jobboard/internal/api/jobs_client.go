package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"campusjobs/common/telemetry"
	"campusjobs/services/jobboard/internal/config"
	"campusjobs/services/jobboard/internal/errors"
	"campusjobs/services/jobboard/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var tracer = telemetry.GetTracer("campusjobs/jobboard/api")

const defaultRequestTimeout = 15 * time.Second

// JobsClient makes single attempts against the jobs backend. Every call is
// bounded by the configured request timeout and returns a DomainError typed
// TIMEOUT, API or NETWORK on failure.
type JobsClient interface {
	ListJobs(ctx context.Context, params url.Values) (*models.JobsPage, error)
	GetJob(ctx context.Context, id models.JobID) (*models.JobRecord, error)
	BatchAction(ctx context.Context, action models.BatchAction, ids []models.JobID) error
}

type jobsClient struct {
	client  *http.Client
	logger  *zap.Logger
	baseURL string
	timeout time.Duration
	limiter *rate.Limiter
}

func NewJobsClient(logger *zap.Logger, config *config.Config) JobsClient {
	return newJobsClient(logger, config, &http.Client{})
}

func newJobsClient(logger *zap.Logger, config *config.Config, httpClient *http.Client) *jobsClient {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if config.RateLimitPerSecond > 0 {
		burst := config.RateLimitBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.RateLimitPerSecond), burst)
	}

	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return &jobsClient{
		client:  httpClient,
		logger:  logger,
		baseURL: strings.TrimRight(strings.TrimSpace(config.APIBaseURL), "/"),
		timeout: timeout,
		limiter: limiter,
	}
}

func (c *jobsClient) ListJobs(ctx context.Context, params url.Values) (*models.JobsPage, error) {
	ctx, span := tracer.Start(ctx, "ListJobs")
	defer span.End()

	endpoint := c.baseURL + "/api/jobs"
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}
	span.SetAttributes(telemetry.String("http.url", endpoint))

	var page models.JobsPage
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(
		telemetry.Int("jobs.count", len(page.Jobs)),
		telemetry.Int("jobs.total", page.Total),
	)

	c.logger.Debug("fetched job list",
		zap.Int("count", len(page.Jobs)),
		zap.Int("total", page.Total))
	return &page, nil
}

func (c *jobsClient) GetJob(ctx context.Context, id models.JobID) (*models.JobRecord, error) {
	ctx, span := tracer.Start(ctx, "GetJob")
	defer span.End()
	span.SetAttributes(telemetry.String("job.id", string(id)))

	endpoint := c.baseURL + "/api/jobs/" + url.PathEscape(string(id))

	var job models.JobRecord
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &job); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return &job, nil
}

func (c *jobsClient) BatchAction(ctx context.Context, action models.BatchAction, ids []models.JobID) error {
	ctx, span := tracer.Start(ctx, "BatchAction")
	defer span.End()
	span.SetAttributes(
		telemetry.String("batch.action", string(action)),
		telemetry.Int("batch.size", len(ids)),
	)

	body, err := json.Marshal(models.BatchRequest{JobIDs: ids})
	if err != nil {
		return errors.Internal("encoding batch request", err)
	}

	if err := c.do(ctx, http.MethodPost, c.baseURL+action.Path(), body, nil); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

type errorResponse struct {
	Message string `json:"message"`
}

// do performs one request. A nil out skips decoding the success body.
func (c *jobsClient) do(ctx context.Context, method, endpoint string, body []byte, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Network("rate limiter", err)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, endpoint, reader)
	if err != nil {
		return errors.Internal("creating request", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.client.Do(req)
	if err != nil {
		return c.transportError(ctx, attemptCtx, method, endpoint, requestID, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("failed to close response body", zap.Error(cerr))
		}
	}()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.transportError(ctx, attemptCtx, method, endpoint, requestID, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		message := errorMessage(resp.StatusCode, payload)
		c.logger.Warn("backend returned error status",
			zap.String("method", method),
			zap.String("url", endpoint),
			zap.String("request_id", requestID),
			zap.Int("status_code", resp.StatusCode),
			zap.String("message", message))
		return errors.API(resp.StatusCode, message, nil)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		c.logger.Error("failed to decode response",
			zap.String("url", endpoint),
			zap.String("request_id", requestID),
			zap.Error(err))
		return errors.API(resp.StatusCode, "malformed response from backend", err)
	}
	return nil
}

// transportError separates the per-attempt deadline from other failures. A
// cancelled parent context is passed through unchanged.
func (c *jobsClient) transportError(parent, attemptCtx context.Context, method, endpoint, requestID string, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if stderrors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		c.logger.Warn("request timed out",
			zap.String("method", method),
			zap.String("url", endpoint),
			zap.String("request_id", requestID),
			zap.Duration("timeout", c.timeout))
		return errors.Timeout(err)
	}
	c.logger.Error("failed to execute request",
		zap.String("method", method),
		zap.String("url", endpoint),
		zap.String("request_id", requestID),
		zap.Error(err))
	return errors.Network(fmt.Sprintf("network error: %v", unwrapURLError(err)), err)
}

// errorMessage prefers the backend's {"message": ...}, else "HTTP <code>: <reason>".
func errorMessage(statusCode int, payload []byte) string {
	var parsed errorResponse
	if err := json.Unmarshal(payload, &parsed); err == nil && strings.TrimSpace(parsed.Message) != "" {
		return parsed.Message
	}
	return fmt.Sprintf("HTTP %d: %s", statusCode, http.StatusText(statusCode))
}

func unwrapURLError(err error) error {
	var urlErr *url.Error
	if stderrors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
