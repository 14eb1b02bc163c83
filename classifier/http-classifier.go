package classifier

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"taskify-project/microservices/tasks-service/logging"

	"github.com/avast/retry-go"
	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
)

type predictRequest struct {
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Deadline    string `json:"deadline"`
}

type predictResponse struct {
	Reminder string `json:"reminder"`
}

// HTTPClassifier asks a prediction service over HTTP. Transport errors and 5xx answers
// are retried; the whole exchange runs inside the circuit breaker.
type HTTPClassifier struct {
	client   *resty.Client
	breaker  *gobreaker.CircuitBreaker
	attempts uint
	delay    time.Duration
}

// NewHTTPClassifier builds a classifier for the service at baseURL. breaker may be nil.
func NewHTTPClassifier(baseURL string, timeout time.Duration, breaker *gobreaker.CircuitBreaker) *HTTPClassifier {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &HTTPClassifier{
		client:   client,
		breaker:  breaker,
		attempts: 3,
		delay:    500 * time.Millisecond,
	}
}

func (c *HTTPClassifier) Classify(ctx context.Context, description, priority string, deadline time.Time) (Cadence, error) {
	body := predictRequest{
		Description: description,
		Priority:    priority,
		Deadline:    deadline.Format(deadlineLayout),
	}

	var out predictResponse
	call := func() error {
		resp, err := c.client.R().
			SetContext(ctx).
			SetBody(body).
			SetResult(&out).
			Post("/predict")
		if err != nil {
			return err
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return fmt.Errorf("classifier responded with %s", resp.Status())
		}
		if resp.IsError() {
			return retry.Unrecoverable(fmt.Errorf("classifier rejected request: %s", resp.Status()))
		}
		return nil
	}

	exchange := func() (interface{}, error) {
		return nil, retry.Do(call,
			retry.Attempts(c.attempts),
			retry.Delay(c.delay),
			retry.Context(ctx),
			retry.LastErrorOnly(true),
			retry.OnRetry(func(n uint, err error) {
				logging.Logger.Warnf("Event ID: CLASSIFIER_RETRY, Description: Attempt %d failed: %v", n+1, err)
			}),
		)
	}

	var err error
	if c.breaker != nil {
		_, err = c.breaker.Execute(exchange)
	} else {
		_, err = exchange()
	}
	if err != nil {
		return "", fmt.Errorf("reminder prediction failed: %w", err)
	}
	return ParseCadence(out.Reminder)
}
