package mercadopago

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/rcarvalho-pb/payment_notifier-go/internal/domain/payment"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infra/logging"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infra/retry"
)

var (
	ErrNotFound       = errors.New("payment detail not available")
	ErrRateLimited    = errors.New("upstream rate limit")
	ErrEmptyPaymentID = errors.New("payment id is empty")
)

// StatusError is a non-200 upstream answer.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.Code, e.Body)
}

func (e *StatusError) Transient() bool {
	return e.Code >= 500
}

type Client struct {
	BaseURL      string
	AccessToken  string
	Timeout      time.Duration
	IdentityWait time.Duration
	Retry        retry.Policy
	Logger       logging.Logger

	HTTP *fasthttp.Client
}

func NewClient(baseURL, token string, timeout time.Duration, policy retry.Policy, logger logging.Logger) *Client {
	return &Client{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		AccessToken:  token,
		Timeout:      timeout,
		IdentityWait: 10 * time.Second,
		Retry:        policy,
		Logger:       logger,
		HTTP: &fasthttp.Client{
			Name:                "payment-notifier",
			MaxIdleConnDuration: time.Minute,
		},
	}
}

// FetchDetail reads one payment. 5xx and network failures are retried under
// the client's policy; any other non-200 answer ends the fetch at once.
// Every failure wraps ErrNotFound.
func (c *Client) FetchDetail(ctx context.Context, paymentID string) (*payment.Detail, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, ErrEmptyPaymentID)
	}

	endpoint := c.BaseURL + "/v1/payments/" + url.PathEscape(paymentID)

	var body []byte
	res := c.Retry.Run(ctx, func(ctx context.Context, attempt int) (retry.Verdict, error) {
		b, err := c.get(ctx, endpoint, c.Timeout)
		if err == nil {
			body = b
			return retry.Succeeded, nil
		}

		var se *StatusError
		if errors.As(err, &se) && !se.Transient() {
			c.Logger.Error("payment detail rejected", map[string]any{
				"payment-id": paymentID,
				"status":     se.Code,
				"body":       se.Body,
			})
			return retry.Permanent, err
		}

		c.Logger.Error("payment detail attempt failed", map[string]any{
			"payment-id": paymentID,
			"attempt":    attempt,
			"max":        c.Retry.MaxAttempts,
			"error":      err.Error(),
		})
		return retry.Transient, err
	})

	if !res.OK() {
		return nil, fmt.Errorf("%w: payment %s after %d attempt(s): %w", ErrNotFound, paymentID, res.Attempts, res.Err)
	}

	var detail payment.Detail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, fmt.Errorf("%w: decode payment %s: %w", ErrNotFound, paymentID, err)
	}
	detail.Raw = json.RawMessage(body)

	return &detail, nil
}

type SearchQuery struct {
	Begin  time.Time
	End    time.Time
	Status string
	Offset int
	Limit  int
}

type SearchResult struct {
	Results []SearchItem `json:"results"`
	Paging  Paging       `json:"paging"`
}

type SearchItem struct {
	ID     any    `json:"id"`
	Status string `json:"status"`
}

type Paging struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

const searchTimeLayout = "2006-01-02T15:04:05Z"

// Search lists payments created inside [q.Begin, q.End], newest first.
func (c *Client) Search(ctx context.Context, q SearchQuery) (SearchResult, error) {
	params := url.Values{}
	params.Set("sort", "date_created")
	params.Set("criteria", "desc")
	params.Set("range", "date_created")
	params.Set("begin_date", q.Begin.UTC().Format(searchTimeLayout))
	params.Set("end_date", q.End.UTC().Format(searchTimeLayout))
	if q.Status != "" {
		params.Set("status", q.Status)
	}
	if q.Offset > 0 {
		params.Set("offset", fmt.Sprint(q.Offset))
	}
	if q.Limit > 0 {
		params.Set("limit", fmt.Sprint(q.Limit))
	}

	body, err := c.get(ctx, c.BaseURL+"/v1/payments/search?"+params.Encode(), c.Timeout)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == fasthttp.StatusTooManyRequests {
			return SearchResult{}, fmt.Errorf("%w: %w", ErrRateLimited, err)
		}
		return SearchResult{}, err
	}

	var result SearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return SearchResult{}, fmt.Errorf("decode search: %w", err)
	}
	return result, nil
}

type userInfo struct {
	ID        any    `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// Me returns the identity of the account that owns the access token.
func (c *Client) Me(ctx context.Context) (payment.Identity, error) {
	body, err := c.get(ctx, c.BaseURL+"/users/me", c.IdentityWait)
	if err != nil {
		return payment.Identity{}, err
	}

	var u userInfo
	if err := json.Unmarshal(body, &u); err != nil {
		return payment.Identity{}, fmt.Errorf("decode user: %w", err)
	}

	owner := payment.Party{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName}
	return payment.Identity{
		ID:    owner.IDString(),
		Name:  owner.FullName(),
		Email: strings.ToLower(strings.TrimSpace(u.Email)),
	}, nil
}

func (c *Client) get(ctx context.Context, uri string, timeout time.Duration) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	req.Header.Set("Accept", "application/json")

	if err := c.HTTP.DoTimeout(req, resp, timeout); err != nil {
		return nil, err
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode(), Body: string(resp.Body())}
	}

	// resp is released on return
	return append([]byte(nil), resp.Body()...), nil
}
