// Package rollbase talks to the Rollbase REST API: session login, select
// queries, and create2/update2 record writes.
package rollbase

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"resty.dev/v3"

	"wompi_webhook/internal/normalize"
)

// DefaultBaseURL is the public Rollbase REST endpoint.
const DefaultBaseURL = "https://www.impeltechnology.com/rest/api"

// DefaultTimeout bounds every HTTP call to the store.
const DefaultTimeout = 15 * time.Second

// Config holds connection settings for the record store.
type Config struct {
	BaseURL   string
	LoginName string
	Password  string
	TokenTTL  time.Duration
	Timeout   time.Duration
}

// Client executes queries and writes against the record store. It owns the
// session token cache.
type Client struct {
	http      *resty.Client
	tokens    *TokenCache
	logger    *zap.Logger
	loginName string
	password  string
}

// NewClient creates a Client whose token cache logs in with cfg's credentials.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		http:      resty.New().SetBaseURL(baseURL).SetTimeout(timeout),
		logger:    logger,
		loginName: cfg.LoginName,
		password:  cfg.Password,
	}
	c.tokens = NewTokenCache(c, cfg.TokenTTL)
	return c
}

// Tokens exposes the session token cache.
func (c *Client) Tokens() *TokenCache { return c.tokens }

// Close releases idle connections held by the HTTP client.
func (c *Client) Close() error { return c.http.Close() }

// Login authenticates against the store and returns a new session id. It is
// the TokenProvider used by the client's own cache.
func (c *Client) Login(ctx context.Context) (string, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"loginName": c.loginName,
			"password":  c.password,
			"output":    "json",
		}).
		Post("/login")
	if err != nil {
		return "", &Error{Kind: KindTransport, Op: "login", Err: err}
	}
	if res.IsError() {
		return "", &Error{Kind: KindTransport, Op: "login", Status: res.StatusCode()}
	}

	var body struct {
		SessionID string `json:"sessionId"`
	}
	if err := decodeJSON(res.Bytes(), &body); err != nil {
		return "", err
	}
	if strings.TrimSpace(body.SessionID) == "" {
		return "", ErrAuthFailure
	}
	c.logger.Debug("rollbase session acquired")
	return body.SessionID, nil
}

// Query runs a read-only select. The caller must have escaped every literal
// in sql with normalize.EscapeForQuery.
func (c *Client) Query(ctx context.Context, sql string, maxRows int) (Rows, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	if maxRows <= 0 {
		maxRows = 100
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"sessionId": token,
			"query":     sql,
			"maxRows":   strconv.Itoa(maxRows),
			"output":    "json",
		}).
		Post("/selectQuery")
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: "selectQuery", Err: err}
	}
	if res.IsError() {
		return nil, &Error{Kind: KindQuery, Op: "selectQuery", Status: res.StatusCode(), Message: res.String()}
	}

	body := res.Bytes()
	if st, ok := parseStatus(body); ok && st.failed() {
		c.dropSessionOn(st.Message)
		msg := st.Message
		if msg == "" {
			msg = "query rejected"
		}
		return nil, &Error{Kind: KindQuery, Op: "selectQuery", Message: msg}
	}

	rows, err := decodeRows(body)
	if err != nil {
		return nil, &Error{Kind: KindQuery, Op: "selectQuery", Err: err}
	}
	return rows, nil
}

// Create inserts a record of objName and returns its id. Fields that are
// empty once cleaned are not sent.
func (c *Client) Create(ctx context.Context, objName string, fields map[string]any) (string, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", err
	}

	params := cleanFields(fields)
	params["objName"] = objName
	params["sessionId"] = token
	params["output"] = "json"

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get("/create2")
	if err != nil {
		return "", &Error{Kind: KindTransport, Op: "create2", Err: err}
	}
	if res.IsError() {
		return "", &Error{Kind: KindCreate, Op: "create2 " + objName, Status: res.StatusCode(), Message: res.String()}
	}

	body := res.Bytes()
	if st, ok := parseStatus(body); ok && st.failed() {
		c.dropSessionOn(st.Message)
		return "", &Error{Kind: KindCreate, Op: "create2 " + objName, Message: st.Message}
	}
	id := createdID(body)
	if id == "" {
		return "", &Error{Kind: KindCreate, Op: "create2 " + objName, Message: "no id in response"}
	}
	return id, nil
}

// Update writes fields onto record id of objName. Values that clean to null
// ("", "null", "undefined") are dropped so absence markers never reach the
// store.
func (c *Client) Update(ctx context.Context, objName, id string, fields map[string]any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	params := cleanFields(fields)
	params["objName"] = objName
	params["sessionId"] = token
	params["id"] = id
	params["output"] = "json"

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get("/update2")
	if err != nil {
		return &Error{Kind: KindTransport, Op: "update2", Err: err}
	}
	if res.IsError() {
		return &Error{Kind: KindUpdate, Op: "update2 " + objName, Status: res.StatusCode(), Message: res.String()}
	}

	st, ok := parseStatus(res.Bytes())
	if ok && st.failed() {
		c.dropSessionOn(st.Message)
		return &Error{Kind: KindUpdate, Op: "update2 " + objName, Message: st.Message}
	}
	if st.Msg != "" {
		c.logger.Debug("rollbase update acknowledged", zap.String("object", objName), zap.String("msg", st.Msg))
	}
	return nil
}

// dropSessionOn invalidates the cached token when the store complains about
// the session, so the next call logs in again.
func (c *Client) dropSessionOn(message string) {
	if strings.Contains(strings.ToLower(message), "session") {
		c.logger.Warn("rollbase rejected session, invalidating token", zap.String("message", message))
		c.tokens.Invalidate()
	}
}

func cleanFields(fields map[string]any) map[string]string {
	out := make(map[string]string, len(fields)+4)
	for k, v := range fields {
		if s, ok := normalize.CleanOrNull(v); ok {
			out[k] = s
		}
	}
	return out
}
