// Package remote serves account.Service from a hosted auth + rows API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jask/jaskprofile/internal/account"
	"github.com/jask/jaskprofile/internal/secrets"
)

const objectMediaType = "application/vnd.pgrst.object+json"

// Client implements account.Backend over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	tokens  account.TokenStore
	slot    string

	Now func() time.Time
}

var _ account.Backend = (*Client)(nil)

func NewClient(baseURL, apiKey string, tokens account.TokenStore) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", baseURL)
	}
	return &Client{
		baseURL: u.String(),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
		tokens:  tokens,
		slot:    "remote:" + u.Host,
		Now:     time.Now,
	}, nil
}

// Slot is the token store slot holding this backend's access token.
func (c *Client) Slot() string { return c.slot }

type apiError struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Details *string `json:"details"`
}

type userBody struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type tokenBody struct {
	AccessToken string   `json:"access_token"`
	ExpiresAt   int64    `json:"expires_at"`
	User        userBody `json:"user"`
}

type profileRow struct {
	UserID      string  `json:"user_id"`
	DisplayName *string `json:"display_name"`
}

// tokenClaims mirrors the claims issued by the server.
type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// CurrentSession reads the stored token. The signature is checked by the
// server on every call; here only expiry and subject are read.
func (c *Client) CurrentSession(ctx context.Context) (*account.Session, error) {
	token, err := c.tokens.Fetch(c.slot)
	if errors.Is(err, secrets.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, account.Wrap("session", err)
	}
	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil || claims.Subject == "" || claims.ExpiresAt == nil {
		slog.Info("dropping unreadable session token", "err", err)
		return nil, c.forget("session")
	}
	if !claims.ExpiresAt.After(c.Now()) {
		slog.Info("dropping expired session token", "expired_at", claims.ExpiresAt.Time)
		return nil, c.forget("session")
	}
	return &account.Session{
		UserID:      claims.Subject,
		Email:       claims.Email,
		AccessToken: token,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

func (c *Client) Profile(ctx context.Context, userID string) (account.Profile, error) {
	token, err := c.bearerToken("profile")
	if err != nil {
		return account.Profile{}, err
	}
	q := url.Values{}
	q.Set("select", "user_id,display_name")
	q.Set("user_id", "eq."+userID)
	var row profileRow
	err = c.do(ctx, "profile", http.MethodGet, "/rest/v1/profiles?"+q.Encode(), token, nil,
		map[string]string{"Accept": objectMediaType}, &row)
	if se, ok := account.AsServiceError(err); ok && se.Code == "PGRST116" {
		return account.Profile{}, account.ErrNotFound
	}
	if err != nil {
		return account.Profile{}, err
	}
	out := account.Profile{UserID: row.UserID}
	if row.DisplayName != nil {
		out.DisplayName = *row.DisplayName
	}
	return out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, userID string, upd account.ProfileUpdate) error {
	if upd.DisplayName == nil {
		return nil
	}
	token, err := c.bearerToken("update")
	if err != nil {
		return err
	}
	q := url.Values{}
	q.Set("user_id", "eq."+userID)
	body := map[string]string{"display_name": *upd.DisplayName}
	return c.do(ctx, "update", http.MethodPatch, "/rest/v1/profiles?"+q.Encode(), token, body, nil, nil)
}

// SignOut revokes the session server side and forgets the token. A token the
// server no longer accepts counts as signed out.
func (c *Client) SignOut(ctx context.Context) error {
	token, err := c.tokens.Fetch(c.slot)
	if errors.Is(err, secrets.ErrNotFound) {
		return nil
	}
	if err != nil {
		return account.Wrap("signout", err)
	}
	err = c.do(ctx, "signout", http.MethodPost, "/auth/v1/logout", token, nil, nil, nil)
	if se, ok := account.AsServiceError(err); ok && se.Status == http.StatusUnauthorized {
		err = nil
	}
	if err != nil {
		return err
	}
	return c.forget("signout")
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*account.Session, error) {
	var out tokenBody
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, "signin", http.MethodPost, "/auth/v1/token?grant_type=password", "", body, nil, &out); err != nil {
		return nil, err
	}
	if err := c.tokens.Store(c.slot, out.AccessToken); err != nil {
		return nil, account.Wrap("signin", err)
	}
	return &account.Session{
		UserID:      out.User.ID,
		Email:       out.User.Email,
		AccessToken: out.AccessToken,
		ExpiresAt:   time.Unix(out.ExpiresAt, 0),
	}, nil
}

// SignUp registers the user and signs them in.
func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (*account.Session, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     map[string]string{"display_name": displayName},
	}
	if err := c.do(ctx, "signup", http.MethodPost, "/auth/v1/signup", "", body, nil, nil); err != nil {
		return nil, err
	}
	return c.SignIn(ctx, email, password)
}

func (c *Client) bearerToken(op string) (string, error) {
	token, err := c.tokens.Fetch(c.slot)
	if errors.Is(err, secrets.ErrNotFound) {
		return "", &account.ServiceError{Op: op, Code: "no_authorization", Message: "not signed in", Err: err}
	}
	if err != nil {
		return "", account.Wrap(op, err)
	}
	return token, nil
}

func (c *Client) forget(op string) error {
	if err := c.tokens.Delete(c.slot); err != nil {
		return account.Wrap(op, err)
	}
	return nil
}

// do sends one JSON request. Non-2xx replies become *account.ServiceError
// carrying the server's code and message; out is decoded only on 2xx with a body.
func (c *Client) do(ctx context.Context, op, method, path, token string, in any, headers map[string]string, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return account.Wrap(op, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return account.Wrap(op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &account.ServiceError{Op: op, Message: "could not reach the account service", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr apiError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		msg := apiErr.Message
		if msg == "" {
			msg = fmt.Sprintf("http %d", resp.StatusCode)
		}
		return &account.ServiceError{
			Op:      op,
			Code:    apiErr.Code,
			Status:  resp.StatusCode,
			Message: msg,
			Err:     fmt.Errorf("%s %s: http %d", method, path, resp.StatusCode),
		}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return account.Wrap(op, fmt.Errorf("decode %s: %w", path, err))
	}
	return nil
}
