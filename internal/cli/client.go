package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"oilrush/internal/economy"
	"oilrush/internal/game"
	"oilrush/internal/supabase"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a non-2xx answer from the game API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

// IsUnauthorized reports whether the stored session should be discarded.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// CaseOpening mirrors game.CaseResult without the polymorphic payout, which
// the label already describes.
type CaseOpening struct {
	Reward struct {
		CaseID string             `json:"case_id"`
		Rarity economy.Rarity     `json:"rarity"`
		Kind   economy.RewardKind `json:"kind"`
		Label  string             `json:"label"`
		Roll   float64            `json:"roll"`
	} `json:"reward"`
	Price      int64            `json:"price"`
	MoneyDelta int64            `json:"money_delta"`
	Well       *economy.Well    `json:"well,omitempty"`
	Booster    *economy.Booster `json:"booster,omitempty"`
	Profile    economy.Profile  `json:"profile"`
}

func (c *Client) Signup(ctx context.Context, email, password, referralCode string) (supabase.Session, error) {
	var out supabase.Session
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/auth/signup", "", map[string]any{
		"email":         email,
		"password":      password,
		"referral_code": referralCode,
	}, &out, "")
	return out, err
}

func (c *Client) Login(ctx context.Context, email, password string) (supabase.Session, error) {
	var out supabase.Session
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	}, &out, "")
	return out, err
}

func (c *Client) Resume(ctx context.Context, accessToken string) (game.ResumeResult, error) {
	var out game.ResumeResult
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/session/resume", accessToken, nil, &out, "")
	return out, err
}

func (c *Client) Dashboard(ctx context.Context, accessToken string) (game.Dashboard, error) {
	var out game.Dashboard
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/dashboard", accessToken, nil, &out, "")
	return out, err
}

func (c *Client) Catalog(ctx context.Context) (economy.Catalog, error) {
	var out economy.Catalog
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/catalog", "", nil, &out, "")
	return out, err
}

func (c *Client) BuyWell(ctx context.Context, accessToken string, t economy.WellType, idem string) (game.WellResult, error) {
	var out game.WellResult
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/wells", accessToken, map[string]any{"type": t}, &out, idem)
	return out, err
}

func (c *Client) UpgradeWell(ctx context.Context, accessToken, wellID, idem string) (game.WellResult, error) {
	var out game.WellResult
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/wells/"+url.PathEscape(wellID)+"/upgrade", accessToken, nil, &out, idem)
	return out, err
}

func (c *Client) BuyBooster(ctx context.Context, accessToken string, t economy.BoosterType, idem string) (game.BoosterResult, error) {
	var out game.BoosterResult
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/boosters/"+url.PathEscape(string(t))+"/buy", accessToken, nil, &out, idem)
	return out, err
}

func (c *Client) CancelBooster(ctx context.Context, accessToken string, t economy.BoosterType, idem string) (game.BoosterResult, error) {
	var out game.BoosterResult
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/boosters/"+url.PathEscape(string(t))+"/cancel", accessToken, nil, &out, idem)
	return out, err
}

func (c *Client) OpenCase(ctx context.Context, accessToken, caseID, idem string) (CaseOpening, error) {
	var out CaseOpening
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/cases/"+url.PathEscape(caseID)+"/open", accessToken, nil, &out, idem)
	return out, err
}

func (c *Client) Exchange(ctx context.Context, amount float64, from, to economy.Currency) (game.ExchangeQuote, error) {
	q := url.Values{}
	q.Set("amount", strconv.FormatFloat(amount, 'f', -1, 64))
	q.Set("from", string(from))
	q.Set("to", string(to))
	var out game.ExchangeQuote
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/exchange?"+q.Encode(), "", nil, &out, "")
	return out, err
}

func (c *Client) Transactions(ctx context.Context, accessToken string, limit int) ([]economy.Transaction, error) {
	var out struct {
		Transactions []economy.Transaction `json:"transactions"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/transactions?limit="+strconv.Itoa(limit), accessToken, nil, &out, "")
	return out.Transactions, err
}

func (c *Client) jsonRequest(ctx context.Context, method, path, accessToken string, in any, out any, idem string) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	if idem != "" {
		req.Header.Set("Idempotency-Key", idem)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Message: apiMessage(raw)}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func apiMessage(raw []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(raw))
}
