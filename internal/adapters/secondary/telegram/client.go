package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	defaultAPIBaseURL = "https://api.telegram.org"
	apiTimeout        = 10 * time.Second
	maxBodyPreview    = 200
)

// Client клиент для работы с Telegram Bot API
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        *slog.Logger
}

// NewClient создаёт клиент с настройками по умолчанию
func NewClient(token string, log *slog.Logger) *Client {
	return NewClientWithConfig(&Config{BotToken: token}, log)
}

// NewClientWithConfig создаёт клиент с адресом API и таймаутом из конфига
func NewClientWithConfig(cfg *Config, log *slog.Logger) *Client {
	base := strings.TrimRight(cfg.APIBaseURL, "/")
	if base == "" {
		base = defaultAPIBaseURL
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = apiTimeout
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: base + "/bot" + cfg.BotToken,
		log:     log,
	}
}

// call выполняет метод Bot API и декодирует result в out (если out не nil).
// Сетевые ошибки возвращаются как есть, ошибки API - как *APIError.
func (c *Client) call(ctx context.Context, method string, params interface{}, out interface{}) error {
	return c.callWith(ctx, c.httpClient, method, params, out)
}

func (c *Client) callWith(ctx context.Context, httpClient *http.Client, method string, params interface{}, out interface{}) error {
	var body io.Reader
	if params != nil {
		jsonData, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("telegram marshal failed [method=%s]: %w", method, err)
		}
		body = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, body)
	if err != nil {
		return fmt.Errorf("telegram create request failed [method=%s]: %w", method, err)
	}
	if params != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		c.log.Debug("telegram request failed",
			"error", err,
			"method", method,
		)
		return fmt.Errorf("telegram request failed [method=%s]: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("telegram read body failed [method=%s, status=%d]: %w", method, resp.StatusCode, err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		c.log.Error("failed to unmarshal telegram response",
			"error", err,
			"method", method,
			"status_code", resp.StatusCode,
			"body_preview", truncateString(string(raw), maxBodyPreview),
		)
		// шлюз/прокси перед API вернул не JSON: классифицируем по статусу
		return &APIError{
			Method:      method,
			StatusCode:  resp.StatusCode,
			Description: truncateString(string(raw), maxBodyPreview),
		}
	}

	if !apiResp.OK {
		apiErr := &APIError{
			Method:      method,
			StatusCode:  resp.StatusCode,
			ErrorCode:   apiResp.ErrorCode,
			Description: apiResp.Description,
		}
		if apiResp.Parameters != nil {
			apiErr.RetryAfter = apiResp.Parameters.RetryAfter
		}
		c.log.Debug("telegram API error",
			"method", method,
			"error_code", apiResp.ErrorCode,
			"description", apiResp.Description,
			"status_code", resp.StatusCode,
		)
		return apiErr
	}

	if out != nil && len(apiResp.Result) > 0 {
		if err := json.Unmarshal(apiResp.Result, out); err != nil {
			return fmt.Errorf("telegram unmarshal result failed [method=%s]: %w", method, err)
		}
	}

	return nil
}

// GetMe проверяет токен бота
func (c *Client) GetMe(ctx context.Context) (*BotInfo, error) {
	var info BotInfo
	if err := c.call(ctx, "getMe", nil, &info); err != nil {
		return nil, err
	}
	c.log.Info("bot info retrieved successfully", "username", info.Username)
	return &info, nil
}

// BotInfo результат getMe
type BotInfo struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
