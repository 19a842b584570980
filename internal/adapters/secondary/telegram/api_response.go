package telegram

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIResponse базовая структура ответа от Telegram API
type APIResponse struct {
	OK          bool                `json:"ok"`
	Description string              `json:"description,omitempty"`
	ErrorCode   int                 `json:"error_code,omitempty"`
	Parameters  *ResponseParameters `json:"parameters,omitempty"`
	Result      json.RawMessage     `json:"result,omitempty"`
}

// ResponseParameters дополнительные параметры ошибки
type ResponseParameters struct {
	RetryAfter int `json:"retry_after,omitempty"`
}

// APIError ошибка, которую вернул Telegram (ok=false или не-2xx без тела)
type APIError struct {
	Method      string
	StatusCode  int
	ErrorCode   int
	Description string
	RetryAfter  int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram API error [method=%s, code=%d, status=%d]: %s",
		e.Method, e.ErrorCode, e.StatusCode, e.Description)
}

// Temporary 5xx и 429 имеет смысл повторить, остальные ошибки - окончательный отказ
func (e *APIError) Temporary() bool {
	code := e.ErrorCode
	if code == 0 {
		code = e.StatusCode
	}
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
