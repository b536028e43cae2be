package common

import (
	"errors"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code    string      `json:"code"`              // 錯誤代碼
	Message string      `json:"message"`           // 錯誤信息
	Details string      `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
	Example interface{} `json:"example,omitempty"` // 正確的請求範例
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string      // 錯誤代碼
	Message string      // 錯誤信息
	Err     error       // 原始錯誤
	Status  int         // HTTP 狀態碼
	Example interface{} // 請求範例（僅用於 400）
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap 支援 errors.Is / errors.As
func (e *CustomError) Unwrap() error {
	return e.Err
}

// WithMessage 複製錯誤並替換訊息
func (e *CustomError) WithMessage(message string) *CustomError {
	c := *e
	c.Message = message
	return &c
}

// WithExample 複製錯誤並附上請求範例
func (e *CustomError) WithExample(example interface{}) *CustomError {
	c := *e
	c.Example = example
	return &c
}

// Wrap 複製錯誤並附上原始錯誤
func (e *CustomError) Wrap(err error) *CustomError {
	c := *e
	c.Err = err
	return &c
}

// Response 轉為 API 錯誤響應
func (e *CustomError) Response(debug bool) ErrorResponse {
	resp := ErrorResponse{
		Code:    e.Code,
		Message: e.Message,
		Example: e.Example,
	}
	if debug && e.Err != nil {
		resp.Details = e.Err.Error()
	}
	return resp
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// AsCustomError 取出錯誤鏈中的 CustomError；找不到時包裝為內部錯誤
func AsCustomError(err error) *CustomError {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce
	}
	return ErrInternalError.Wrap(err)
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest   = "INVALID_REQUEST"    // 400
	ErrCodeUnauthorized     = "UNAUTHORIZED"       // 401
	ErrCodeForbidden        = "FORBIDDEN"          // 403
	ErrCodeNotFound         = "NOT_FOUND"          // 404
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED" // 405
	ErrCodeRequestTimeout   = "REQUEST_TIMEOUT"    // 408
	ErrCodeConflict         = "CONFLICT"           // 409
	ErrCodeTooManyRequests  = "TOO_MANY_REQUESTS"  // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"     // 504
)

// 預定義錯誤
var (
	// 客戶端錯誤
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "Invalid request", http.StatusBadRequest, nil)
	ErrUnauthorized    = NewError(ErrCodeUnauthorized, "Authentication credentials were not provided or are invalid", http.StatusUnauthorized, nil)
	ErrForbidden       = NewError(ErrCodeForbidden, "You do not have permission to perform this action", http.StatusForbidden, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "Resource not found", http.StatusNotFound, nil)
	ErrConflict        = NewError(ErrCodeConflict, "Resource already exists", http.StatusConflict, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "Too many requests", http.StatusTooManyRequests, nil)

	// 服務器錯誤
	ErrInternalError      = NewError(ErrCodeInternalError, "Internal server error", http.StatusInternalServerError, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "Service temporarily unavailable", http.StatusServiceUnavailable, nil)
	ErrGatewayTimeout     = NewError(ErrCodeGatewayTimeout, "Gateway timeout", http.StatusGatewayTimeout, nil)

	// 業務錯誤
	ErrNoValidIngredients  = NewError(ErrCodeNotFound, "No valid ingredients found with the provided IDs", http.StatusNotFound, nil)
	ErrRecipeNotFound      = NewError(ErrCodeNotFound, "Recipe not found", http.StatusNotFound, nil)
	ErrIngredientNotFound  = NewError(ErrCodeNotFound, "Ingredient not found", http.StatusNotFound, nil)
	ErrNutritionNotFound   = NewError(ErrCodeNotFound, "Nutrition data not found for this ingredient", http.StatusNotFound, nil)
	ErrCacheMiss           = NewError("CACHE_MISS", "Cache miss", http.StatusNotFound, nil)
	ErrCacheFull           = NewError("CACHE_FULL", "Cache is full", http.StatusServiceUnavailable, nil)
	ErrCacheDisabled       = NewError("CACHE_DISABLED", "Cache is disabled", http.StatusServiceUnavailable, nil)
	ErrNutritionSourceDown = NewError("NUTRITION_SOURCE_ERROR", "Nutrition data source unavailable", http.StatusBadGateway, nil)
)
