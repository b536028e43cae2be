package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ParseJSONBytes 解析 JSON 位元組切片到結構體
func ParseJSONBytes(data []byte, v interface{}) error {
	return decodeJSON(bytes.NewReader(data), v, false)
}

// DecodeJSON 使用統一設定解析 JSON
func DecodeJSON(r io.Reader, v interface{}) error {
	return decodeJSON(r, v, false)
}

// DecodeJSONStrict 使用統一設定解析 JSON，禁止未知欄位
func DecodeJSONStrict(r io.Reader, v interface{}) error {
	return decodeJSON(r, v, true)
}

func decodeJSON(r io.Reader, v interface{}, disallowUnknown bool) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if disallowUnknown {
		dec.DisallowUnknownFields()
	}

	if err := dec.Decode(v); err != nil {
		return err
	}

	// 確保沒有多餘資料
	for {
		t, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		// 若讀到額外 token，視為錯誤
		if t != nil {
			return fmt.Errorf("unexpected extra JSON data")
		}
	}
}

// ToInt 將 JSON 解碼後的值（json.Number、字串、數字）轉為整數，
// 小數一律向零截斷；布林、null、陣列等視為錯誤
func ToInt(v interface{}) (int64, error) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, err
		}
		return truncate(f)
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", n)
		}
		return i, nil
	case float64:
		return truncate(n)
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	default:
		return 0, fmt.Errorf("not an integer: %v", v)
	}
}

func truncate(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt64 {
		return 0, fmt.Errorf("not an integer: %v", f)
	}
	return int64(f), nil
}

// ToJSON 將結構體轉換為 JSON 字符串
func ToJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
