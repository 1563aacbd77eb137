package domain

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// MaxAmountScale 金額允許的小數位數
	MaxAmountScale = 2
	// MaxAmountIntegerDigits 金額整數部分允許的位數
	MaxAmountIntegerDigits = 15

	maxAmountTextLen = 64
)

// CoerceAmount 將鬆散型別的金額轉為 decimal
//
// 規則 (Validator 與 Executor 共用，兩邊判斷必須一致):
//   - 數值型別 (int/float/json.Number) 直接轉換
//   - 字串去除前後空白與開頭的 "$" 後解析，例如 "$123.45"
//   - 其他型別、nil、空字串、無法解析的內容一律回傳 0
//   - NaN、Inf、超過 MaxAmountIntegerDigits 位整數或超過 MaxAmountScale 位小數視為無法解析
//
// 參數:
//
//	v: params 內的原始值
//
// 回傳:
//
//	decimal.Decimal: 金額，失敗時為 decimal.Zero
func CoerceAmount(v any) decimal.Decimal {
	d, ok := ParseAmount(v)
	if !ok {
		return decimal.Zero
	}
	return d
}

// ParseAmount 與 CoerceAmount 相同規則，但會回報是否成功解析
func ParseAmount(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case decimal.Decimal:
		return bounded(x)
	case json.Number:
		return parseAmountString(x.String())
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero, false
		}
		return bounded(decimal.NewFromFloat(x))
	case float32:
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return decimal.Zero, false
		}
		return bounded(decimal.NewFromFloat32(x))
	case int:
		return bounded(decimal.NewFromInt(int64(x)))
	case int32:
		return bounded(decimal.NewFromInt32(x))
	case int64:
		return bounded(decimal.NewFromInt(x))
	case string:
		return parseAmountString(x)
	default:
		return decimal.Zero, false
	}
}

// bounded 在任何運算前檢查數值範圍與小數位數
func bounded(d decimal.Decimal) (decimal.Decimal, bool) {
	exp := int(d.Exponent())
	if exp > MaxAmountIntegerDigits || exp < -maxAmountTextLen {
		return decimal.Zero, false
	}
	if d.NumDigits()+exp > MaxAmountIntegerDigits {
		return decimal.Zero, false
	}
	if exp < -MaxAmountScale && !d.Equal(d.Truncate(MaxAmountScale)) {
		return decimal.Zero, false
	}
	return d, true
}

func parseAmountString(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxAmountTextLen {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return bounded(d)
}

// CoerceCount 將 params 內的筆數參數轉為 int，無法解析或為負數時回傳 fallback
func CoerceCount(v any, fallback int) int {
	if v == nil {
		return fallback
	}
	d, ok := ParseAmount(v)
	if !ok || d.IsNegative() {
		return fallback
	}
	return int(d.IntPart())
}
