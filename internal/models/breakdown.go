package models

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BreakdownItem is one itemized charge within a fee.
type BreakdownItem struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// Breakdown is the ordered charge-label → amount mapping composing a fee's
// total. Labels are unique within a breakdown and order is preserved through
// the codec.
type Breakdown []BreakdownItem

// Total sums all item amounts.
func (b Breakdown) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range b {
		total = total.Add(item.Amount)
	}
	return total
}

// Get returns the amount for the label.
func (b Breakdown) Get(label string) (decimal.Decimal, bool) {
	for _, item := range b {
		if item.Label == label {
			return item.Amount, true
		}
	}
	return decimal.Zero, false
}

// Set replaces the amount for an existing label or appends a new item,
// preserving insertion order.
func (b Breakdown) Set(label string, amount decimal.Decimal) Breakdown {
	for i, item := range b {
		if item.Label == label {
			b[i].Amount = amount
			return b
		}
	}
	return append(b, BreakdownItem{Label: label, Amount: amount})
}

// Equal reports whether two breakdowns carry the same labels, order and
// amounts.
func (b Breakdown) Equal(other Breakdown) bool {
	if len(b) != len(other) {
		return false
	}
	for i := range b {
		if b[i].Label != other[i].Label || !b[i].Amount.Equal(other[i].Amount) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (b Breakdown) Clone() Breakdown {
	if b == nil {
		return nil
	}
	clone := make(Breakdown, len(b))
	copy(clone, b)
	return clone
}

// EncodeBreakdown serialises the breakdown as a JSON object string with keys
// in insertion order. Amounts render via decimal strings, so no float drift
// is introduced at currency precision.
func EncodeBreakdown(b Breakdown) string {
	var builder strings.Builder
	builder.WriteByte('{')
	for i, item := range b {
		if i > 0 {
			builder.WriteByte(',')
		}
		label, _ := json.Marshal(item.Label)
		builder.Write(label)
		builder.WriteByte(':')
		builder.WriteString(item.Amount.String())
	}
	builder.WriteByte('}')
	return builder.String()
}

// DecodeBreakdown parses a transport/storage representation of a breakdown.
// It accepts the serialized string form, raw JSON bytes, or a native
// label→amount mapping. Malformed input degrades to an empty breakdown and is
// logged; a broken breakdown must never block viewing or paying a fee.
func DecodeBreakdown(raw interface{}, logger *zap.Logger) Breakdown {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch value := raw.(type) {
	case nil:
		return Breakdown{}
	case Breakdown:
		return value.Clone()
	case string:
		return decodeBreakdownJSON([]byte(value), logger)
	case []byte:
		return decodeBreakdownJSON(value, logger)
	case map[string]interface{}:
		return decodeBreakdownMap(value, logger)
	default:
		logger.Warn("unsupported breakdown input", zap.Any("value", raw))
		return Breakdown{}
	}
}

// decodeBreakdownJSON walks the object token stream so key order survives.
func decodeBreakdownJSON(data []byte, logger *zap.Logger) Breakdown {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return Breakdown{}
	}
	decoder := json.NewDecoder(strings.NewReader(trimmed))
	decoder.UseNumber()

	token, err := decoder.Token()
	if err != nil {
		logger.Warn("malformed breakdown payload", zap.String("payload", trimmed), zap.Error(err))
		return Breakdown{}
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		logger.Warn("breakdown payload is not an object", zap.String("payload", trimmed))
		return Breakdown{}
	}

	breakdown := Breakdown{}
	for decoder.More() {
		keyToken, err := decoder.Token()
		if err != nil {
			logger.Warn("malformed breakdown key", zap.Error(err))
			return Breakdown{}
		}
		label, ok := keyToken.(string)
		if !ok {
			logger.Warn("breakdown key is not a string")
			return Breakdown{}
		}
		var rawValue json.Number
		if err := decoder.Decode(&rawValue); err != nil {
			logger.Warn("malformed breakdown amount", zap.String("label", label), zap.Error(err))
			return Breakdown{}
		}
		amount, err := decimal.NewFromString(rawValue.String())
		if err != nil || amount.IsNegative() {
			logger.Warn("invalid breakdown amount", zap.String("label", label), zap.String("amount", rawValue.String()))
			return Breakdown{}
		}
		breakdown = breakdown.Set(label, amount)
	}
	return breakdown
}

// decodeBreakdownMap normalises a native mapping; label order from a Go map
// is undefined, so labels sort lexicographically for determinism.
func decodeBreakdownMap(value map[string]interface{}, logger *zap.Logger) Breakdown {
	labels := make([]string, 0, len(value))
	for label := range value {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	breakdown := Breakdown{}
	for _, label := range labels {
		amount, err := toDecimal(value[label])
		if err != nil || amount.IsNegative() {
			logger.Warn("invalid breakdown amount", zap.String("label", label), zap.Any("amount", value[label]))
			return Breakdown{}
		}
		breakdown = breakdown.Set(label, amount)
	}
	return breakdown
}

func toDecimal(value interface{}) (decimal.Decimal, error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, nil
	case json.Number:
		return decimal.NewFromString(v.String())
	case string:
		return decimal.NewFromString(v)
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	default:
		return decimal.Zero, errUnsupportedAmount
	}
}

var errUnsupportedAmount = errors.New("unsupported amount type")
