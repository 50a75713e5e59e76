package activation

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	FieldOrderID       = "order_id"
	FieldCustomerEmail = "customer_email"
	FieldCustomerName  = "customer_name"
	FieldProductName   = "product_name"
	FieldAmount        = "amount"
	FieldStatus        = "status"
	FieldTimestamp     = "timestamp"

	envelopeKey = "data"
)

// FieldAliases lists the inbound keys accepted for one canonical field, in priority order.
type FieldAliases struct {
	Field string
	Keys  []string
}

// AliasTable drives normalization. Supporting a new provider spelling is a data change here.
var AliasTable = []FieldAliases{
	{Field: FieldOrderID, Keys: []string{"order_id", "id", "transaction_id", "trx_id", "orderId"}},
	{Field: FieldCustomerEmail, Keys: []string{"customer_email", "email", "buyer_email", "customerEmail"}},
	{Field: FieldCustomerName, Keys: []string{"customer_name", "name", "buyer_name", "customerName"}},
	{Field: FieldProductName, Keys: []string{"product_name", "product", "item_name", "productName"}},
	{Field: FieldAmount, Keys: []string{"amount", "total", "price"}},
	{Field: FieldStatus, Keys: []string{"status", "state", "order_status", "orderStatus"}},
	{Field: FieldTimestamp, Keys: []string{"timestamp", "created_at", "date", "createdAt"}},
}

// RequiredFields must resolve for a delivery to be accepted.
var RequiredFields = []string{FieldOrderID, FieldCustomerEmail, FieldCustomerName}

// Defaults fill optional fields the provider left out.
type Defaults struct {
	ProductName string
	Amount      decimal.Decimal
	Status      string
}

// Fields is the canonical field set of one delivery.
type Fields struct {
	OrderID       string
	CustomerEmail string
	CustomerName  string
	ProductName   string
	Amount        decimal.Decimal
	Status        string
	Timestamp     string
}

// Normalize resolves payload onto the canonical field set. A "data" object is
// unwrapped once and treated as the effective payload.
func Normalize(payload map[string]any, defaults Defaults, now time.Time) (Fields, error) {
	effective := payload
	if nested, ok := payload[envelopeKey].(map[string]any); ok {
		effective = nested
	}

	fields := Fields{
		OrderID:       resolveString(effective, FieldOrderID),
		CustomerEmail: resolveString(effective, FieldCustomerEmail),
		CustomerName:  resolveString(effective, FieldCustomerName),
		ProductName:   resolveString(effective, FieldProductName),
		Status:        resolveString(effective, FieldStatus),
		Timestamp:     resolveString(effective, FieldTimestamp),
	}

	required := map[string]string{
		FieldOrderID:       fields.OrderID,
		FieldCustomerEmail: fields.CustomerEmail,
		FieldCustomerName:  fields.CustomerName,
	}
	var missing []string
	for _, field := range RequiredFields {
		if required[field] == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return Fields{}, &MissingFieldsError{
			Missing:  missing,
			Received: receivedKeys(payload),
			Required: append([]string(nil), RequiredFields...),
		}
	}

	if fields.ProductName == "" {
		fields.ProductName = defaults.ProductName
	}
	if fields.Status == "" {
		fields.Status = defaults.Status
	}
	if fields.Timestamp == "" {
		fields.Timestamp = now.UTC().Format(time.RFC3339)
	}
	fields.Amount = defaults.Amount
	if amount, ok := resolveAmount(effective); ok {
		fields.Amount = amount
	}

	return fields, nil
}

func aliasesFor(field string) []string {
	for _, alias := range AliasTable {
		if alias.Field == field {
			return alias.Keys
		}
	}
	return nil
}

// resolveAmount returns the first alias value that parses as a non-zero decimal.
func resolveAmount(payload map[string]any) (decimal.Decimal, bool) {
	for _, key := range aliasesFor(FieldAmount) {
		value, ok := payload[key]
		if !ok || !present(value) {
			continue
		}
		if amount, ok := toDecimal(value); ok && !amount.IsZero() {
			return amount, true
		}
	}
	return decimal.Decimal{}, false
}

// resolveString returns the first alias value usable as a string.
func resolveString(payload map[string]any, field string) string {
	for _, key := range aliasesFor(field) {
		value, ok := payload[key]
		if !ok || !present(value) {
			continue
		}
		if s, ok := toString(value); ok {
			return s
		}
	}
	return ""
}

// present treats null, false, blank strings and numeric zero as absent.
func present(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	case json.Number:
		f, err := v.Float64()
		return err != nil || f != 0
	case float64:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	default:
		return true
	}
}

func toString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v), true
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	default:
		return "", false
	}
}

func toDecimal(value any) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	default:
		return decimal.Decimal{}, false
	}
}

func receivedKeys(payload map[string]any) []string {
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
