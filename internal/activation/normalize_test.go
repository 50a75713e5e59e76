package activation

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var testDefaults = Defaults{
	ProductName: "NutriScan Premium - 1 Month",
	Amount:      decimal.NewFromInt(25000),
	Status:      "completed",
}

func decodePayload(t *testing.T, raw string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(bytes.NewBufferString(raw))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	return payload
}

func TestNormalizeResolvesAliases(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 30, 0, 0, time.UTC)
	cases := []struct {
		name    string
		payload string
		want    Fields
	}{
		{
			name:    "canonical keys",
			payload: `{"order_id":"A1","customer_email":"a@b.com","customer_name":"Ann","product_name":"Pro","amount":1500,"status":"paid","timestamp":"2026-04-30T00:00:00Z"}`,
			want: Fields{OrderID: "A1", CustomerEmail: "a@b.com", CustomerName: "Ann", ProductName: "Pro",
				Amount: decimal.NewFromInt(1500), Status: "paid", Timestamp: "2026-04-30T00:00:00Z"},
		},
		{
			name:    "short aliases with defaults",
			payload: `{"id":"A1","email":"a@b.com","name":"Ann"}`,
			want: Fields{OrderID: "A1", CustomerEmail: "a@b.com", CustomerName: "Ann", ProductName: testDefaults.ProductName,
				Amount: testDefaults.Amount, Status: "completed", Timestamp: "2026-05-01T08:30:00Z"},
		},
		{
			name:    "camel case aliases",
			payload: `{"orderId":"X9","customerEmail":"x@y.com","customerName":"Xi","productName":"Lite","orderStatus":"settled","createdAt":"yesterday"}`,
			want: Fields{OrderID: "X9", CustomerEmail: "x@y.com", CustomerName: "Xi", ProductName: "Lite",
				Amount: testDefaults.Amount, Status: "settled", Timestamp: "yesterday"},
		},
		{
			name:    "unparsable amount falls through to later alias",
			payload: `{"id":"A1","email":"a@b.com","name":"Ann","amount":"n/a","total":19900,"price":10}`,
			want: Fields{OrderID: "A1", CustomerEmail: "a@b.com", CustomerName: "Ann", ProductName: testDefaults.ProductName,
				Amount: decimal.NewFromInt(19900), Status: "completed", Timestamp: "2026-05-01T08:30:00Z"},
		},
		{
			name:    "earlier alias wins",
			payload: `{"trx_id":"T2","transaction_id":"T1","buyer_email":"b@b.com","email":"a@b.com","buyer_name":"Bo","total":"99.5","price":10}`,
			want: Fields{OrderID: "T1", CustomerEmail: "a@b.com", CustomerName: "Bo", ProductName: testDefaults.ProductName,
				Amount: decimal.RequireFromString("99.5"), Status: "completed", Timestamp: "2026-05-01T08:30:00Z"},
		},
		{
			name:    "falsy values fall through",
			payload: `{"order_id":"","id":0,"transaction_id":123,"customer_email":null,"email":"  ","buyer_email":"c@d.com","customer_name":false,"name":"Cy","amount":0}`,
			want: Fields{OrderID: "123", CustomerEmail: "c@d.com", CustomerName: "Cy", ProductName: testDefaults.ProductName,
				Amount: testDefaults.Amount, Status: "completed", Timestamp: "2026-05-01T08:30:00Z"},
		},
		{
			name:    "data envelope unwrapped",
			payload: `{"event":"order.paid","data":{"id":"D1","email":"d@e.com","name":"Di","amount":"abc"}}`,
			want: Fields{OrderID: "D1", CustomerEmail: "d@e.com", CustomerName: "Di", ProductName: testDefaults.ProductName,
				Amount: testDefaults.Amount, Status: "completed", Timestamp: "2026-05-01T08:30:00Z"},
		},
		{
			name:    "objects never satisfy string fields",
			payload: `{"order_id":{"value":"nested"},"id":"O1","email":["x@y.com"],"buyer_email":"o@p.com","name":"Oz"}`,
			want: Fields{OrderID: "O1", CustomerEmail: "o@p.com", CustomerName: "Oz", ProductName: testDefaults.ProductName,
				Amount: testDefaults.Amount, Status: "completed", Timestamp: "2026-05-01T08:30:00Z"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize(decodePayload(t, tc.payload), testDefaults, now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Amount.Equal(tc.want.Amount) {
				t.Fatalf("amount = %s, want %s", got.Amount, tc.want.Amount)
			}
			got.Amount, tc.want.Amount = decimal.Zero, decimal.Zero
			if got != tc.want {
				t.Fatalf("fields = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestNormalizeUnwrapsOneLevelOnly(t *testing.T) {
	payload := decodePayload(t, `{"data":{"data":{"order_id":"deep","email":"a@b.com","name":"Ann"}}}`)

	_, err := Normalize(payload, testDefaults, time.Now())
	var missing *MissingFieldsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected missing fields error, got %v", err)
	}
	if !reflect.DeepEqual(missing.Missing, RequiredFields) {
		t.Fatalf("missing = %v", missing.Missing)
	}
}

func TestNormalizeIgnoresNonObjectData(t *testing.T) {
	payload := decodePayload(t, `{"data":"ignored","order_id":"A1","email":"a@b.com","name":"Ann"}`)

	got, err := Normalize(payload, testDefaults, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.OrderID != "A1" {
		t.Fatalf("order id = %q", got.OrderID)
	}
}

func TestNormalizeReportsMissingFields(t *testing.T) {
	payload := decodePayload(t, `{"zeta":1,"data":{"id":"A1"},"alpha":true}`)

	_, err := Normalize(payload, testDefaults, time.Now())
	var missing *MissingFieldsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected missing fields error, got %v", err)
	}
	if want := []string{FieldCustomerEmail, FieldCustomerName}; !reflect.DeepEqual(missing.Missing, want) {
		t.Fatalf("missing = %v, want %v", missing.Missing, want)
	}
	if want := []string{"alpha", "data", "zeta"}; !reflect.DeepEqual(missing.Received, want) {
		t.Fatalf("received = %v, want %v", missing.Received, want)
	}
	if !reflect.DeepEqual(missing.Required, RequiredFields) {
		t.Fatalf("required = %v", missing.Required)
	}
	details := missing.Details()
	if _, ok := details["missing_fields"]; !ok {
		t.Fatalf("details missing missing_fields: %v", details)
	}
}

func TestAliasTableCoversEveryCanonicalField(t *testing.T) {
	seen := map[string]bool{}
	for _, alias := range AliasTable {
		if len(alias.Keys) == 0 || alias.Keys[0] != alias.Field {
			t.Fatalf("field %s must list itself first, got %v", alias.Field, alias.Keys)
		}
		seen[alias.Field] = true
	}
	for _, field := range []string{FieldOrderID, FieldCustomerEmail, FieldCustomerName, FieldProductName, FieldAmount, FieldStatus, FieldTimestamp} {
		if !seen[field] {
			t.Fatalf("alias table missing %s", field)
		}
	}
}
