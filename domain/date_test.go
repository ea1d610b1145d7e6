package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateScan(t *testing.T) {
	tests := []struct {
		name string
		src  any
		want string
	}{
		{"nil", nil, ""},
		{"string", "2025-12-31", "2025-12-31"},
		{"bytes", []byte("2024-06-30"), "2024-06-30"},
		{"datetime string", "2024-06-30 00:00:00", "2024-06-30"},
		{"time", time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC), "2023-12-31"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			require.NoError(t, d.Scan(tt.src))
			assert.Equal(t, tt.want, d.String())
		})
	}

	var d Date
	assert.Error(t, d.Scan(42))
	assert.Error(t, d.Scan("31/12/2025"))
}

func TestDateValue(t *testing.T) {
	v, err := Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = NewDate(2026, time.March, 1).Value()
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", v)
}

func TestDateJSON(t *testing.T) {
	var payload struct {
		Expiry Date `json:"expiry"`
		Start  Date `json:"start"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"expiry":"2027-01-02","start":null}`), &payload))
	assert.Equal(t, "2027-01-02", payload.Expiry.String())
	assert.True(t, payload.Start.IsZero())

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"expiry":"2027-01-02","start":null}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"expiry":"tomorrow"}`), &payload))
}

func TestStockBatchExpired(t *testing.T) {
	today := NewDate(2026, time.March, 15)

	assert.True(t, StockBatch{ExpiryDate: NewDate(2026, time.March, 14)}.Expired(today))
	assert.False(t, StockBatch{ExpiryDate: today}.Expired(today))
	assert.False(t, StockBatch{ExpiryDate: NewDate(2027, time.January, 1)}.Expired(today))
	assert.False(t, StockBatch{}.Expired(today), "no expiry date never expires")
}

func TestDateArithmetic(t *testing.T) {
	d := NewDate(2026, time.January, 31)
	assert.Equal(t, "2026-03-02", d.AddDays(30).String())
	assert.True(t, d.Before(d.AddDays(1)))
	assert.Equal(t, "2026-01-31", DateOf(time.Date(2026, time.January, 31, 23, 59, 0, 0, time.UTC)).String())
}
