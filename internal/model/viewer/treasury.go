package viewer

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Balance is the live wallet balance reported by the treasury endpoint.
type Balance struct {
	USD   float64 `json:"usd"`
	SOL   float64 `json:"sol"`
	Error bool    `json:"error,omitempty"`
}

// UnmarshalJSON accepts any JSON value for error and keeps its
// truthiness, so an error message still marks the balance as unusable.
func (b *Balance) UnmarshalJSON(data []byte) error {
	type plain Balance
	var raw struct {
		plain
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = Balance(raw.plain)
	b.Error = truthy(raw.Error)
	return nil
}

func truthy(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	switch {
	case len(v) == 0, bytes.Equal(v, []byte("null")), bytes.Equal(v, []byte("false")), bytes.Equal(v, []byte(`""`)):
		return false
	case v[0] == '"', v[0] == '{', v[0] == '[', bytes.Equal(v, []byte("true")):
		return true
	}
	n, err := strconv.ParseFloat(string(v), 64)
	return err != nil || n != 0
}

// Ledger summarises spending and revenue.
type Ledger struct {
	TotalSpent   float64 `json:"total_spent"`
	TotalRevenue float64 `json:"total_revenue"`
	NetChange    float64 `json:"net_change"`
}

// TreasurySnapshot is the point-in-time record returned by the treasury
// endpoint. Every field is optional.
type TreasurySnapshot struct {
	CurrentValue *float64 `json:"current_value,omitempty"`
	Balance      *Balance `json:"balance,omitempty"`
	Progress     *float64 `json:"progress,omitempty"`
	Ledger       *Ledger  `json:"ledger,omitempty"`
}

// Live reports whether the snapshot carries a usable balance reading.
func (t TreasurySnapshot) Live() bool {
	return t.Balance != nil && !t.Balance.Error
}
