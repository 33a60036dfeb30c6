package bot

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"brigade/internal/models"
	"brigade/internal/monitoring"
)

func TestParseWasteArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		qty     float64
		unit    string
		item    string
		wantErr bool
	}{
		{name: "simple", args: "2 kg onions", qty: 2, unit: "kg", item: "onions"},
		{name: "multi word item", args: "0.5 l double cream", qty: 0.5, unit: "l", item: "double cream"},
		{name: "missing item", args: "2 kg", wantErr: true},
		{name: "empty", args: "", wantErr: true},
		{name: "bad quantity", args: "lots kg onions", wantErr: true},
		{name: "negative quantity", args: "-1 kg onions", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qty, unit, item, err := parseWasteArgs(tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.qty, qty)
			assert.Equal(t, tt.unit, unit)
			assert.Equal(t, tt.item, item)
		})
	}
}

func TestFormatShifts(t *testing.T) {
	assert.Equal(t, "No upcoming shifts on the published schedule.", formatShifts(nil))

	got := formatShifts([]models.Shift{
		{Day: "2026-09-01", Start: "08:00", End: "16:00", Station: "grill"},
		{Day: "2026-09-02", Start: "12:00", End: "20:00"},
	})
	assert.Contains(t, got, "2026-09-01 08:00–16:00 (grill)")
	assert.Contains(t, got, "2026-09-02 12:00–20:00")
}

func TestWebhookURL(t *testing.T) {
	m := NewManager(zap.NewNop(), nil, monitoring.New(prometheus.NewRegistry()),
		"https://kitchen.example.com/", "", false)
	assert.Equal(t, "https://kitchen.example.com/telegram/webhook/demo", m.webhookURL("demo"))
}
