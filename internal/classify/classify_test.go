package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/therobotcowboy/inventory-manager/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		wantType   domain.ItemType
		wantAsset  bool
		confidence Confidence
	}{
		{"DeWalt Impact Driver", domain.ItemTypeTool, true, ConfidenceHigh},
		{"Cordless Drill", domain.ItemTypeTool, true, ConfidenceHigh},
		{"3-inch Deck Screws", domain.ItemTypeConsumable, false, ConfidenceHigh},
		{"Electrical Tape", domain.ItemTypeConsumable, false, ConfidenceHigh},
		{"GFCI Outlet", domain.ItemTypePart, false, ConfidenceHigh},
		{"Ball Valve", domain.ItemTypePart, false, ConfidenceHigh},
		{"Mystery Widget", domain.ItemTypeConsumable, false, ConfidenceLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.name)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantAsset, got.IsAsset)
			assert.Equal(t, tt.confidence, got.Confidence)
		})
	}
}

func TestClassify_ToolDefaults(t *testing.T) {
	got := Classify("Circular Saw")
	assert.True(t, got.IsAsset)
	assert.Equal(t, "1", got.DefaultQuantity.String())
	assert.False(t, got.DefaultThreshold.Valid, "tools have no low-stock tracking")
}

func TestClassify_ConsumableDefaults(t *testing.T) {
	got := Classify("Wood Screws")
	assert.False(t, got.IsAsset)
	assert.True(t, got.DefaultQuantity.IsZero())
	assert.True(t, got.DefaultThreshold.Valid)
	assert.Equal(t, "10", got.DefaultThreshold.Decimal.String())
}
