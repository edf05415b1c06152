// Package classify guesses an item's type from its name so voice-created
// items get sensible defaults without a round trip to the user.
package classify

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/therobotcowboy/inventory-manager/internal/domain"
)

type Confidence string

const (
	ConfidenceHigh Confidence = "HIGH"
	ConfidenceLow  Confidence = "LOW"
)

type Result struct {
	Type             domain.ItemType
	Confidence       Confidence
	IsAsset          bool
	DefaultThreshold decimal.NullDecimal
	DefaultQuantity  decimal.Decimal
}

var toolKeywords = []string{
	"drill", "saw", "hammer", "screwdriver", "wrench", "pliers", "level", "tape measure",
	"ladder", "multimeter", "tester", "knife", "cutter", "crimper", "stripper",
	"gun", "driver", "impact", "sander", "grinder", "vacuum", "vac", "light", "lamp",
	"extension cord", "battery", "charger", "shovel", "rake", "broom", "compressor",
}

var consumableKeywords = []string{
	"screw", "nail", "bolt", "nut", "washer", "anchor", "fastener",
	"glue", "adhesive", "tape", "caulk", "sealant", "epoxy",
	"wire nut", "connector", "zip tie", "cable tie", "staple",
	"sandpaper", "disc", "blade", "bit", "paint", "stain", "primer",
	"cleaner", "rag", "towel", "glove", "mask", "filter",
}

var partKeywords = []string{
	"outlet", "switch", "breaker", "panel", "fuse",
	"faucet", "valve", "pipe", "fitting", "elbow", "coupling", "tee", "flange",
	"hinge", "knob", "handle", "lock", "latch",
	"bulb", "fixture", "thermostat", "sensor", "detector",
	"fan", "motor", "pump", "board", "wood", "lumber", "plywood", "trim", "molding",
}

// Classify maps an item name to a type with defaults. Tools are individually
// tracked assets with no low-stock threshold; bulk-counted types get one.
// Names matching nothing default to Consumable at low confidence.
func Classify(name string) Result {
	lower := strings.ToLower(name)

	if matchesAny(lower, toolKeywords) {
		return Result{
			Type:            domain.ItemTypeTool,
			Confidence:      ConfidenceHigh,
			IsAsset:         true,
			DefaultQuantity: decimal.NewFromInt(1),
		}
	}

	if matchesAny(lower, consumableKeywords) {
		return Result{
			Type:             domain.ItemTypeConsumable,
			Confidence:       ConfidenceHigh,
			DefaultThreshold: decimal.NewNullDecimal(decimal.NewFromInt(10)),
		}
	}

	if matchesAny(lower, partKeywords) {
		return Result{
			Type:             domain.ItemTypePart,
			Confidence:       ConfidenceHigh,
			DefaultThreshold: decimal.NewNullDecimal(decimal.NewFromInt(5)),
		}
	}

	return Result{
		Type:             domain.ItemTypeConsumable,
		Confidence:       ConfidenceLow,
		DefaultThreshold: decimal.NewNullDecimal(decimal.NewFromInt(5)),
	}
}

func matchesAny(name string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(name, k) {
			return true
		}
	}
	return false
}
