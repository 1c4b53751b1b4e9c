package model

import "strings"

// DefaultCategoryCode is the generic ground-unit code used when a label has
// no entry in the symbology table.
const DefaultCategoryCode = "G-U"

// categoryCodes maps lowercase labels to MIL-STD-2525 style category codes.
// Fixed at build time; lookups never fail.
var categoryCodes = map[string]string{
	"tank":       "G-U-C-F-M",   // Ground-Unit-Combat-Armor-MainBattleTank
	"apc":        "G-U-C-F-A",   // Ground-Unit-Combat-Armor-APC
	"infantry":   "G-U-C-I",     // Ground-Unit-Combat-Infantry
	"artillery":  "G-U-C-F-D",   // Ground-Unit-Combat-Field Artillery
	"mlrs":       "G-U-C-F-D-M", // Ground-Unit-Combat-Field Artillery-MLRS
	"sam":        "G-U-W-M-S",   // Ground-Unit-Weapon-Missile-SAM
	"radar":      "G-U-S-R",     // Ground-Unit-Sensor-Radar
	"truck":      "G-U-S-T",     // Ground-Unit-Support-Transport
	"helicopter": "A-M-H",       // Air-Military-Helicopter
	"drone":      "A-M-F-Q",     // Air-Military-Fixed wing-UAV
}

// CategoryCode resolves a label to its symbology category code. Lookup is
// case-insensitive and falls back to DefaultCategoryCode for unrecognized
// labels.
func CategoryCode(label string) string {
	if code, ok := categoryCodes[strings.ToLower(label)]; ok {
		return code
	}
	return DefaultCategoryCode
}
