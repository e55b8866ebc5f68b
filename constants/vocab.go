package constants

import "slices"

// Controlled vocabularies used by submissions and the AI extraction prompt.
// The AI client replaces any value outside these lists with the default.

var Sectors = []string{
	"Agriculture", "Air", "Biodiversity & ecosystems", "Climate", "Diversity & inclusion",
	"Education", "Employment / Livelihoods creation", "Energy", "Financial services",
	"Health", "Infrastructure", "Land", "Oceans & coastal zones", "Sustainable cities",
	"Sustainable consumption & production", "Sustainable tourism", "Water Treatment", "Other",
}

var Regions = []string{"Global", "Western Economies", "Africa", "Asia", "SEA", "Latam"}

var MaturityStages = []string{"Ideation", "Validation", "Pilot", "Growth", "Scale", "Mature"}

var Instruments = []string{"Convertible note", "Equity", "Debt", "Other"}

var SDGs = []string{
	"No poverty (SDG 1)", "Zero hunger (SDG 2)", "Good health and well-being (SDG 3)",
	"Quality education (SDG 4)", "Gender equality (SDG 5)", "Clean water and sanitation (SDG 6)",
	"Affordable and clean energy (SDG 7)", "Decent work and economic growth (SDG 8)",
	"Industry, innovation and infrastructure (SDG 9)", "Reduced inequalities (SDG 10)",
	"Sustainable cities and communities (SDG 11)", "Responsible consumption and production (SDG 12)",
	"Climate action (SDG 13)", "Life below water (SDG 14)", "Life on land (SDG 15)",
	"Peace, justice, and strong institutions (SDG 16)", "Partnerships for the goals (SDG 17)",
}

// Defaults applied when the model returns a value outside the vocabulary.
const (
	DefaultMaturityStage = "Validation"
	DefaultRegion        = "Global"
	DefaultInstrument    = "Equity"
	MaxSDGs              = 3
)

func IsRegion(s string) bool        { return slices.Contains(Regions, s) }
func IsMaturityStage(s string) bool { return slices.Contains(MaturityStages, s) }
func IsInstrument(s string) bool    { return slices.Contains(Instruments, s) }
func IsSDG(s string) bool           { return slices.Contains(SDGs, s) }
func IsSector(s string) bool        { return slices.Contains(Sectors, s) }
