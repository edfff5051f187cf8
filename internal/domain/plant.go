package domain

import "strings"

// Plant is a catalog entry for a single plant variety.
// Most descriptive fields are free text; BotanicalName and CommonName are
// the fields species autofill writes to.
type Plant struct {
	Timestamps
	ID                  string `json:"id"`
	BotanicalName       string `json:"botanical_name"`
	CommonName          string `json:"common_name"`
	Variety             string `json:"variety,omitempty"`
	PlantType           string `json:"plant_type,omitempty"`
	LightRequirement    string `json:"light_requirement,omitempty"`
	IndoorOutdoor       string `json:"indoor_outdoor,omitempty"`
	Description         string `json:"description,omitempty"`
	MedicinalUses       string `json:"medicinal_uses,omitempty"`
	CulinaryUses        string `json:"culinary_uses,omitempty"`
	GrowingInstructions string `json:"growing_instructions,omitempty"`
	Notes               string `json:"notes,omitempty"`
}

// DisplayName returns the name shown in lists: common name, else botanical name.
func (p *Plant) DisplayName() string {
	if name := strings.TrimSpace(p.CommonName); name != "" {
		return name
	}
	return strings.TrimSpace(p.BotanicalName)
}

// PlantFilter narrows plant listings. Empty fields match any value.
type PlantFilter struct {
	Query            string
	PlantType        string
	LightRequirement string
	IndoorOutdoor    string
}

// IsEmpty reports whether the filter matches every plant.
func (f PlantFilter) IsEmpty() bool {
	return strings.TrimSpace(f.Query) == "" &&
		f.PlantType == "" &&
		f.LightRequirement == "" &&
		f.IndoorOutdoor == ""
}

// PlantFilterOptions lists the distinct non-empty values present in the catalog
// for each filterable column.
type PlantFilterOptions struct {
	PlantTypes           []string `json:"plant_types"`
	LightRequirements    []string `json:"light_requirements"`
	IndoorOutdoorOptions []string `json:"indoor_outdoor_options"`
}
