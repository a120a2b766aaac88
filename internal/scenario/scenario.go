// Package scenario loads and serves the scenario catalog: the manifest
// describing each bundled dialogue (name, icon, presentation hints) plus
// the parsed form of its script. Scripts are compiled once and the AST is
// shared by every session of that scenario.
package scenario

import "sort"

// Scenario describes one dialogue offering as presented to clients.
type Scenario struct {
	ID          string   `mapstructure:"id" json:"id"`
	Name        string   `mapstructure:"name" json:"name"`
	Icon        string   `mapstructure:"icon" json:"icon"`
	Description string   `mapstructure:"description" json:"description"`
	Color       string   `mapstructure:"color" json:"color"`
	Gradient    string   `mapstructure:"gradient" json:"gradient"`
	Features    []string `mapstructure:"features" json:"features"`

	// Script is the .dsl file name inside the scripts directory.
	Script string `mapstructure:"script" json:"script"`

	Enabled bool `mapstructure:"enabled" json:"enabled"`

	// Order sorts the catalog; lower comes first. Auto-discovered
	// scenarios sort after everything declared in the manifest.
	Order int `mapstructure:"order" json:"order"`
}

// sortScenarios orders by Order, then ID for a stable catalog.
func sortScenarios(list []*Scenario) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Order != list[j].Order {
			return list[i].Order < list[j].Order
		}
		return list[i].ID < list[j].ID
	})
}
