package models

// ProviderDescriptor describes one provider in the catalog.
type ProviderDescriptor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Available   bool   `json:"available"`
}

// ProviderSummary is the compact form of a descriptor sent to the classifier.
type ProviderSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Summary returns the compact form of the descriptor.
func (d ProviderDescriptor) Summary() ProviderSummary {
	return ProviderSummary{ID: d.ID, Name: d.Name, Description: d.Description}
}
