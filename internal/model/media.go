package model

// Image describes a stored image asset.
type Image struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
	Format   string `json:"format"`
}
