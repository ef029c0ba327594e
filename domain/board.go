package domain

type BoardID string

// Board is a named, predefined chat room. The catalog is read-only
// after startup.
type Board struct {
	ID          BoardID `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
}

// DefaultCatalog returns the static board list served by the catalog
// endpoint. Order is significant and part of the API contract.
func DefaultCatalog() []Board {
	return []Board{
		{ID: "general", Name: "General", Description: "Anything goes"},
		{ID: "tech", Name: "Tech", Description: "Software, hardware and everything between"},
		{ID: "random", Name: "Random", Description: "Off-topic chatter"},
	}
}

// CatalogContains reports whether id names a board of the given catalog.
func CatalogContains(catalog []Board, id BoardID) bool {
	for _, b := range catalog {
		if b.ID == id {
			return true
		}
	}
	return false
}
