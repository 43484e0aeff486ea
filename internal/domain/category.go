package domain

// Facet is one distinct catalog value with the number of products carrying it.
type Facet struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Facets lists the categories and brands present in the catalog, feeding the
// storefront filter sidebar.
type Facets struct {
	Categories []Facet `json:"categories"`
	Brands     []Facet `json:"brands"`
}
