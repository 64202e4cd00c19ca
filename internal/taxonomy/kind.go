// Package taxonomy manages the two flat product classifications of the
// catalog: categories and materials.
package taxonomy

// Kind selects which classification table a Service manages.
type Kind struct {
	// Label names the kind in error messages ("category").
	Label string
	// Table is the backing table.
	Table string
	// ProductColumn is the products column referencing Table.
	ProductColumn string
	// UniqueIndex is the case-insensitive name index.
	UniqueIndex string
}

var (
	Categories = Kind{
		Label:         "category",
		Table:         "categories",
		ProductColumn: "category_id",
		UniqueIndex:   "ux_categories_name",
	}
	Materials = Kind{
		Label:         "material",
		Table:         "materials",
		ProductColumn: "material_id",
		UniqueIndex:   "ux_materials_name",
	}
)
