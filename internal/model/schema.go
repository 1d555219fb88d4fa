package model

// SchemaTable is one introspected table with its column names.
type SchemaTable struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// Schema is the introspection result returned by the get-schema endpoint:
// base tables with their columns plus the foreign-key edges recovered from
// the catalog. The same shape, filtered down by the user, is what a project
// stores as its selected_tables / table_relationships projection.
type Schema struct {
	Tables        []SchemaTable `json:"tables"`
	Relationships Relationships `json:"relationships"`
}
