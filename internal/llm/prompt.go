package llm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/askdb/askdb/internal/model"
)

// promptRules is the fixed instruction block prepended to every generation
// request. The generated text is returned to the caller verbatim, so the
// rules carry the entire burden of steering the output toward valid SQL.
const promptRules = `You are a PostgreSQL expert. Convert the user request into a valid PostgreSQL query following these rules:

**General PostgreSQL Rules**
- Use **double quotes** for table and column names (e.g., "user", "project").
- Use **COALESCE()** for NULL handling when necessary.
- Use **LEFT JOIN** instead of INNER JOIN when optional data might be missing.

**Handling Counts & Aggregations**
- Use ` + "`COUNT(DISTINCT column_name)`" + ` to prevent duplicate counts in joins.
- Always group by the primary key of the main entity.
- Use ` + "`HAVING COUNT(*) > X`" + ` only when necessary.

**Strict Table Relationships**
- Use only **defined relationships** from the database schema.
- **DO NOT assume relationships** between tables unless explicitly defined.
- If a relationship does not exist, return an error instead of making assumptions.

**Avoiding Data Type Errors**
- Always ensure JOIN conditions match column types.
- If necessary, use **CAST(column AS target_type)**.

**Optimizations**
- Use **WHERE** clauses instead of unnecessary HAVING filters.
- Use **EXISTS** instead of JOINs when filtering large datasets.
- Optimize performance with **LIMIT and OFFSET** when needed.`

// BuildPrompt renders the generation prompt from the user request and the
// schema projection. Tables and relationships are emitted in sorted order so
// the same inputs always produce the same prompt.
func BuildPrompt(userInput string, tables model.SelectedTables, relationships model.Relationships) string {
	var b strings.Builder

	b.WriteString(promptRules)
	b.WriteString("\n\nDatabase Schema:\n")

	tableNames := make([]string, 0, len(tables))
	for name := range tables {
		tableNames = append(tableNames, name)
	}
	sort.Strings(tableNames)
	for _, name := range tableNames {
		fmt.Fprintf(&b, "%s (%s)\n", name, strings.Join(tables[name], ", "))
	}
	b.WriteString("\nPlease generate SQL queries using **these table names and column names**.\n")

	b.WriteString("\nTable Relationships:\n")
	relTables := make([]string, 0, len(relationships))
	for name := range relationships {
		relTables = append(relTables, name)
	}
	sort.Strings(relTables)
	for _, table := range relTables {
		cols := make([]string, 0, len(relationships[table]))
		for col := range relationships[table] {
			cols = append(cols, col)
		}
		sort.Strings(cols)
		for _, col := range cols {
			fmt.Fprintf(&b, "%s.%s -> %s\n", table, col, relationships[table][col].References)
		}
	}

	fmt.Fprintf(&b, "\nUser Request: %q\nSQL Query:\n", userInput)
	return b.String()
}
