package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/polcheck/internal/queryir"
)

// Column names of the triples table (see store/schema.sql).
var positionColumns = [3]string{"subject", "predicate", "object"}

// SQLCompiler compiles QueryIR to parameterized SQL for SQLite.
//
// Each triple pattern becomes one alias of the triples table. Constants and
// the graph id become ? parameters; repeated variables become column
// equalities between aliases.
//
// CRITICAL: ALL queries include ORDER BY for deterministic results.
// CRITICAL: All values are parameterized (never interpolated).
type SQLCompiler struct {
	// Table is the triples table name.
	Table string
}

// NewSQLCompiler creates a new SQLCompiler over the default triples table.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{Table: "triples"}
}

// Compile converts a Select to parameterized SQL.
// Returns (sql, params, error) tuple. The result columns follow
// sel.Project; with an empty projection the query returns one constant
// column and at most one row.
func (c *SQLCompiler) Compile(sel queryir.Select) (string, []any, error) {
	if err := queryir.Validate(sel).Err(); err != nil {
		return "", nil, fmt.Errorf("compile select: %w", err)
	}

	var (
		from   []string
		where  []string
		params []any
		first  = make(map[queryir.Var]string)
	)

	for i, p := range sel.Where {
		alias := fmt.Sprintf("t%d", i)
		from = append(from, fmt.Sprintf("%s AS %s", c.Table, alias))
		where = append(where, alias+".graph_id = ?")
		params = append(params, sel.Graph)

		for pos, term := range p.Terms() {
			col := alias + "." + positionColumns[pos]
			switch t := term.(type) {
			case queryir.Const:
				where = append(where, col+" = ?")
				params = append(params, string(t))
			case queryir.Var:
				if prev, ok := first[t]; ok {
					where = append(where, col+" = "+prev)
				} else {
					first[t] = col
				}
			default:
				return "", nil, fmt.Errorf("unsupported term type: %T", term)
			}
		}
	}

	selectClause, orderBy := c.compileProjection(sel.Project, first)

	sql := fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s ORDER BY %s",
		selectClause,
		strings.Join(from, ", "),
		strings.Join(where, " AND "),
		orderBy)
	if len(sel.Project) == 0 {
		sql += " LIMIT 1"
	}

	return sql, params, nil
}

// compileProjection returns the select list and the ORDER BY clause.
// Every projected column is ordered with COLLATE BINARY so that row order
// is byte order of the wire texts.
func (c *SQLCompiler) compileProjection(project []queryir.Var, cols map[queryir.Var]string) (string, string) {
	if len(project) == 0 {
		return "1 AS matched", "matched"
	}

	sel := make([]string, len(project))
	order := make([]string, len(project))
	for i, v := range project {
		name := fmt.Sprintf("c%d", i)
		sel[i] = fmt.Sprintf("%s AS %s", cols[v], name)
		order[i] = name + " COLLATE BINARY ASC"
	}
	return strings.Join(sel, ", "), strings.Join(order, ", ")
}
