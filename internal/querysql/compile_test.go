package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/polcheck/internal/queryir"
)

func TestCompileSinglePattern(t *testing.T) {
	sel := queryir.Select{
		Graph:   "g1",
		Where:   []queryir.Pattern{{Subject: queryir.Var("x"), Predicate: queryir.Const("<age>"), Object: queryir.Var("y")}},
		Project: []queryir.Var{"x", "y"},
	}

	sql, params, err := NewSQLCompiler().Compile(sel)
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT DISTINCT t0.subject AS c0, t0.object AS c1 FROM triples AS t0 "+
			"WHERE t0.graph_id = ? AND t0.predicate = ? "+
			"ORDER BY c0 COLLATE BINARY ASC, c1 COLLATE BINARY ASC",
		sql)
	assert.Equal(t, []any{"g1", "<age>"}, params)
}

func TestCompileRepeatedVariableJoins(t *testing.T) {
	sel := queryir.Select{
		Graph: "g1",
		Where: []queryir.Pattern{
			{Subject: queryir.Var("x"), Predicate: queryir.Const("<age>"), Object: queryir.Const("30")},
			{Subject: queryir.Var("x"), Predicate: queryir.Const("<city>"), Object: queryir.Var("c")},
		},
		Project: []queryir.Var{"c"},
	}

	sql, params, err := NewSQLCompiler().Compile(sel)
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM triples AS t0, triples AS t1")
	assert.Contains(t, sql, "t1.subject = t0.subject")
	assert.Contains(t, sql, "SELECT DISTINCT t1.object AS c0")
	assert.Equal(t, []any{"g1", "<age>", "30", "g1", "<city>"}, params)
}

func TestCompileEmptyProjection(t *testing.T) {
	sel := queryir.Select{
		Graph: "g1",
		Where: []queryir.Pattern{{Subject: queryir.Const("_:o1.a"), Predicate: queryir.Const("<p>"), Object: queryir.Const("1")}},
	}

	sql, _, err := NewSQLCompiler().Compile(sel)
	require.NoError(t, err)

	assert.Contains(t, sql, "SELECT DISTINCT 1 AS matched")
	assert.Contains(t, sql, "ORDER BY matched LIMIT 1")
}

func TestCompileNeverInterpolates(t *testing.T) {
	sel := queryir.Select{
		Graph:   "g'; DROP TABLE triples; --",
		Where:   []queryir.Pattern{{Subject: queryir.Var("x"), Predicate: queryir.Const(`"o'hara"`), Object: queryir.Var("y")}},
		Project: []queryir.Var{"x"},
	}

	sql, params, err := NewSQLCompiler().Compile(sel)
	require.NoError(t, err)

	assert.NotContains(t, sql, "DROP")
	assert.NotContains(t, sql, "hara")
	assert.Len(t, params, 2)
}

func TestCompileRejectsInvalid(t *testing.T) {
	_, _, err := NewSQLCompiler().Compile(queryir.Select{Graph: "g"})
	assert.ErrorIs(t, err, queryir.ErrInvalidQuery)
}

func TestCompileCustomTable(t *testing.T) {
	c := &SQLCompiler{Table: "frozen"}
	sel := queryir.Select{
		Graph:   "g",
		Where:   []queryir.Pattern{{Subject: queryir.Var("x"), Predicate: queryir.Var("p"), Object: queryir.Var("x")}},
		Project: []queryir.Var{"p"},
	}

	sql, _, err := c.Compile(sel)
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM frozen AS t0")
	assert.Contains(t, sql, "t0.object = t0.subject")
}
