package nodes

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dshills/agentgraph-go/dag"
	_ "github.com/go-sql-driver/mysql"
)

// DBExecuteDescriptor describes the db_execute node: runs one
// parameterized statement against a MySQL/MariaDB database and returns
// either affected-row counts or the first result set, depending on
// statement shape.
var DBExecuteDescriptor = dag.Descriptor{
	Type:        "db_execute",
	Name:        "Database Execute",
	Description: "Executes one SQL statement against a MySQL database.",
	Params: map[string]dag.ParamSchema{
		"query": {Type: "string", Required: true, Description: "SQL statement, ? placeholders"},
		"args":  {Type: "array", Required: false, Description: "positional arguments"},
	},
	Outputs: map[string]string{
		"rows":          "result rows, for SELECT statements",
		"rows_affected": "affected row count, for DML statements",
	},
}

// DBExecute holds a pooled connection, shared across every workflow run
// that uses db_execute nodes (cmd/server registers a constructor that
// returns this same instance on every invocation, so every run shares
// its pool).
type DBExecute struct {
	db *sql.DB
}

// NewDBExecute opens dsn with the connection-pool settings the rest of
// the corpus uses for long-lived services.
func NewDBExecute(dsn string) (*DBExecute, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("db_execute: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	return &DBExecute{db: db}, nil
}

func (d *DBExecute) Execute(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	query, ok := params["query"].(string)
	if !ok || query == "" {
		return nil, fmt.Errorf("query: missing required parameter")
	}
	args := toArgs(params["args"])

	if isSelect(query) {
		return d.runQuery(ctx, query, args)
	}
	return d.runExec(ctx, query, args)
}

func (d *DBExecute) runQuery(ctx context.Context, query string, args []interface{}) (map[string]interface{}, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db_execute: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("db_execute: %w", err)
	}

	var out []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(cols))
		pointers := make([]interface{}, len(cols))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("db_execute: %w", err)
		}
		row := make(map[string]interface{}, len(cols))
		for i, c := range cols {
			row[c] = values[i]
		}
		out = append(out, row)
	}
	return map[string]interface{}{"rows": out}, rows.Err()
}

func (d *DBExecute) runExec(ctx context.Context, query string, args []interface{}) (map[string]interface{}, error) {
	result, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db_execute: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("db_execute: %w", err)
	}
	return map[string]interface{}{"rows_affected": affected}, nil
}

func isSelect(query string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "SELECT")
}

func toArgs(v interface{}) []interface{} {
	arr, ok := v.([]interface{})
	if !ok {
		return nil
	}
	return arr
}
