package nodes

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/agentgraph-go/dag"
	_ "modernc.org/sqlite"
)

// IndexBuildDescriptor describes the index_build node: walks DOC_DIR,
// writes a FTS5 full-text index of every file's contents to a SQLite
// database under INDEX_DIR, and reports how many documents were indexed.
var IndexBuildDescriptor = dag.Descriptor{
	Type:        "index_build",
	Name:        "Document Index Build",
	Description: "Builds a full-text search index of DOC_DIR into INDEX_DIR.",
	Params: map[string]dag.ParamSchema{
		"glob": {Type: "string", Required: false, Description: "glob filter, default *"},
	},
	Outputs: map[string]string{"documents_indexed": "count of documents indexed"},
}

// IndexBuild owns the SQLite connection backing the index; one instance
// is shared by every workflow run that includes an index_build node.
type IndexBuild struct {
	docDir   string
	indexDir string
	db       *sql.DB
}

// NewIndexBuild opens (creating if absent) the FTS5 index database under
// indexDir, ready to rebuild from docDir on each Execute call.
func NewIndexBuild(docDir, indexDir string) (*IndexBuild, error) {
	if err := os.MkdirAll(indexDir, 0o755); err != nil {
		return nil, fmt.Errorf("index_build: %w", err)
	}
	db, err := sql.Open("sqlite", filepath.Join(indexDir, "documents.db"))
	if err != nil {
		return nil, fmt.Errorf("index_build: %w", err)
	}
	if _, err := db.Exec(`CREATE VIRTUAL TABLE IF NOT EXISTS documents USING fts5(path, content)`); err != nil {
		return nil, fmt.Errorf("index_build: %w", err)
	}
	return &IndexBuild{docDir: docDir, indexDir: indexDir, db: db}, nil
}

func (ib *IndexBuild) Execute(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	pattern := "*"
	if p, ok := params["glob"].(string); ok && p != "" {
		pattern = p
	}

	if _, err := ib.db.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return nil, fmt.Errorf("index_build: %w", err)
	}

	count := 0
	err := filepath.WalkDir(ib.docDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		matched, matchErr := filepath.Match(pattern, d.Name())
		if matchErr != nil || !matched {
			return nil
		}
		content, readErr := os.ReadFile(path)
		if readErr != nil {
			return readErr
		}
		if _, execErr := ib.db.ExecContext(ctx, `INSERT INTO documents (path, content) VALUES (?, ?)`, path, string(content)); execErr != nil {
			return execErr
		}
		count++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("index_build: %w", err)
	}
	return map[string]interface{}{"documents_indexed": count}, nil
}

// Search queries the FTS5 index, used by the serper_search node's local
// fallback path when SERPER_API_KEY is unset.
func (ib *IndexBuild) Search(ctx context.Context, query string) ([]string, error) {
	rows, err := ib.db.QueryContext(ctx, `SELECT path FROM documents WHERE documents MATCH ? LIMIT 20`, normalizeQuery(query))
	if err != nil {
		return nil, fmt.Errorf("index_build: search: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

func normalizeQuery(q string) string {
	return strings.TrimSpace(q)
}
