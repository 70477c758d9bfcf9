package nodes

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dshills/agentgraph-go/dag"
)

// FileWriteDescriptor describes the file_write node. Writing a byte
// slice to a path is exactly what os.WriteFile does; nothing in the
// reference corpus wraps this in a third-party library.
var FileWriteDescriptor = dag.Descriptor{
	Type:        "file_write",
	Name:        "File Write",
	Description: "Writes content to a file path, creating parent directories as needed.",
	Params: map[string]dag.ParamSchema{
		"path":    {Type: "string", Required: true, Description: "destination path"},
		"content": {Type: "string", Required: true, Description: "file content"},
	},
	Outputs: map[string]string{"bytes_written": "number of bytes written"},
}

type FileWrite struct{}

func (FileWrite) Execute(_ context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return nil, fmt.Errorf("path: missing required parameter")
	}
	content, _ := params["content"].(string)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("file_write: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("file_write: %w", err)
	}
	return map[string]interface{}{"bytes_written": len(content)}, nil
}
