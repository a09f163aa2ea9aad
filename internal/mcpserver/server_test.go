package mcpserver

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/othala/internal/catalog"
	"github.com/starford/othala/internal/catalogservice"
	"github.com/starford/othala/internal/storage"
	"github.com/starford/othala/internal/testutil"
)

func testServer(t *testing.T) (*Server, storage.Provider) {
	t.Helper()
	_, fs := testutil.TestCatalog(t)
	db := testutil.TestDB(t)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := catalogservice.NewService(catalog.New(fs), fs, db, logger)
	return New(svc), fs
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so the handler
	// functions are invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_catalog":
		result, err = srv.searchCatalog(ctx, req)
	case "read_resource":
		result, err = srv.readResource(ctx, req)
	case "write_resource":
		result, err = srv.writeResource(ctx, req)
	case "version_resource":
		result, err = srv.versionResource(ctx, req)
	case "list_resources":
		result, err = srv.listResources(ctx, req)
	case "list_versions":
		result, err = srv.listVersions(ctx, req)
	case "references_to":
		result, err = srv.referencesTo(ctx, req)
	case "get_resource_contract":
		result, err = srv.getResourceContract(ctx, req)
	case "attach_file":
		result, err = srv.attachFile(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

const orderServiceDoc = `---
id: OrderService
name: Order Service
version: 1.0.0
summary: Handles order intake.
---
# Order Service

Receives cart checkouts and emits order events.
`

func TestWriteAndReadResource(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "write_resource", map[string]interface{}{
		"type":    "service",
		"content": orderServiceDoc,
	})
	if r.IsError {
		t.Fatalf("write_resource failed: %s", resultText(r))
	}
	if text := resultText(r); text != "written: service OrderService@1.0.0" {
		t.Errorf("write result = %q", text)
	}

	r = callTool(t, srv, "read_resource", map[string]interface{}{
		"id": "OrderService",
	})
	if r.IsError {
		t.Fatalf("read_resource failed: %s", resultText(r))
	}
	text := resultText(r)
	if !strings.Contains(text, "id: OrderService") || !strings.Contains(text, "order events") {
		t.Errorf("read result = %q", text)
	}
}

func TestWriteResourceConflict(t *testing.T) {
	srv, _ := testServer(t)

	callTool(t, srv, "write_resource", map[string]interface{}{
		"type": "service", "content": orderServiceDoc,
	})
	r := callTool(t, srv, "write_resource", map[string]interface{}{
		"type": "service", "content": orderServiceDoc,
	})
	if !r.IsError {
		t.Error("second write without override should fail")
	}

	r = callTool(t, srv, "write_resource", map[string]interface{}{
		"type": "service", "content": orderServiceDoc, "override": true,
	})
	if r.IsError {
		t.Errorf("write with override failed: %s", resultText(r))
	}
}

func TestWriteResourceBadInput(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "write_resource", map[string]interface{}{
		"type": "widget", "content": orderServiceDoc,
	})
	if !r.IsError {
		t.Error("unknown type should fail")
	}

	r = callTool(t, srv, "write_resource", map[string]interface{}{
		"type": "service", "content": "no frontmatter here",
	})
	if !r.IsError {
		t.Error("malformed document should fail")
	}
}

func TestVersionAndListVersions(t *testing.T) {
	srv, _ := testServer(t)

	callTool(t, srv, "write_resource", map[string]interface{}{
		"type": "service", "content": orderServiceDoc,
	})
	r := callTool(t, srv, "version_resource", map[string]interface{}{"id": "OrderService"})
	if r.IsError {
		t.Fatalf("version_resource failed: %s", resultText(r))
	}

	v2 := strings.Replace(orderServiceDoc, "version: 1.0.0", "version: 2.0.0", 1)
	callTool(t, srv, "write_resource", map[string]interface{}{
		"type": "service", "content": v2,
	})

	r = callTool(t, srv, "list_versions", map[string]interface{}{"id": "OrderService"})
	text := resultText(r)
	lines := strings.Split(text, "\n")
	if len(lines) != 2 || lines[0] != "2.0.0" {
		t.Errorf("list_versions = %q, want 2.0.0 first", text)
	}

	// An archived version stays readable by exact version.
	r = callTool(t, srv, "read_resource", map[string]interface{}{
		"id": "OrderService", "version": "1.0.0",
	})
	if r.IsError {
		t.Errorf("read archived version failed: %s", resultText(r))
	}
}

func TestListResources(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "list_resources", map[string]interface{}{})
	if text := resultText(r); text != "no resources found" {
		t.Errorf("empty catalog list = %q", text)
	}

	callTool(t, srv, "write_resource", map[string]interface{}{
		"type": "service", "content": orderServiceDoc,
	})
	r = callTool(t, srv, "list_resources", map[string]interface{}{"type": "service"})
	if text := resultText(r); !strings.Contains(text, "OrderService@1.0.0") {
		t.Errorf("list = %q", text)
	}
}

func TestSearchCatalog(t *testing.T) {
	srv, _ := testServer(t)

	callTool(t, srv, "write_resource", map[string]interface{}{
		"type": "service", "content": orderServiceDoc,
	})
	r := callTool(t, srv, "search_catalog", map[string]interface{}{"query": "checkouts"})
	if text := resultText(r); !strings.Contains(text, "OrderService") {
		t.Errorf("search result = %q", text)
	}
}

func TestReadResourceMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_resource", map[string]interface{}{"id": "Nope"})
	if !r.IsError {
		t.Error("expected error for missing resource")
	}
}

func TestReferencesTo(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "references_to", map[string]interface{}{"id": "OrderPlaced"})
	if text := resultText(r); text != "no referencing resources found" {
		t.Errorf("empty refs = %q", text)
	}

	doc := `---
id: OrderService
name: Order Service
version: 1.0.0
sends:
  - id: OrderPlaced
    version: 1.0.0
---
Emits order events.
`
	callTool(t, srv, "write_resource", map[string]interface{}{
		"type": "service", "content": doc,
	})

	r = callTool(t, srv, "references_to", map[string]interface{}{"id": "OrderPlaced"})
	if text := resultText(r); !strings.Contains(text, "services/OrderService/index.md") {
		t.Errorf("references_to = %q", text)
	}
}

func TestServeStopsOnContextCancel(t *testing.T) {
	srv, _ := testServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	in, w := io.Pipe()
	defer w.Close()

	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx, in, io.Discard)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop on context cancellation")
	}
}

func TestGetResourceContract(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_resource_contract", map[string]interface{}{})
	if text := resultText(r); !strings.Contains(text, "frontmatter") {
		t.Errorf("contract = %q", text)
	}
}

func TestAttachFileTool(t *testing.T) {
	srv, fs := testServer(t)

	callTool(t, srv, "write_resource", map[string]interface{}{
		"type": "service", "content": orderServiceDoc,
	})

	r := callTool(t, srv, "attach_file", map[string]interface{}{
		"id": "OrderService", "filename": "openapi.yaml", "content": "openapi: 3.0.0",
	})
	if r.IsError {
		t.Fatalf("attach_file failed: %s", resultText(r))
	}
	data, err := fs.Read("services/OrderService/openapi.yaml")
	if err != nil || string(data) != "openapi: 3.0.0" {
		t.Errorf("attachment = %q, %v", data, err)
	}

	encoded := base64.StdEncoding.EncodeToString([]byte{0x89, 0x50, 0x4e, 0x47})
	r = callTool(t, srv, "attach_file", map[string]interface{}{
		"id": "OrderService", "filename": "diagram.png", "content": encoded, "encoding": "base64",
	})
	if r.IsError {
		t.Fatalf("attach_file base64 failed: %s", resultText(r))
	}
	data, err = fs.Read("services/OrderService/diagram.png")
	if err != nil || len(data) != 4 || data[0] != 0x89 {
		t.Errorf("binary attachment = %v, %v", data, err)
	}
}

func TestAttachFileBadName(t *testing.T) {
	srv, _ := testServer(t)
	callTool(t, srv, "write_resource", map[string]interface{}{
		"type": "service", "content": orderServiceDoc,
	})
	r := callTool(t, srv, "attach_file", map[string]interface{}{
		"id": "OrderService", "filename": "../../evil.sh", "content": "x",
	})
	if r.IsError {
		return
	}
	// The server sanitizes rather than rejects; whatever it wrote must
	// stay inside the resource directory.
	if strings.Contains(resultText(r), "..") {
		t.Errorf("unsanitized filename in result: %q", resultText(r))
	}
}
