// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the Othala catalog for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/othala/internal/catalog"
	"github.com/starford/othala/internal/catalogservice"
	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/parser"
)

// Server wraps the MCP server with Othala catalog tools.
type Server struct {
	mcp *server.MCPServer
	svc *catalogservice.Service
}

// New creates a new MCP server with all catalog tools registered.
func New(svc *catalogservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Othala",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_catalog",
		mcp.WithDescription("Full-text search through catalog resource names, summaries, and bodies."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchCatalog)

	s.mcp.AddTool(mcp.NewTool("read_resource",
		mcp.WithDescription("Read a catalog resource by id. The version may be 'latest' (default), "+
			"an exact semantic version, or a range such as '0.0.x' or '^1.2.0'."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Resource id (e.g. OrderService)")),
		mcp.WithString("version", mcp.Description("Version token (default: latest)")),
	), s.readResource)

	s.mcp.AddTool(mcp.NewTool("write_resource",
		mcp.WithDescription("Write a catalog resource. Content MUST follow the canonical resource "+
			"format (YAML frontmatter with id and version, Markdown body). Read the contract first "+
			"via the get_resource_contract tool or the othala://resource-format resource."),
		mcp.WithString("type", mcp.Required(), mcp.Description("Resource type: domain, service, event, command, query, or channel")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Resource document following the Othala format contract")),
		mcp.WithBoolean("override", mcp.Description("Replace the resource if it already exists")),
	), s.writeResource)

	s.mcp.AddTool(mcp.NewTool("version_resource",
		mcp.WithDescription("Archive the current version of a resource into its versioned/ history, "+
			"freeing the primary location for a new version. Write the new version immediately after."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Resource id to archive")),
	), s.versionResource)

	s.mcp.AddTool(mcp.NewTool("list_resources",
		mcp.WithDescription("List catalog resources, optionally filtered by type."),
		mcp.WithString("type", mcp.Description("Optional type filter (domain, service, event, command, query, channel)")),
	), s.listResources)

	s.mcp.AddTool(mcp.NewTool("list_versions",
		mcp.WithDescription("List every stored version of a resource id, latest first."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Resource id")),
	), s.listVersions)

	s.mcp.AddTool(mcp.NewTool("references_to",
		mcp.WithDescription("Find all resources whose reference lists point at the specified id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Resource id to find referencing resources for")),
	), s.referencesTo)

	s.mcp.AddTool(mcp.NewTool("get_resource_contract",
		mcp.WithDescription("Returns the canonical Othala resource format contract. "+
			"Call this before creating or updating resources to ensure correct structure."),
	), s.getResourceContract)

	s.mcp.AddTool(mcp.NewTool("attach_file",
		mcp.WithDescription("Attach an auxiliary file (schema, diagram, example payload) to a resolved "+
			"resource directory without touching the resource document."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Resource id")),
		mcp.WithString("filename", mcp.Required(), mcp.Description("Plain file name, no path separators")),
		mcp.WithString("content", mcp.Required(), mcp.Description("File content (UTF-8 text, or base64 with encoding=base64)")),
		mcp.WithString("encoding", mcp.Description("Content encoding: 'text' (default) or 'base64'")),
		mcp.WithString("version", mcp.Description("Version token (default: latest)")),
	), s.attachFile)

	// Resource: catalog format contract.
	s.mcp.AddResource(
		mcp.NewResource("othala://resource-format", "Resource Format Contract",
			mcp.WithResourceDescription("Canonical resource document format every catalog entry must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readResourceFormatResource,
	)

	return s
}

// Serve runs the MCP server over the given streams until ctx is cancelled
// or the input stream closes.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchCatalog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readResource(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	version := ""
	if v, vErr := req.RequireString("version"); vErr == nil {
		version = v
	}
	r, err := s.svc.GetResource(ctx, id, version)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s@%s", id, versionOrLatest(version))), nil
	}
	data, err := parser.Marshal(r)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) writeResource(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typ, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t := models.ResourceType(typ)
	if !t.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown resource type: %s", typ)), nil
	}

	r, err := parser.Parse([]byte(content))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid resource document: %v", err)), nil
	}

	override := req.GetBool("override", false)
	if err := s.svc.WriteResource(ctx, t, r, catalog.WriteOptions{Override: override}); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("written: %s %s@%s", typ, r.ID, r.Version)), nil
}

func (s *Server) versionResource(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.VersionResource(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("archived current version of %s", id)), nil
}

func (s *Server) listResources(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typ := ""
	if v, tErr := req.RequireString("type"); tErr == nil {
		typ = v
	}
	rows, err := s.svc.ListResources(ctx, typ, true, 200, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var lines []string
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("%s\t%s@%s\t%s", r.Type, r.ID, r.Version, r.Name))
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no resources found"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) listVersions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	versions, err := s.svc.VersionsOf(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(versions) == 0 {
		return mcp.NewToolResultText("no versions found"), nil
	}
	return mcp.NewToolResultText(strings.Join(versions, "\n")), nil
}

func (s *Server) referencesTo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sources, err := s.svc.ReferencesTo(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(sources) == 0 {
		return mcp.NewToolResultText("no referencing resources found"), nil
	}
	return mcp.NewToolResultText(strings.Join(sources, "\n")), nil
}

func (s *Server) getResourceContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ResourceFormatContract), nil
}

func (s *Server) readResourceFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "othala://resource-format",
			MIMEType: "text/markdown",
			Text:     ResourceFormatContract,
		},
	}, nil
}

func versionOrLatest(v string) string {
	if v == "" {
		return catalog.Latest
	}
	return v
}
