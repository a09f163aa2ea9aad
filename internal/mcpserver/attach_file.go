package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/othala/internal/models"
)

const maxAttachmentSize = 10 << 20 // 10 MB

var safeFilenameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

type attachResult struct {
	ID       string `json:"id"`
	Version  string `json:"version"`
	FileName string `json:"fileName"`
	Size     int    `json:"size"`
}

func (s *Server) attachFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filename, err := req.RequireString("filename")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	version := req.GetString("version", "")

	var data []byte
	switch enc := req.GetString("encoding", "text"); enc {
	case "text":
		data = []byte(content)
	case "base64":
		data, err = base64.StdEncoding.DecodeString(content)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid base64 content: %v", err)), nil
		}
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unsupported encoding: %s", enc)), nil
	}

	if len(data) > maxAttachmentSize {
		return mcp.NewToolResultError(fmt.Sprintf("file too large: %d bytes (max %d)", len(data), maxAttachmentSize)), nil
	}

	filename = sanitizeFilename(filename)
	if filename == "" {
		return mcp.NewToolResultError("filename reduces to empty after sanitization"), nil
	}

	file := models.AttachedFile{FileName: filename, Content: data}
	if err := s.svc.AttachFile(ctx, id, file, version); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to attach file: %v", err)), nil
	}

	out, _ := json.Marshal(attachResult{
		ID:       id,
		Version:  versionOrLatest(version),
		FileName: filename,
		Size:     len(data),
	})
	return mcp.NewToolResultText(string(out)), nil
}

// sanitizeFilename strips everything outside [a-zA-Z0-9._-].
func sanitizeFilename(name string) string {
	return safeFilenameRe.ReplaceAllString(name, "")
}
