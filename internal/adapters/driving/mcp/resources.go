package mcp

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// uriScheme is the custom URI scheme for tagger resources.
const uriScheme = "tanatag://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "pending",
		Name:        "pending",
		Description: "Pending tag suggestions awaiting review, grouped per note",
		MIMEType:    "application/json",
	}, s.handlePendingResource)
}

// handlePendingResource returns the pending review queue as JSON.
func (s *Server) handlePendingResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	queue, err := s.ports.Review.PendingQueue(ctx)
	if err != nil {
		return nil, err
	}

	targets := make([]TargetOutput, 0, len(queue))
	for _, target := range queue {
		out := TargetOutput{
			NoteID: target.Note.ID,
			Title:  target.Note.Title,
			Path:   target.Note.Path(),
		}
		for _, suggestion := range target.Suggestions {
			out.Suggestions = append(out.Suggestions, SuggestionOutput{
				LabelID:    suggestion.LabelID,
				LabelName:  suggestion.LabelName,
				Score:      suggestion.Score,
				Confidence: string(suggestion.Confidence()),
			})
		}
		targets = append(targets, out)
	}

	data, err := json.MarshalIndent(targets, "", "  ")
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
