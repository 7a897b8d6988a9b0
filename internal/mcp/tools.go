package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/typelink/internal/analyzer"
	"github.com/mvp-joe/typelink/internal/errors"
	"github.com/mvp-joe/typelink/internal/nature"
	"github.com/mvp-joe/typelink/internal/resolve"
)

// Kind filters accepted by typelink_list.
var listFilters = map[string]func(nature.Nature) bool{
	"struct":    nature.IsStruct,
	"enum":      nature.IsEnum,
	"flat_enum": nature.IsFlatEnum,
	"func":      nature.IsNamedFunc,
}

// LookupRequest represents the typelink_lookup parameters.
type LookupRequest struct {
	Name string `json:"name"`
}

// LookupResponse describes one registered nature.
type LookupResponse struct {
	Name         string          `json:"name"`
	Kind         string          `json:"kind"`
	Flat         bool            `json:"flat,omitempty"`
	SelfReturned bool            `json:"self_returned,omitempty"`
	Definition   nature.Nature   `json:"definition"`
	Dependencies []string        `json:"dependencies"`
	Dependents   []string        `json:"dependents"`
	Context      *nature.Context `json:"context,omitempty"`
}

// ListRequest represents the typelink_list parameters.
type ListRequest struct {
	Kind string `json:"kind"`
}

// ListResponse lists registered names.
type ListResponse struct {
	RunID string   `json:"run_id"`
	Kind  string   `json:"kind,omitempty"`
	Names []string `json:"names"`
	Total int      `json:"total"`
}

// AddLookupTool registers typelink_lookup.
func AddLookupTool(s *server.MCPServer, state *State) {
	tool := mcp.NewTool(
		"typelink_lookup",
		mcp.WithDescription("Look up one extracted type or function by name. Returns its kind, full definition as JSON, enum flatness, whether it returns Self, and which registered names it references or is referenced by."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Registered name, e.g. 'Session' or 'handshake'")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)
	s.AddTool(tool, createLookupHandler(state))
}

func createLookupHandler(state *State) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var req LookupRequest
		if err := bindArguments(request, &req); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if req.Name == "" {
			return mcp.NewToolResultError("name parameter is required"), nil
		}

		result, graph := state.current()
		n, ok := result.Natures.Get(req.Name)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown name: %s", req.Name)), nil
		}

		resp := LookupResponse{
			Name:         req.Name,
			Kind:         n.Kind().String(),
			Flat:         nature.IsFlatEnum(n),
			SelfReturned: nature.IsSelfReturned(n),
			Definition:   n,
		}
		if named, ok := n.(nature.Named); ok {
			c := named.Context()
			resp.Context = &c
		}

		var err error
		if resp.Dependencies, err = graph.Dependencies(req.Name); err != nil {
			return nil, err
		}
		if resp.Dependents, err = graph.Dependents(req.Name); err != nil {
			return nil, err
		}

		return jsonResult(resp)
	}
}

// AddListTool registers typelink_list.
func AddListTool(s *server.MCPServer, state *State) {
	tool := mcp.NewTool(
		"typelink_list",
		mcp.WithDescription("List the names of extracted types and functions, optionally filtered by kind."),
		mcp.WithString("kind",
			mcp.Description("Filter: 'struct', 'enum', 'flat_enum' (enums whose variants carry no values) or 'func'. Omit for all."),
			mcp.Enum("struct", "enum", "flat_enum", "func")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)
	s.AddTool(tool, createListHandler(state))
}

func createListHandler(state *State) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var req ListRequest
		if err := bindArguments(request, &req); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		keep := func(nature.Nature) bool { return true }
		if req.Kind != "" {
			filter, ok := listFilters[req.Kind]
			if !ok {
				return mcp.NewToolResultError(fmt.Sprintf("invalid kind: %s (must be one of: struct, enum, flat_enum, func)", req.Kind)), nil
			}
			keep = filter
		}

		result, _ := state.current()
		names := []string{}
		for _, name := range result.Natures.Names() {
			n, _ := result.Natures.Get(name)
			if keep(n) {
				names = append(names, name)
			}
		}

		return jsonResult(ListResponse{
			RunID: result.RunID,
			Kind:  req.Kind,
			Names: names,
			Total: len(names),
		})
	}
}

// AddCheckTool registers typelink_check.
func AddCheckTool(s *server.MCPServer, state *State) {
	tool := mcp.NewTool(
		"typelink_check",
		mcp.WithDescription("Report references to unknown names, reference cycles, the dependency-first emission order and the declarations skipped by the last analysis run."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)
	s.AddTool(tool, createCheckHandler(state))
}

// CheckResponse is the typelink_check payload.
type CheckResponse struct {
	RunID       string                `json:"run_id"`
	Unresolved  []resolve.Unresolved  `json:"unresolved"`
	Cycles      [][]string            `json:"cycles"`
	Order       []string              `json:"order"`
	Diagnostics []analyzer.Diagnostic `json:"diagnostics"`
}

func createCheckHandler(state *State) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, graph := state.current()
		report, err := graph.Report()
		if err != nil {
			return nil, err
		}
		return jsonResult(CheckResponse{
			RunID:       result.RunID,
			Unresolved:  report.Unresolved,
			Cycles:      report.Cycles,
			Order:       report.Order,
			Diagnostics: result.Diagnostics,
		})
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal response")
	}
	return mcp.NewToolResultText(string(data)), nil
}
