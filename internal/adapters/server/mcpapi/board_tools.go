package mcpapi

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/evanschultz/widgethub/internal/adapters/server/common"
	"github.com/evanschultz/widgethub/internal/domain"
)

// widgetKindNames lists accepted kinds for tool schemas.
func widgetKindNames() []string {
	kinds := domain.WidgetKinds()
	out := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		out = append(out, string(kind))
	}
	return out
}

// columnNames lists accepted column ids for tool schemas.
func columnNames() []string {
	ids := domain.ColumnIDs()
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, string(id))
	}
	return out
}

// registerBoardTools registers board read, width, settings and activity tools.
func registerBoardTools(srv *mcpserver.MCPServer, board common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"widgethub.get_board",
			mcp.WithDescription("Return the board: columns, widgets, resolved heights and styling."),
		),
		tagged(func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			view, err := board.GetBoard(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("get_board", view)
		}),
	)

	srv.AddTool(
		mcp.NewTool(
			"widgethub.set_column_width",
			mcp.WithDescription("Set one column width in percent. The three widths may not sum past 100."),
			mcp.WithString("column", mcp.Required(), mcp.Description("Column id"), mcp.Enum(columnNames()...)),
			mcp.WithNumber("width", mcp.Required(), mcp.Description("Width percent, 0-100")),
		),
		tagged(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			column, err := req.RequireString("column")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			width, err := req.RequireInt("width")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			view, err := board.SetColumnWidth(ctx, common.SetColumnWidthRequest{Column: column, Width: width})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("set_column_width", view)
		}),
	)

	srv.AddTool(
		mcp.NewTool(
			"widgethub.update_settings",
			mcp.WithDescription("Change board-level settings: capacity, blur, background, edit mode."),
			mcp.WithNumber("max_widgets_per_column", mcp.Description("Per-column capacity, 1-10")),
			mcp.WithNumber("blur", mcp.Description("Widget backdrop blur, 0-40")),
			mcp.WithString("background_type", mcp.Description("solid or image"), mcp.Enum(string(domain.BackgroundSolid), string(domain.BackgroundImage))),
			mcp.WithString("background_color", mcp.Description("Solid background color")),
			mcp.WithString("background_image", mcp.Description("Background image URL")),
			mcp.WithBoolean("is_editing", mcp.Description("Enter or leave edit mode")),
		),
		tagged(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args struct {
				MaxWidgetsPerColumn *int    `json:"max_widgets_per_column"`
				Blur                *int    `json:"blur"`
				BackgroundType      *string `json:"background_type"`
				BackgroundColor     *string `json:"background_color"`
				BackgroundImage     *string `json:"background_image"`
				IsEditing           *bool   `json:"is_editing"`
			}
			if err := req.BindArguments(&args); err != nil {
				return invalidRequestToolResult(err), nil
			}
			in := common.UpdateSettingsRequest{
				MaxWidgetsPerColumn: args.MaxWidgetsPerColumn,
				Blur:                args.Blur,
				IsEditing:           args.IsEditing,
			}
			if args.BackgroundType != nil || args.BackgroundColor != nil || args.BackgroundImage != nil {
				current, err := board.GetBoard(ctx)
				if err != nil {
					return toolResultFromError(err), nil
				}
				bg := current.Background
				if args.BackgroundType != nil {
					bg.ActiveType = *args.BackgroundType
				}
				if args.BackgroundColor != nil {
					bg.ColorValue = *args.BackgroundColor
				}
				if args.BackgroundImage != nil {
					bg.ImageValue = *args.BackgroundImage
				}
				in.Background = &bg
			}
			view, err := board.UpdateSettings(ctx, in)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("update_settings", view)
		}),
	)

	srv.AddTool(
		mcp.NewTool(
			"widgethub.list_activity",
			mcp.WithDescription("List recent board changes, newest first."),
			mcp.WithNumber("limit", mcp.Description("Maximum rows to return")),
		),
		tagged(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			entries, err := board.ListActivity(ctx, req.GetInt("limit", 25))
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("list_activity", map[string]any{"entries": entries})
		}),
	)
}

// registerWidgetTools registers add/remove/update/move widget tools.
func registerWidgetTools(srv *mcpserver.MCPServer, board common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"widgethub.add_widget",
			mcp.WithDescription("Add a widget to the first column with room."),
			mcp.WithString("kind", mcp.Required(), mcp.Description("Widget kind"), mcp.Enum(widgetKindNames()...)),
		),
		tagged(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			kind, err := req.RequireString("kind")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			res, err := board.AddWidget(ctx, common.AddWidgetRequest{Kind: kind})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("add_widget", res)
		}),
	)

	srv.AddTool(
		mcp.NewTool(
			"widgethub.remove_widget",
			mcp.WithDescription("Remove one widget. Unknown ids are a no-op."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Widget id")),
		),
		tagged(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			res, err := board.RemoveWidget(ctx, id)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("remove_widget", res)
		}),
	)

	srv.AddTool(
		mcp.NewTool(
			"widgethub.update_widget",
			mcp.WithDescription("Change a widget's custom height, position preference or settings."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Widget id")),
			mcp.WithNumber("custom_height", mcp.Description("Height percent, 1-100; 0 clears")),
			mcp.WithString("position_preference", mcp.Description("Sole-widget alignment"), mcp.Enum("top", "middle", "bottom", "auto")),
			mcp.WithObject("settings", mcp.Description("Keys to merge into the widget settings")),
		),
		tagged(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args struct {
				ID                 string         `json:"id"`
				CustomHeight       *int           `json:"custom_height"`
				PositionPreference *string        `json:"position_preference"`
				Settings           map[string]any `json:"settings"`
			}
			if err := req.BindArguments(&args); err != nil {
				return invalidRequestToolResult(err), nil
			}
			if strings.TrimSpace(args.ID) == "" {
				return mcp.NewToolResultError(`invalid_request: required argument "id" not found`), nil
			}
			view, err := board.UpdateWidget(ctx, common.UpdateWidgetRequest{
				ID:                 args.ID,
				CustomHeight:       args.CustomHeight,
				PositionPreference: args.PositionPreference,
				Settings:           args.Settings,
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("update_widget", view)
		}),
	)

	srv.AddTool(
		mcp.NewTool(
			"widgethub.move_widget",
			mcp.WithDescription("Drop a widget at the end of a column or next to another widget."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Widget id to move")),
			mcp.WithString("column", mcp.Description("Target column id"), mcp.Enum(columnNames()...)),
			mcp.WithString("target_widget_id", mcp.Description("Widget to drop next to; wins over column")),
			mcp.WithBoolean("below", mcp.Description("Insert after target_widget_id instead of before")),
		),
		tagged(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			res, err := board.MoveWidget(ctx, common.MoveWidgetRequest{
				WidgetID:       id,
				Column:         req.GetString("column", ""),
				TargetWidgetID: req.GetString("target_widget_id", ""),
				Below:          req.GetBool("below", false),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("move_widget", res)
		}),
	)
}

// registerSnapshotTools registers export and import tools.
func registerSnapshotTools(srv *mcpserver.MCPServer, board common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"widgethub.export_snapshot",
			mcp.WithDescription("Return the board as a portable JSON document."),
		),
		tagged(func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			data, err := board.ExportSnapshot(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return mcp.NewToolResultText(string(data)), nil
		}),
	)

	srv.AddTool(
		mcp.NewTool(
			"widgethub.import_snapshot",
			mcp.WithDescription("Replace the whole board with a JSON document. Invalid documents change nothing."),
			mcp.WithString("document", mcp.Required(), mcp.Description("Snapshot JSON text")),
		),
		tagged(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			document, err := req.RequireString("document")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			view, err := board.ImportSnapshot(ctx, []byte(document))
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("import_snapshot", view)
		}),
	)
}
