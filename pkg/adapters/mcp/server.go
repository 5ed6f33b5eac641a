package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/coldchain"
	"github.com/aretw0/coldchain/internal/logging"
	"github.com/aretw0/coldchain/pkg/codec"
	"github.com/aretw0/coldchain/pkg/domain"
	"github.com/aretw0/coldchain/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const snapshotURI = "coldchain://snapshot"

// StationsResponse wraps the station list for structured tool output.
type StationsResponse struct {
	Stations []domain.Station `json:"stations" jsonschema_description:"Stations in lifecycle order"`
}

// AlertsResponse wraps the alert window for structured tool output.
type AlertsResponse struct {
	Alerts []domain.Alert `json:"alerts" jsonschema_description:"Invalid transitions, newest first"`
}

// MovementResponse reports the item after a recorded movement.
type MovementResponse struct {
	Item     domain.Item `json:"item" jsonschema_description:"The item after the reading was applied"`
	Decision string      `json:"decision" jsonschema_description:"idempotent, advance or violation"`
	Violated bool        `json:"violated" jsonschema_description:"True when the reading broke the lifecycle order"`
}

// Server exposes a Tracker as an MCP server.
type Server struct {
	tracker   ports.Tracker
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(tracker ports.Tracker, opts ...Option) *Server {
	s := &Server{
		tracker:   tracker,
		mcpServer: server.NewMCPServer("coldchain-mcp", strings.TrimSpace(coldchain.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, for custom transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is canceled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("MCP Server shutting down")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: get_snapshot
	s.mcpServer.AddTool(mcp.NewTool("get_snapshot",
		mcp.WithDescription("Get the full live state: stations, items, recent movements, alerts and statistics."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, err := json.Marshal(s.tracker.Snapshot())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode snapshot: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	// TOOL: get_item
	s.mcpServer.AddTool(mcp.NewTool("get_item",
		mcp.WithDescription("Get one tracked item with its reading history and its own alerts."),
		mcp.WithString("item_id", mcp.Required(), mcp.Description("Item identifier as read by the stations")),
		mcp.WithOutputSchema[domain.Item](),
	), mcp.NewStructuredToolHandler(s.handleGetItem))

	// TOOL: list_stations
	s.mcpServer.AddTool(mcp.NewTool("list_stations",
		mcp.WithDescription("List stations in lifecycle order with status, last reading and item count."),
		mcp.WithOutputSchema[StationsResponse](),
	), mcp.NewStructuredToolHandler(s.handleListStations))

	// TOOL: list_alerts
	s.mcpServer.AddTool(mcp.NewTool("list_alerts",
		mcp.WithDescription("List recent invalid transitions, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of alerts (optional, default all held)")),
		mcp.WithOutputSchema[AlertsResponse](),
	), mcp.NewStructuredToolHandler(s.handleListAlerts))

	// TOOL: record_movement
	s.mcpServer.AddTool(mcp.NewTool("record_movement",
		mcp.WithDescription("Record that an item was read at a station, as a station reader would."),
		mcp.WithString("item_id", mcp.Required(), mcp.Description("Item identifier")),
		mcp.WithString("station", mcp.Required(), mcp.Description("Station ID")),
		mcp.WithOutputSchema[MovementResponse](),
	), mcp.NewStructuredToolHandler(s.handleRecordMovement))
}

func (s *Server) handleGetItem(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (domain.Item, error) {
	id, err := itemID(args)
	if err != nil {
		return domain.Item{}, err
	}
	return s.tracker.Item(id)
}

func (s *Server) handleListStations(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StationsResponse, error) {
	return StationsResponse{Stations: s.tracker.Stations()}, nil
}

func (s *Server) handleListAlerts(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (AlertsResponse, error) {
	limit := 0
	if n, ok := args["limit"].(float64); ok {
		limit = int(n)
	}
	alerts := s.tracker.Alerts(limit)
	if alerts == nil {
		alerts = []domain.Alert{}
	}
	return AlertsResponse{Alerts: alerts}, nil
}

func (s *Server) handleRecordMovement(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (MovementResponse, error) {
	id, err := itemID(args)
	if err != nil {
		return MovementResponse{}, err
	}
	station, _ := args["station"].(string)

	item, verdict, err := s.tracker.Record(ctx, domain.Movement{ItemID: id, Station: station})
	if err != nil {
		s.logger.Warn("MCP record_movement: rejected", "item_id", id, "station", station, "error", err)
		return MovementResponse{}, fmt.Errorf("movement rejected: %w", err)
	}
	return MovementResponse{
		Item:     item,
		Decision: verdict.Decision.String(),
		Violated: verdict.Decision == domain.DecisionViolation,
	}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: coldchain://snapshot
	s.mcpServer.AddResource(mcp.NewResource(snapshotURI, "Live Tracking Snapshot",
		mcp.WithMIMEType("application/json"),
	), s.readSnapshot)
}

func (s *Server) readSnapshot(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	jsonBytes, err := json.Marshal(s.tracker.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      snapshotURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

// itemID reads and sanitizes the item_id argument.
func itemID(args map[string]interface{}) (string, error) {
	raw, _ := args["item_id"].(string)
	id, err := codec.SanitizeItemID(raw)
	if err != nil {
		return "", fmt.Errorf("item_id: %w", err)
	}
	if id == "" {
		return "", fmt.Errorf("item_id is required")
	}
	return id, nil
}
