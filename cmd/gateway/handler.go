// In file: cmd/gateway/handler.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/aquataze/tool-gateway/internal/api"
	"github.com/aquataze/tool-gateway/internal/batch"
	"github.com/aquataze/tool-gateway/internal/tools"
	"github.com/aquataze/tool-gateway/internal/version"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// =================================================================================
// Gateway Handler
// =================================================================================
// Every tool endpoint follows the same batch contract:
//   - OPTIONS returns a self-description with a demo body and response.
//   - GET takes one item from the query string.
//   - POST takes one object or an array of up to maxItems objects.
// Items run in parallel and each reports its own status. Only a malformed body
// or an oversized batch fails the whole call.
// =================================================================================

const requestIDHeader = "X-Request-ID"

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type GatewayHandler struct {
	toolManager *tools.ToolManager
	maxItems    int
	checks      map[string]Pinger
}

func NewGatewayHandler(toolManager *tools.ToolManager, maxItems int, checks map[string]Pinger) *GatewayHandler {
	if maxItems <= 0 {
		maxItems = batch.MaxItems
	}
	return &GatewayHandler{toolManager: toolManager, maxItems: maxItems, checks: checks}
}

// registerRoutes mounts every endpoint on engine.
func registerRoutes(engine *gin.Engine, h *GatewayHandler) {
	engine.Use(requestID())
	engine.GET("/healthz", h.HandleHealth)

	v1 := engine.Group("/api/v1")
	{
		v1.OPTIONS("/ip", h.describe(ipDescription))
		v1.GET("/ip", h.HandleIP)
		v1.POST("/ip", h.HandleIP)

		v1.OPTIONS("/screenshot", h.describe(screenshotDescription))
		v1.GET("/screenshot", h.HandleScreenshot)
		v1.POST("/screenshot", h.HandleScreenshot)

		v1.OPTIONS("/tools", h.HandleToolOptions)
		v1.POST("/tools", h.HandleToolCall)
	}
}

// requestID tags every request with an ID, reusing the caller's when present.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (h *GatewayHandler) HandleIP(c *gin.Context) {
	h.runTool(c, "IPAddressLookUp", "IP information retrieved successfully.")
}

func (h *GatewayHandler) HandleScreenshot(c *gin.Context) {
	h.runTool(c, "getWebsiteScreenshot", "Screenshots captured successfully.")
}

// HandleToolCall dispatches each item on its own functionName.
func (h *GatewayHandler) HandleToolCall(c *gin.Context) {
	h.handleBatch(c, "Tool calls completed.", func(ctx context.Context, item json.RawMessage) (any, error) {
		var call api.ToolCallRequest
		if err := json.Unmarshal(item, &call); err != nil {
			return nil, fmt.Errorf("tool call must be a JSON object: %w", api.ErrInvalidArgument)
		}
		log.Printf("🛠️ [%s] Dispatching %s", c.GetString(requestIDHeader), call.FunctionName)
		return h.toolManager.Execute(ctx, call.FunctionName, item)
	})
}

func (h *GatewayHandler) HandleToolOptions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"description": "Dispatches a call to one of the tools below. Every item names its tool in functionName; the remaining fields are the tool's parameters.",
		"requiredParams": map[string]string{
			"functionName": "Name of the tool to call (required)",
		},
		"demoBody": []map[string]any{
			{"functionName": "IPAddressLookUp", "ip": "4.2.2.1"},
			{"functionName": "getTodaysWeather", "city": "Portage", "state": "MI", "country": "US"},
		},
		"tools": h.toolManager.GetDefinitions(),
	})
}

func (h *GatewayHandler) HandleHealth(c *gin.Context) {
	status := http.StatusOK
	services := make(map[string]string, len(h.checks))
	for name, p := range h.checks {
		if err := p.Ping(c.Request.Context()); err != nil {
			services[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		services[name] = "ok"
	}
	c.JSON(status, gin.H{
		"status":   status == http.StatusOK,
		"version":  version.Get(),
		"tools":    h.toolManager.ToolCount(),
		"services": services,
	})
}

func (h *GatewayHandler) describe(d api.Description) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, d)
	}
}

func (h *GatewayHandler) runTool(c *gin.Context, name, message string) {
	tool, err := h.toolManager.Lookup(name)
	if err != nil {
		c.JSON(api.StatusOf(err), api.ErrorResponse(err))
		return
	}
	h.handleBatch(c, message, tool.Execute)
}

func (h *GatewayHandler) handleBatch(c *gin.Context, message string, fn batch.ItemFunc) {
	items, err := h.readItems(c)
	if err != nil {
		log.Printf("⚠️ [%s] Rejected %s %s: %v", c.GetString(requestIDHeader), c.Request.Method, c.FullPath(), err)
		c.JSON(api.StatusOf(err), api.ErrorResponse(err))
		return
	}

	results, err := batch.Run(c.Request.Context(), items, fn)
	if err != nil {
		c.JSON(api.StatusOf(err), api.ErrorResponse(err))
		return
	}

	failed := 0
	for _, r := range results {
		if !r.Status {
			failed++
		}
	}
	log.Printf("✅ [%s] %s %s: %d items, %d failed", c.GetString(requestIDHeader), c.Request.Method, c.FullPath(), len(results), failed)

	c.JSON(http.StatusOK, api.Envelope{Status: true, Message: message, Data: results})
}

// readItems turns a GET query string into a single item, or splits a POST body.
func (h *GatewayHandler) readItems(c *gin.Context) ([]json.RawMessage, error) {
	if c.Request.Method == http.MethodGet {
		params := make(map[string]string)
		for key, values := range c.Request.URL.Query() {
			if len(values) > 0 {
				params[key] = values[0]
			}
		}
		item, err := json.Marshal(params)
		if err != nil {
			return nil, err
		}
		return []json.RawMessage{item}, nil
	}

	body, err := c.GetRawData()
	if err != nil {
		return nil, err
	}
	return batch.Decode(body, h.maxItems)
}
