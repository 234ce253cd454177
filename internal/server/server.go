// Package server exposes the phone SDK as MCP tools so agents can drive the
// device without shelling out per action.
package server

import (
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mj1618/iphone-cli/internal/version"
	"github.com/mj1618/iphone-cli/phone"
)

// Config holds MCP server configuration.
type Config struct {
	Transport string
	Port      int
	CacheTTL  time.Duration
}

// Server wraps the MCP server with the shared phone instance and tree cache.
// The device's command channel serializes hardware access, so concurrent
// tool calls are safe without a server-level lock.
type Server struct {
	phone *phone.Phone
	cache *treeCache
	mcp   *mcpserver.MCPServer
}

// New creates and configures an MCP server with all iphone tools.
func New(p *phone.Phone, cfg Config) *Server {
	s := &Server{
		phone: p,
		cache: newTreeCache(cfg.CacheTTL),
	}
	s.mcp = mcpserver.NewMCPServer(
		"iphone-cli",
		version.Version,
	)
	s.registerTools()
	return s
}

// Serve starts the MCP server with the configured transport.
func (s *Server) Serve(cfg Config) error {
	switch cfg.Transport {
	case "stdio":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		return httpServer.Start(fmt.Sprintf(":%d", cfg.Port))
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", cfg.Transport)
	}
}

func (s *Server) registerTools() {
	// screenshot
	s.mcp.AddTool(
		mcp.NewTool("iphone_screenshot",
			mcp.WithDescription("Capture the device screen as an image. Coordinates in other tools refer to pixels in this image."),
			mcp.WithBoolean("compress", mcp.Description("Downscale and recompress to save tokens (default: true)")),
			mcp.WithBoolean("annotate", mcp.Description("Draw boxes and tap coordinates on interactive elements")),
		),
		s.handleScreenshot,
	)

	// context
	s.mcp.AddTool(
		mcp.NewTool("iphone_context",
			mcp.WithDescription("Capture everything at once: a screenshot image plus screen size, foreground app, alert text, and interactive elements with their tap coordinates."),
			mcp.WithBoolean("no-screenshot", mcp.Description("Skip the image, return only the text summary")),
			mcp.WithNumber("max-elements", mcp.Description("Cap the element list (default: 40)")),
		),
		s.handleContext,
	)

	// tap
	s.mcp.AddTool(
		mcp.NewTool("iphone_tap",
			mcp.WithDescription("Tap the screen at pixel coordinates, or on the first element matching text"),
			mcp.WithNumber("x", mcp.Description("X pixel coordinate")),
			mcp.WithNumber("y", mcp.Description("Y pixel coordinate")),
			mcp.WithString("text", mcp.Description("Find element by text and tap its center")),
		),
		s.handleTap,
	)

	// double tap
	s.mcp.AddTool(
		mcp.NewTool("iphone_double_tap",
			mcp.WithDescription("Double-tap the screen at pixel coordinates"),
			mcp.WithNumber("x", mcp.Description("X pixel coordinate"), mcp.Required()),
			mcp.WithNumber("y", mcp.Description("Y pixel coordinate"), mcp.Required()),
		),
		s.handleDoubleTap,
	)

	// long press
	s.mcp.AddTool(
		mcp.NewTool("iphone_long_press",
			mcp.WithDescription("Touch and hold at pixel coordinates"),
			mcp.WithNumber("x", mcp.Description("X pixel coordinate"), mcp.Required()),
			mcp.WithNumber("y", mcp.Description("Y pixel coordinate"), mcp.Required()),
			mcp.WithNumber("duration", mcp.Description("Hold duration in seconds (default: 1.0)")),
		),
		s.handleLongPress,
	)

	// swipe
	s.mcp.AddTool(
		mcp.NewTool("iphone_swipe",
			mcp.WithDescription("Swipe from one point to another in pixel coordinates"),
			mcp.WithNumber("x1", mcp.Description("Start X"), mcp.Required()),
			mcp.WithNumber("y1", mcp.Description("Start Y"), mcp.Required()),
			mcp.WithNumber("x2", mcp.Description("End X"), mcp.Required()),
			mcp.WithNumber("y2", mcp.Description("End Y"), mcp.Required()),
			mcp.WithNumber("duration", mcp.Description("Swipe duration in seconds (default: 0.5)")),
		),
		s.handleSwipe,
	)

	// type
	s.mcp.AddTool(
		mcp.NewTool("iphone_type",
			mcp.WithDescription("Type text into the focused element. Tap a field first to focus it."),
			mcp.WithString("text", mcp.Description("Text to type"), mcp.Required()),
			mcp.WithBoolean("clear", mcp.Description("Clear the field before typing")),
		),
		s.handleType,
	)

	// key
	s.mcp.AddTool(
		mcp.NewTool("iphone_key",
			mcp.WithDescription("Press a hardware key: home, lock, volumeUp, volumeDown"),
			mcp.WithString("name", mcp.Description("Key name"), mcp.Required()),
		),
		s.handleKey,
	)

	// elements
	s.mcp.AddTool(
		mcp.NewTool("iphone_elements",
			mcp.WithDescription("List visible interactive elements with labels and tap coordinates"),
			mcp.WithNumber("max-elements", mcp.Description("Cap the list (default: 40)")),
		),
		s.handleElements,
	)

	// find
	s.mcp.AddTool(
		mcp.NewTool("iphone_find",
			mcp.WithDescription("Find elements whose label, name, or value contains text (case-insensitive)"),
			mcp.WithString("text", mcp.Description("Text to search for"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Cap the number of hits")),
		),
		s.handleFind,
	)

	// scroll
	s.mcp.AddTool(
		mcp.NewTool("iphone_scroll",
			mcp.WithDescription("Scroll the screen up or down"),
			mcp.WithString("direction", mcp.Description("Scroll direction: up, down"), mcp.Required()),
			mcp.WithNumber("amount", mcp.Description("Fraction of screen height (default: 0.5)")),
		),
		s.handleScroll,
	)

	// scroll-to
	s.mcp.AddTool(
		mcp.NewTool("iphone_scroll_to",
			mcp.WithDescription("Scroll until an element matching text is visible, optionally tapping it"),
			mcp.WithString("text", mcp.Description("Text to search for"), mcp.Required()),
			mcp.WithBoolean("tap", mcp.Description("Tap the element once found")),
			mcp.WithNumber("max-scrolls", mcp.Description("Give up after this many scrolls (default: 15)")),
		),
		s.handleScrollTo,
	)

	// launch
	s.mcp.AddTool(
		mcp.NewTool("iphone_launch",
			mcp.WithDescription("Launch an app by bundle identifier"),
			mcp.WithString("bundle-id", mcp.Description("Bundle identifier (e.g. 'com.apple.mobilesafari')"), mcp.Required()),
		),
		s.handleLaunch,
	)

	// kill
	s.mcp.AddTool(
		mcp.NewTool("iphone_kill",
			mcp.WithDescription("Terminate an app by bundle identifier"),
			mcp.WithString("bundle-id", mcp.Description("Bundle identifier"), mcp.Required()),
		),
		s.handleKill,
	)

	// active app
	s.mcp.AddTool(
		mcp.NewTool("iphone_active_app",
			mcp.WithDescription("Report the app currently in the foreground"),
		),
		s.handleActiveApp,
	)

	// open url
	s.mcp.AddTool(
		mcp.NewTool("iphone_open_url",
			mcp.WithDescription("Open a URL on the device. Custom schemes deep-link into their apps."),
			mcp.WithString("url", mcp.Description("URL to open"), mcp.Required()),
		),
		s.handleOpenURL,
	)

	// alert
	s.mcp.AddTool(
		mcp.NewTool("iphone_alert",
			mcp.WithDescription("Read, accept, or dismiss the current alert"),
			mcp.WithString("action", mcp.Description("read (default), accept, or dismiss")),
		),
		s.handleAlert,
	)

	// clipboard
	s.mcp.AddTool(
		mcp.NewTool("iphone_clipboard",
			mcp.WithDescription("Read or set the device clipboard"),
			mcp.WithString("action", mcp.Description("get (default) or set")),
			mcp.WithString("text", mcp.Description("Text to set")),
		),
		s.handleClipboard,
	)

	// health
	s.mcp.AddTool(
		mcp.NewTool("iphone_health",
			mcp.WithDescription("Read health data from the companion app"),
			mcp.WithString("metric", mcp.Description("steps, heartrate, sleep, workouts, or summary"), mcp.Required()),
			mcp.WithNumber("days", mcp.Description("Days back for steps/sleep/workouts (default: 7)")),
			mcp.WithNumber("limit", mcp.Description("Sample cap for heartrate (default: 20)")),
		),
		s.handleHealth,
	)

	// shortcut
	s.mcp.AddTool(
		mcp.NewTool("iphone_shortcut",
			mcp.WithDescription("List installed Shortcuts automations or run one by name"),
			mcp.WithString("action", mcp.Description("list (default) or run")),
			mcp.WithString("name", mcp.Description("Shortcut name (required for run)")),
		),
		s.handleShortcut,
	)
}
