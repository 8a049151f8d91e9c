package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/mcp-training/merge2048/api"
	"github.com/wricardo/mcp-training/merge2048/transport/mcp"
	"github.com/wricardo/mcp-training/merge2048/transport/websocket"
)

const (
	shutdownTimeout = 10 * time.Second
	mcpAPITimeout   = 10 * time.Second
)

// newHandler builds the REST API, WebSocket hub and /mcp endpoint. The MCP
// tools proxy to the REST API at apiURL.
func (a *app) newHandler(apiURL string) (http.Handler, *websocket.Hub) {
	hub := websocket.NewHub(websocket.WithLogger(a.logger.Named("websocket")))
	apiServer := api.NewServer(a.service, hub, api.WithLogger(a.logger.Named("api")))
	mcpClient := a.newMCPClient(apiURL)

	router := apiServer.Router()
	router.Handle("/mcp", mcpClient.HTTPHandler())
	return router, hub
}

// newMCPClient builds the MCP tool server proxying to the REST API at apiURL
func (a *app) newMCPClient(apiURL string) *mcp.Client {
	return mcp.NewClient(apiURL,
		mcp.WithLogger(a.logger.Named("mcp")),
		mcp.WithHTTPClient(&http.Client{Timeout: mcpAPITimeout}))
}

// runServe starts the HTTP server with REST API, WebSocket hub, and an /mcp endpoint.
// If ngrok is enabled, it also provisions a public tunnel.
func runServe(ctx context.Context, cmd *cli.Command) error {
	a, err := initializeServices(cmd)
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	addr := fmt.Sprintf("%s:%d", cmd.String("host"), int(cmd.Int("port")))
	handler, hub := a.newHandler("http://" + addr)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	a.logger.Info("starting",
		zap.String("app", AppName),
		zap.String("version", Version),
		zap.String("config_dir", cmd.String("config-dir")),
		zap.String("public_url", publicURL(cmd)))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return hub.Run(gctx)
	})

	g.Go(func() error {
		return a.sessions.RunCleanup(gctx, sessionCleanupInterval, cmd.Duration("session-ttl"))
	})

	g.Go(func() error {
		a.logger.Info("HTTP server listening",
			zap.String("rest_api", "http://"+addr+"/api"),
			zap.String("websocket", "ws://"+addr+"/ws?session=<session_id>"),
			zap.String("mcp", "http://"+addr+"/mcp"))

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "HTTP server failed")
		}
		return nil
	})

	if cmd.Bool("ngrok") {
		g.Go(func() error {
			serveNgrok(gctx, a.logger.Named("ngrok"), cmd.String("ngrok-auth"), cmd.String("ngrok-domain"), handler)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Wrap(httpServer.Shutdown(shutdownCtx), "HTTP server shutdown")
	})

	err = g.Wait()
	a.logger.Info("server stopped")
	return err
}

// serveNgrok exposes handler through an ngrok tunnel until ctx is done.
// Tunnel failures are logged; the local server keeps running.
func serveNgrok(ctx context.Context, logger *zap.Logger, authToken, domain string, handler http.Handler) {
	if authToken == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		logger.Info("using custom ngrok domain", zap.String("domain", domain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", zap.Error(err))
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Warn("failed to close ngrok tunnel", zap.Error(err))
		}
	}()

	ngrokURL := tun.URL()
	logger.Info("ngrok tunnel established",
		zap.String("url", ngrokURL),
		zap.String("rest_api", ngrokURL+"/api"),
		zap.String("websocket", ngrokURL+"/ws?session=<session_id>"),
		zap.String("mcp", ngrokURL+"/mcp"))

	if err := http.Serve(tun, handler); err != nil && ctx.Err() == nil {
		logger.Warn("ngrok server error", zap.Error(err))
	}
	logger.Info("ngrok tunnel closed")
}

// apiAvailable reports whether an API server answers health checks at baseURL
func apiAvailable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCP runs an MCP stdio server.
// It tries to reuse an API server at --host/--port; if unavailable, it
// starts an internal HTTP API bound to a random loopback port and targets that.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	a, err := initializeServices(cmd)
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	externalURL := fmt.Sprintf("http://%s:%d", cmd.String("host"), int(cmd.Int("port")))
	baseURL := externalURL

	g, gctx := errgroup.WithContext(ctx)
	var httpServer *http.Server

	if apiAvailable(ctx, externalURL) {
		a.logger.Info("external API server found, using it for MCP", zap.String("url", externalURL))
	} else {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return errors.Wrap(err, "failed to get available port")
		}
		baseURL = "http://" + listener.Addr().String()
		a.logger.Info("no external API server found, starting internal HTTP server", zap.String("url", baseURL))

		handler, hub := a.newHandler(baseURL)
		httpServer = &http.Server{Handler: handler}

		g.Go(func() error {
			return hub.Run(gctx)
		})
		g.Go(func() error {
			return a.sessions.RunCleanup(gctx, sessionCleanupInterval, cmd.Duration("session-ttl"))
		})
		g.Go(func() error {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				return errors.Wrap(err, "internal HTTP server failed")
			}
			return nil
		})
	}

	mcpClient := a.newMCPClient(baseURL)
	a.logger.Info("MCP stdio server ready", zap.String("api", baseURL))

	g.Go(func() error {
		stdioServer := server.NewStdioServer(mcpClient.GetMCPServer())
		err := stdioServer.Listen(gctx, os.Stdin, os.Stdout)
		if err != nil && gctx.Err() == nil {
			return errors.Wrap(err, "MCP stdio server error")
		}
		return errStdioClosed
	})

	if httpServer != nil {
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, errStdioClosed) {
		return err
	}
	return nil
}

// errStdioClosed stops the other goroutines once the MCP client hangs up
var errStdioClosed = errors.New("stdio closed")
