package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/lemonberrylabs/lumin/pkg/api"
	grpcapi "github.com/lemonberrylabs/lumin/pkg/api/grpc"
	"github.com/lemonberrylabs/lumin/pkg/store"
	"github.com/lemonberrylabs/lumin/pkg/transpiler"
	"github.com/lemonberrylabs/lumin/web"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, web playground and gRPC service",
		RunE:  runServe,
	}
	cmd.Flags().Int("port", 0, "HTTP server port (default 8787, env PORT)")
	cmd.Flags().Int("grpc-port", 0, "gRPC server port (default 8788, env GRPC_PORT)")
	cmd.Flags().String("host", "", "Bind address (default 0.0.0.0, env HOST)")
	cmd.Flags().String("sources", "", "Directory of .lum files to load as units (env LUMIN_SOURCES)")
	cmd.Flags().Bool("access-log", false, "Log every HTTP request")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	port := envOrDefault("PORT", "8787")
	if v, _ := cmd.Flags().GetInt("port"); v != 0 {
		port = fmt.Sprintf("%d", v)
	}

	grpcPort := envOrDefault("GRPC_PORT", "8788")
	if v, _ := cmd.Flags().GetInt("grpc-port"); v != 0 {
		grpcPort = fmt.Sprintf("%d", v)
	}

	host := envOrDefault("HOST", "0.0.0.0")
	if v, _ := cmd.Flags().GetString("host"); v != "" {
		host = v
	}

	sourcesDir := os.Getenv("LUMIN_SOURCES")
	if v, _ := cmd.Flags().GetString("sources"); v != "" {
		sourcesDir = v
	}
	if sourcesDir == "" && cfg.Sources != "." {
		sourcesDir = cfg.SourcesDir()
	}

	accessLog, _ := cmd.Flags().GetBool("access-log")

	addr := fmt.Sprintf("%s:%s", host, port)
	grpcAddr := fmt.Sprintf("%s:%s", host, grpcPort)

	s := store.New()
	tr := transpiler.New(cfg.TranspilerOptions())
	server := api.New(s, tr, api.Options{AccessLog: accessLog})

	if sourcesDir != "" {
		if _, err := server.LoadDir(sourcesDir); err != nil {
			log.Printf("Warning: failed to load sources directory: %v", err)
		}
	}

	// Register the web UI (non-fatal if template parsing fails)
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Warning: web UI disabled due to template error: %v", r)
			}
		}()
		ui := web.New(s, tr)
		ui.Register(server.App())
	}()

	grpcServer := grpcapi.New(s, tr)
	go func() {
		log.Printf("gRPC server listening on %s", grpcAddr)
		if err := grpcServer.Serve(grpcAddr); err != nil {
			log.Fatalf("gRPC server error: %v", err)
		}
	}()

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down luminc...")
		grpcServer.GracefulStop()
		if err := server.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	log.Printf("luminc listening on %s", addr)
	if sourcesDir != "" {
		log.Printf("Sources directory: %s", sourcesDir)
	} else {
		log.Printf("API-only mode (no --sources specified)")
	}
	return server.Listen(addr)
}
