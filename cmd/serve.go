package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"face-profile/internal/blob"
	"face-profile/internal/config"
	"face-profile/internal/directory"
	"face-profile/internal/faceapi"
	"face-profile/internal/web"
	"face-profile/internal/web/middleware"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Face Profile web server.
The server signs users in through the identity provider, serves the
profile API and runs the picture verification workflow against the
face recognition service and blob storage.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().String("session-secret", "", "Secret for signing session cookies (defaults to random)")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")
	sessionSecret := mustGetString(cmd, "session-secret")

	if sessionSecret == "" {
		sessionSecret = os.Getenv("WEB_SESSION_SECRET")
	}
	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host, sessionSecret
}

// buildServices wires the external service clients from configuration.
func buildServices(ctx context.Context, cfg *config.Config) (web.Services, error) {
	dir, err := directory.New(cfg.Directory.URL, cfg.Directory.APIToken)
	if err != nil {
		return web.Services{}, fmt.Errorf("directory client: %w", err)
	}

	faces, err := faceapi.New(cfg.Face.Endpoint, cfg.Face.SubscriptionKey)
	if err != nil {
		return web.Services{}, fmt.Errorf("face client: %w", err)
	}

	blobs, err := blob.New(cfg.Blob.AccountName, cfg.Blob.AccountKey, cfg.Blob.Container)
	if err != nil {
		return web.Services{}, fmt.Errorf("blob store: %w", err)
	}
	if err := blobs.EnsureContainer(ctx); err != nil {
		return web.Services{}, fmt.Errorf("blob container: %w", err)
	}

	return web.Services{
		Directory: dir,
		Faces:     faces,
		Blobs:     blobs,
	}, nil
}

// buildSessionRepo connects the optional Redis session store.
func buildSessionRepo(ctx context.Context, cfg *config.Config) (middleware.SessionRepository, error) {
	if cfg.Redis.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	fmt.Println("Session persistence enabled (Redis)")
	return middleware.NewRedisRepository(client), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	services, err := buildServices(ctx, cfg)
	if err != nil {
		return err
	}

	sessionRepo, err := buildSessionRepo(ctx, cfg)
	if err != nil {
		return err
	}

	port, host, sessionSecret := resolveServeHostPort(cmd)

	server, err := web.NewServer(ctx, cfg, port, host, sessionSecret, sessionRepo, services)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Face Profile on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
