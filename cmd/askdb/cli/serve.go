package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/askdb/askdb/internal/connector"
	"github.com/askdb/askdb/internal/llm"
	"github.com/askdb/askdb/internal/mail"
	"github.com/askdb/askdb/internal/server"
	"github.com/askdb/askdb/internal/service"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the AskDB API server",
		Long:  "Start the HTTP server and resume the Telegram relays of active agents.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(host, port, dev)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (verbose logging)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(host string, port int, dev bool) error {
	logLevel := slog.LevelInfo
	if dev {
		logLevel = slog.LevelDebug
	}
	var handler slog.Handler
	if viper.GetString("log.format") == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	}
	logger := slog.New(handler)

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer st.Close()
	logger.Info("store initialized", "path", resolveDataDir())

	jwtSecret := viper.GetString("auth.jwt_secret")
	if jwtSecret == "" {
		jwtSecret = "askdb-dev-secret-change-me"
		logger.Warn("auth.jwt_secret is not set, using an insecure development secret")
	}
	authSvc := service.NewAuthService(st, jwtSecret)

	var llmOpts []llm.Option
	if u := viper.GetString("llm.base_url"); u != "" {
		llmOpts = append(llmOpts, llm.WithBaseURL(u))
	}
	if m := viper.GetString("llm.model"); m != "" {
		llmOpts = append(llmOpts, llm.WithModel(m))
	}
	queries := service.NewQueryService(st, connector.DefaultRegistry(), llm.NewClient(llmOpts...))
	agents := service.NewAgentManager(st, queries, logger)

	var mailer *mail.Mailer
	var mailCfg mail.Config
	if err := viper.UnmarshalKey("mail", &mailCfg); err != nil {
		logger.Warn("invalid mail configuration", "error", err)
	}
	if mailCfg.Enabled() {
		mailer = mail.NewMailer(mailCfg)
		logger.Info("mail enabled", "host", mailCfg.Host)
	} else {
		logger.Warn("mail is not configured, signup verification links will not be delivered")
	}

	baseURL := viper.GetString("server.base_url")
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://localhost:%d", port)
	}

	var oauthCfg *oauth2.Config
	if id := viper.GetString("auth.google_client_id"); id != "" {
		oauthCfg = &oauth2.Config{
			ClientID:     id,
			ClientSecret: viper.GetString("auth.google_client_secret"),
			RedirectURL:  baseURL + "/api/auth/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
		logger.Info("google sign-in enabled")
	}

	// Bring back the relays of agents that were active at last shutdown.
	if err := agents.Resume(context.Background()); err != nil {
		logger.Error("agent resume failed", "error", err)
	}

	srvCfg := server.Config{
		Host:            host,
		Port:            port,
		BaseURL:         baseURL,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     corsOrigins(),
	}
	srv := server.New(srvCfg, st, authSvc, queries, agents, mailer, oauthCfg, logger)

	fmt.Printf("→ AskDB\n")
	fmt.Printf("→ Listening on http://%s:%d\n", host, port)
	fmt.Printf("→ OpenAPI:  %s/openapi.json\n", baseURL)
	fmt.Printf("→ Health:   %s/healthz\n", baseURL)
	fmt.Println()

	return srv.ListenAndServe()
}

func corsOrigins() []string {
	if origins := viper.GetStringSlice("server.cors_origins"); len(origins) > 0 {
		return origins
	}
	return []string{"*"}
}
