package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage AskDB configuration",
		Long:  "Initialize a default configuration file or display the current effective configuration.",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

// ---------- config init ----------

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default askdb.yaml configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config file")

	return cmd
}

const defaultConfig = `# AskDB Configuration

server:
  host: 0.0.0.0
  port: 8080
  # Public base URL, used in verification emails and OAuth redirects
  base_url: http://localhost:8080
  cors_origins:
    - "*"

# Directory holding the internal SQLite database (users, projects, agents)
data_dir: ""  # defaults to ~/.askdb

crypto:
  # At least 32 characters. Seals stored API keys, database passwords, and
  # bot tokens. Losing it makes stored secrets unrecoverable.
  encryption_key: ""  # Set via ASKDB_CRYPTO_ENCRYPTION_KEY env var

auth:
  jwt_secret: ""  # Set via ASKDB_AUTH_JWT_SECRET env var
  google_client_id: ""
  google_client_secret: ""

# SQL generation backend (any OpenAI-compatible chat completions API)
llm:
  base_url: https://api.openai.com/v1
  model: gpt-4o-mini

# SMTP delivery for signup verification emails. Leave host empty to disable.
mail:
  host: ""
  port: 587
  username: ""
  password: ""
  from: ""

# Logging
log:
  level: info    # debug, info, warn, error
  format: text   # text or json
`

func runConfigInit(force bool) error {
	path := "askdb.yaml"

	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	if err := os.WriteFile(path, []byte(defaultConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Created %s\n", path)
	fmt.Println("Set crypto.encryption_key and auth.jwt_secret, then run 'askdb serve'.")
	return nil
}

// ---------- config show ----------

func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow()
		},
	}

	return cmd
}

func runConfigShow() error {
	// Ensure config is loaded
	initConfig()

	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		fmt.Printf("Config file: %s\n", configFile)
	} else {
		fmt.Println("Config file: (none found, using defaults)")
	}
	fmt.Println()

	settings := viper.AllSettings()
	if len(settings) == 0 {
		fmt.Println("No configuration settings loaded.")
		fmt.Println("Run 'askdb config init' to create a default configuration file.")
		return nil
	}

	// Redact secrets before printing
	for _, section := range []string{"crypto", "auth", "mail"} {
		sub, ok := settings[section].(map[string]any)
		if !ok {
			continue
		}
		for key := range sub {
			switch key {
			case "encryption_key", "jwt_secret", "google_client_secret", "password":
				if s, ok := sub[key].(string); ok && s != "" {
					sub[key] = "(redacted)"
				}
			}
		}
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("render configuration: %w", err)
	}
	fmt.Print(string(out))

	return nil
}
