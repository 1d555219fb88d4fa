package cli

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/askdb/askdb/internal/crypto"
	"github.com/askdb/askdb/internal/store"
)

// resolveDataDir returns the data directory from the --data-dir flag, the
// ASKDB_DATA_DIR env var, the config file, or ~/.askdb as fallback.
func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if envDir := os.Getenv("ASKDB_DATA_DIR"); envDir != "" {
		return envDir
	}
	if cfgDir := viper.GetString("data_dir"); cfgDir != "" {
		return cfgDir
	}
	home, _ := os.UserHomeDir()
	return home + "/.askdb"
}

// openStore opens the SQLite store with the configured encryption key. The
// key seals API keys, notification credentials, and database connection
// configs, so there is no fallback: secrets written under a throwaway key
// would be lost on restart.
func openStore() (*store.Store, error) {
	key := viper.GetString("crypto.encryption_key")
	if key == "" {
		return nil, fmt.Errorf("crypto.encryption_key is not set (ASKDB_CRYPTO_ENCRYPTION_KEY); it must be at least 32 characters")
	}
	cipher, err := crypto.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return store.NewStore(resolveDataDir(), cipher)
}
