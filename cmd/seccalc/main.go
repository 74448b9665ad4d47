package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/nvoronin/seccalc/pkg/audit"
	"github.com/nvoronin/seccalc/pkg/auth"
	"github.com/nvoronin/seccalc/pkg/hashing"
	"github.com/nvoronin/seccalc/pkg/logging"
	"github.com/nvoronin/seccalc/pkg/policy"
	"github.com/nvoronin/seccalc/pkg/users"
)

var (
	version     = "dev" // Will be set during build
	cfgFile     string
	showVersion bool
)

func main() {
	cobra.CheckErr(rootCmd.Execute())
}

var rootCmd = &cobra.Command{
	Use:           "seccalc",
	Short:         "Secure Calculator",
	SilenceUsage:  false,
	SilenceErrors: true,
	Long: `Secure Calculator (seccalc) - a role-gated calculator behind an
authenticated login.

Accounts live in a local credential file with salted password digests.
Failed logins are tracked per account and per source address, and every
security-relevant event lands in an audit log.

Configuration file is optional; without one the built-in defaults apply.
JSON structure:
{
    "store_path": "users.dat",
    "audit_log_path": "security.log",
    "app_log_path": "seccalc.log",
    "account_max_attempts": 3,
    "account_lock_seconds": 30,
    "address_max_attempts": 10,
    "address_lock_seconds": 60,
    "unlock_poll_seconds": 10,
    "source_address": "127.0.0.1",
    "min_password_length": 8,
    "password_blocklist": ["password", "admin"],
    "audit_log_max_size": 10485760,
    "debug": false
}`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Printf("Secure Calculator %s\n", version)
			return nil
		}

		config := DefaultConfig()
		if cfgFile != "" {
			if !filepath.IsAbs(cfgFile) {
				var err error
				cfgFile, err = filepath.Abs(cfgFile)
				if err != nil {
					return fmt.Errorf("failed to get absolute path: %v", err)
				}
			}
			if err := LoadConfig(cfgFile, config); err != nil {
				return fmt.Errorf("failed to load config: %v", err)
			}
		}

		// Initialize logging
		level := logging.LogLevelInfo
		if config.Debug {
			level = logging.LogLevelDebug
		}
		if err := logging.Initialize(config.AppLogPath, level); err != nil {
			return fmt.Errorf("failed to initialize logging: %v", err)
		}

		return run(config)
	},
}

func run(config *Config) error {
	auditSink, err := logging.NewRotatingWriter(config.AuditLogPath, config.AuditLogMaxSize, 0)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %v", err)
	}
	defer auditSink.Close()
	auditLog := audit.New(auditSink)

	store, err := users.NewStore(afero.NewOsFs(), config.StorePath, hashing.NewArgon2Hasher(), hashing.NewMultiVerifier())
	if err != nil {
		return fmt.Errorf("failed to create user store: %v", err)
	}
	if err := store.Load(); err != nil {
		auditLog.SecurityEvent("Critical error", "failed to load user store")
		return fmt.Errorf("failed to load user store: %v", err)
	}

	policyConfig := policy.DefaultConfig()
	if config.MinPasswordLength > 0 {
		policyConfig.MinLength = config.MinPasswordLength
	}
	if len(config.PasswordBlocklist) > 0 {
		policyConfig.Blocklist = config.PasswordBlocklist
	}

	authenticator, err := auth.New(&auth.Config{
		AccountMaxAttempts: config.AccountMaxAttempts,
		AccountLockTime:    time.Duration(config.AccountLockSeconds) * time.Second,
		AddressMaxAttempts: config.AddressMaxAttempts,
		AddressLockTime:    time.Duration(config.AddressLockSeconds) * time.Second,
		PollInterval:       time.Duration(config.UnlockPollSeconds) * time.Second,
		SourceAddress:      config.SourceAddress,
		Output:             os.Stdout,
	}, store, policy.New(policyConfig), auditLog, auth.NewTerminalReader(os.Stdin, os.Stdout))
	if err != nil {
		return fmt.Errorf("failed to create authenticator: %v", err)
	}

	auditLog.SecurityEvent("Application started", "version="+version)
	logging.App.Info("starting", "version", version, "store", config.StorePath)

	session, err := authenticator.Authenticate()
	if err != nil {
		auditLog.SecurityEvent("Application stopped", "login aborted")
		return fmt.Errorf("authentication failed: %v", err)
	}

	shell := NewShell(session, store, authenticator, auditLog, os.Stdin, os.Stdout)
	shell.Run()

	if err := store.Save(); err != nil {
		fmt.Println("Warning: failed to save user database!")
		logging.App.Error("saving user store", "error", err)
		auditLog.SecurityEvent("Application stopped", "save error")
		return nil
	}
	fmt.Println("Changes saved.")
	auditLog.SecurityEvent("Application stopped", "user="+session.Username)
	return nil
}

func init() {
	rootCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "path to config file (optional)")
	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "show version information")
}
