package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fahmaliyi/credvault/vault"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// App carries everything the commands touch outside the vault file, so tests
// can swap terminal, clipboard and output for fakes.
type App struct {
	Prompter  Prompter
	Clipboard Clipboard
	Out       io.Writer
	Err       io.Writer
	In        *os.File

	// VaultOptions are appended to the options derived from configuration.
	VaultOptions []vault.Option

	cfg     *viper.Viper
	cfgFile string
	log     *zap.SugaredLogger

	clipMu      sync.Mutex
	clipCleared chan struct{}
}

// NewApp returns an App wired to the process terminal and system clipboard.
func NewApp() *App {
	return &App{
		Prompter:  NewTermPrompter(os.Stdin, os.Stderr),
		Clipboard: systemClipboard{},
		Out:       os.Stdout,
		Err:       os.Stderr,
		In:        os.Stdin,
	}
}

type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return &usageError{err}
		}
		return nil
	}
}

// NewRootCmd builds the command tree bound to app.
func NewRootCmd(app *App) *cobra.Command {
	app.cfg = viper.New()

	root := &cobra.Command{
		Use:   "credvault",
		Short: "A single-file encrypted credential vault",
		Long: `credvault keeps named username/password entries in one file encrypted
with ChaCha20-Poly1305 under a key derived from a master password with Argon2id.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: app.initialize,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.log != nil {
				_ = app.log.Sync()
			}
		},
	}
	root.SetOut(app.Out)
	root.SetErr(app.Err)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err}
	})

	flags := root.PersistentFlags()
	flags.StringVar(&app.cfgFile, "config", "", "config file (default is $HOME/.credvault.yaml)")
	flags.StringP("file", "f", "", "path to the vault file (default is $HOME/.credvault/store.vault)")
	flags.String("log-level", "warn", "log level: debug, info, warn or error")
	flags.Duration("clip-timeout", 30*time.Second, "clear the clipboard this long after copying, 0 keeps it; an interrupt clears it at once")

	app.bindFlag(root, "vault.file", "file")
	app.bindFlag(root, "log.level", "log-level")
	app.bindFlag(root, "clipboard.clear_after", "clip-timeout")

	root.AddCommand(
		newCreateCmd(app),
		newOpenCmd(app),
		newAddCmd(app),
		newRemoveCmd(app),
		newEditCmd(app),
		newPasswdCmd(app),
		newBrowseCmd(app),
	)
	return root
}

func (app *App) bindFlag(root *cobra.Command, key, flag string) {
	if err := app.cfg.BindPFlag(key, root.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("failed to bind %s flag: %v", flag, err))
	}
}

func (app *App) initialize(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
		return nil
	}

	if err := app.loadConfig(); err != nil {
		return err
	}

	level, err := zapcore.ParseLevel(app.cfg.GetString("log.level"))
	if err != nil {
		return &usageError{fmt.Errorf("invalid log level: %w", err)}
	}
	app.log = newLogger(app.Err, level).With("session", uuid.New().String())
	app.log.Debugw("command start", "command", cmd.CommandPath(), "config", app.cfg.ConfigFileUsed())
	return nil
}

func (app *App) loadConfig() error {
	if app.cfgFile != "" {
		app.cfg.SetConfigFile(app.cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			app.cfg.AddConfigPath(home)
		}
		app.cfg.SetConfigType("yaml")
		app.cfg.SetConfigName(".credvault")
	}

	app.cfg.SetEnvPrefix("CREDVAULT")
	app.cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	app.cfg.AutomaticEnv()

	if err := app.cfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config file: %w", err)
		}
	}
	return nil
}

func newLogger(w io.Writer, level zapcore.Level) *zap.SugaredLogger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), level)
	return zap.New(core).Sugar()
}

// vaultPath resolves the configured vault file.
func (app *App) vaultPath() (string, error) {
	if p := app.cfg.GetString("vault.file"); p != "" {
		return p, nil
	}
	return DefaultVaultPath()
}

func (app *App) openVault() (*vault.Vault, error) {
	path, err := app.vaultPath()
	if err != nil {
		return nil, fmt.Errorf("determine vault path: %w", err)
	}
	opts := append([]vault.Option{vault.WithLogger(app.log.With("path", path))}, app.VaultOptions...)
	return vault.NewVault(path, opts...), nil
}

func (app *App) clipTimeout() time.Duration {
	return app.cfg.GetDuration("clipboard.clear_after")
}

// Execute runs the command line and returns the process exit code.
func Execute(app *App, args []string) int {
	root := NewRootCmd(app)
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return exitOK
	}
	fmt.Fprintln(app.Err, "Error:", describe(err))

	var uerr *usageError
	if errors.As(err, &uerr) {
		fmt.Fprintln(app.Err, "Run 'credvault --help' for usage.")
		return exitUsage
	}
	return exitFailure
}

// describe turns a failure into the message shown to the user.
func describe(err error) string {
	switch {
	case errors.Is(err, vault.ErrAuthFailed):
		return "wrong password or corrupted file"
	case errors.Is(err, vault.ErrMalformedVault):
		return "not a vault file: too short to hold salt and nonce"
	case errors.Is(err, vault.ErrMalformedPayload):
		return "vault decrypted but its contents are unreadable (format mismatch)"
	case errors.Is(err, os.ErrNotExist) && errors.Is(err, vault.ErrIO):
		return "vault file not found, run 'credvault create' first"
	}
	return err.Error()
}
