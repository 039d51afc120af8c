package cli

import (
	"errors"
	"fmt"

	"github.com/fahmaliyi/credvault/vault"
	"github.com/nbutton23/zxcvbn-go"
	"github.com/spf13/cobra"
)

// weakScore is the zxcvbn score below which a new master password gets a warning.
const weakScore = 3

func newCreateCmd(app *App) *cobra.Command {
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "create [store-name]",
		Short: "Create a new empty vault",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := askIfEmpty(app.Prompter, argOr(args, 0), "Please enter a name for your store: ")
			if err != nil {
				return err
			}
			pw, err := askNewPassword(app.Prompter, "Master password: ")
			if err != nil {
				return err
			}
			defer vault.Zero(pw)
			app.warnWeak(pw)

			v, err := app.openVault()
			if err != nil {
				return err
			}
			fmt.Fprintln(app.Out, "Creating store..")
			store, err := v.Create(name, pw, overwrite)
			if err != nil {
				if errors.Is(err, vault.ErrVaultExists) {
					return fmt.Errorf("%s already exists, pass --force to overwrite it", v.Filename)
				}
				return err
			}
			fmt.Fprintf(app.Out, "Store created with name: %q\n", store.Name)
			return nil
		},
	}
	cmd.Flags().BoolVar(&overwrite, "force", false, "overwrite an existing vault file")
	return cmd
}

func newOpenCmd(app *App) *cobra.Command {
	var copyPassword bool
	cmd := &cobra.Command{
		Use:   "open [entry]",
		Short: "List entry names, or show one entry",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.load()
			if err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Store opened: %q\n", store.Name)

			if len(args) == 0 {
				fmt.Fprintln(app.Out, "\n>>> Entries in store:")
				for _, name := range store.Names() {
					fmt.Fprintf(app.Out, "-> %q\n", name)
				}
				fmt.Fprintln(app.Out, "-----")
				return nil
			}

			e, ok := store.Find(args[0])
			if !ok {
				return fmt.Errorf("entry %q not found", args[0])
			}
			if copyPassword {
				fmt.Fprintf(app.Out, ">>> Entry:\n-> Username: %q\n", e.UsernameOr(""))
				return app.copySecret(e.PasswordOr(""), app.clipTimeout())
			}
			fmt.Fprintf(app.Out, ">>> Entry:\n-> Username: %q\n-> Password: %q\n",
				e.UsernameOr(""), e.PasswordOr(""))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&copyPassword, "copy", "c", false, "copy the password to the clipboard instead of printing it")
	return cmd
}

func newAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add [entry]",
		Short: "Add an entry to an existing vault",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := askPassword(app.Prompter, "Master password: ")
			if err != nil {
				return err
			}
			defer vault.Zero(pw)

			v, err := app.openVault()
			if err != nil {
				return err
			}
			// Unlock before asking for the entry so a wrong password fails fast.
			store, err := v.Open(pw)
			if err != nil {
				return err
			}

			name, err := askIfEmpty(app.Prompter, argOr(args, 0), "Please enter a name for your entry: ")
			if err != nil {
				return err
			}
			// Checked here too so the user is not asked for fields that get discarded.
			if store.Index(name) >= 0 {
				return entryExists(name)
			}
			entry, err := askEntryFields(app.Prompter, name)
			if err != nil {
				return err
			}

			store, err = v.AddEntry(pw, entry)
			if err != nil {
				if errors.Is(err, vault.ErrEntryExists) {
					return entryExists(name)
				}
				return err
			}
			fmt.Fprintf(app.Out, "Added an entry to store: %q\n", store.Name)
			return nil
		},
	}
}

func newEditCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "edit [entry]",
		Short: "Replace the username and password of an existing entry",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := askPassword(app.Prompter, "Master password: ")
			if err != nil {
				return err
			}
			defer vault.Zero(pw)

			v, err := app.openVault()
			if err != nil {
				return err
			}
			store, err := v.Open(pw)
			if err != nil {
				return err
			}

			name, err := askIfEmpty(app.Prompter, argOr(args, 0), "Please enter a name for your entry: ")
			if err != nil {
				return err
			}
			if store.Index(name) < 0 {
				return entryMissing(name)
			}
			entry, err := askEntryFields(app.Prompter, name)
			if err != nil {
				return err
			}

			store, err = v.UpdateEntry(pw, entry)
			if err != nil {
				if errors.Is(err, vault.ErrEntryNotFound) {
					return entryMissing(name)
				}
				return err
			}
			fmt.Fprintf(app.Out, "Updated entry %q in store: %q\n", name, store.Name)
			return nil
		},
	}
}

// askEntryFields prompts for username and password; empty answers leave the field absent.
func askEntryFields(p Prompter, name string) (vault.Entry, error) {
	username, err := p.Text("Please enter a Username: ")
	if err != nil {
		return vault.Entry{}, err
	}
	secret, err := p.Password("Please enter a Password: ")
	if err != nil {
		return vault.Entry{}, err
	}
	defer vault.Zero(secret)
	return vault.NewEntry(name, username, string(secret)), nil
}

func entryExists(name string) error {
	return fmt.Errorf("entry named %q already exists", name)
}

func entryMissing(name string) error {
	return fmt.Errorf("entry named %q does not exist", name)
}

func newRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove [entry]",
		Short: "Remove an entry from an existing vault",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := askPassword(app.Prompter, "Master password: ")
			if err != nil {
				return err
			}
			defer vault.Zero(pw)

			name, err := askIfEmpty(app.Prompter, argOr(args, 0), "Please enter a name for your entry: ")
			if err != nil {
				return err
			}
			v, err := app.openVault()
			if err != nil {
				return err
			}
			store, err := v.RemoveEntry(pw, name)
			if err != nil {
				if errors.Is(err, vault.ErrEntryNotFound) {
					return entryMissing(name)
				}
				return err
			}
			fmt.Fprintf(app.Out, "Removed entry %q from store: %q\n", name, store.Name)
			return nil
		},
	}
}

func newPasswdCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Change the master password",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldPw, err := askPassword(app.Prompter, "Current master password: ")
			if err != nil {
				return err
			}
			defer vault.Zero(oldPw)
			newPw, err := askNewPassword(app.Prompter, "New master password: ")
			if err != nil {
				return err
			}
			defer vault.Zero(newPw)
			app.warnWeak(newPw)

			v, err := app.openVault()
			if err != nil {
				return err
			}
			if err := v.ChangePassword(oldPw, newPw); err != nil {
				return err
			}
			fmt.Fprintln(app.Out, "Master password changed.")
			return nil
		},
	}
}

// load asks for the master password and decrypts the configured vault.
func (app *App) load() (*vault.Store, error) {
	pw, err := askPassword(app.Prompter, "Master password: ")
	if err != nil {
		return nil, err
	}
	defer vault.Zero(pw)

	v, err := app.openVault()
	if err != nil {
		return nil, err
	}
	return v.Open(pw)
}

func (app *App) warnWeak(pw []byte) {
	result := zxcvbn.PasswordStrength(string(pw), nil)
	if result.Score < weakScore {
		fmt.Fprintf(app.Err, "Warning: weak master password (estimated crack time %s)\n", result.CrackTimeDisplay)
	}
}

func argOr(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
