// ============================================================================
// beanval - Bean Validation Engine
// ============================================================================
//
// Package:     cmd
// Description: Command line interface of the beanval binary
// Author:      Mike Stoffels
// Created:     2026-10-15
// License:     MIT
// ============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/msto63/beanval/foundation/core/config"

	bverror "github.com/msto63/beanval/foundation/core/error"
)

// errInvalid is returned when a document has violations. The violations
// have been printed already.
var errInvalid = errors.New("document is invalid")

type rootOptions struct {
	configFile string
	verbose    bool
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "beanval",
		Short: "beanval - Bean Validation Engine",
		Long: `beanval validates documents against bean mappings.

Commands:
  validate     - validate a JSON, YAML or TOML document
  path         - parse and describe a property path
  constraints  - list the built-in constraint kinds
  version      - show version information`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default: beanval.toml in ., ./config or the user config dir)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(
		newValidateCommand(opts),
		newPathCommand(),
		newConstraintsCommand(),
		newVersionCommand(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	root := NewRootCommand()
	err := root.Execute()
	if err != nil && !errors.Is(err, errInvalid) {
		verbose, _ := root.PersistentFlags().GetBool("verbose")
		printError(root.ErrOrStderr(), err, verbose)
	}
	return err
}

// ExitCode maps the result of Execute to a process exit code: 1 for an
// invalid document, 3 for broken mappings or configuration, 2 otherwise.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errInvalid):
		return 1
	case bverror.GetCode(err).IsConfiguration():
		return 3
	default:
		return 2
	}
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configFile != "" {
		return config.Load(o.configFile)
	}
	return config.Discover(config.DefaultDiscoveryOptions())
}

// printError writes err to w. Verbose output adds the code, the root
// cause and the stack trace of a *bverror.Error.
func printError(w io.Writer, err error, verbose bool) {
	style := warnStyle
	if bverror.GetSeverity(err).ShouldAlert() {
		style = errorStyle
	}
	fmt.Fprintln(w, style.Render("Error:"), err)

	var e *bverror.Error
	if !verbose || !errors.As(err, &e) {
		return
	}
	fmt.Fprintf(w, "  code: %s, severity: %s\n", e.Code(), e.Severity())
	if cause := e.RootCause(); cause != error(e) {
		fmt.Fprintln(w, "  cause:", cause)
	}
	for _, frame := range e.StackTrace() {
		fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("  at %s (%s:%d)", frame.Function, frame.File, frame.Line)))
	}
}
