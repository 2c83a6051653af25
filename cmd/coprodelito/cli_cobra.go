package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func executeCLI() error {
	return buildRootCommand().Execute()
}

func buildRootCommand() *cobra.Command {
	var showVersion bool

	root := &cobra.Command{
		Use:   "coprodelito",
		Short: "Emotional support assistant for students, with a persistent emotion log",
		Long: strings.TrimSpace(`coprodelito is a conversational emotional assistant backend.

Use CLI commands to onboard, register students, chat locally, and check
runtime readiness. Detected emotions accumulate per student in a durable
emotion log.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				printVersion()
				return nil
			}
			_ = cmd.Help()
			return fmt.Errorf("a subcommand is required")
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.Flags().BoolVarP(&showVersion, "version", "v", false, "Show build/version metadata")

	root.AddCommand(newOnboardCommand())
	root.AddCommand(newChatCommand())
	root.AddCommand(newRegisterCommand())
	root.AddCommand(newLoginCommand())
	root.AddCommand(newStatusCommand())
	root.AddCommand(newVersionCommand())

	return root
}

func runLegacyWithArgs(args []string, fn func()) error {
	original := os.Args
	os.Args = append([]string{original[0]}, args...)
	defer func() {
		os.Args = original
	}()
	fn()
	return nil
}

func newOnboardCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "onboard",
		Short:   "Initialize ~/.coprodelito config",
		Long:    "Create the default configuration file for a new coprodelito installation.",
		Example: "  coprodelito onboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLegacyWithArgs([]string{"onboard"}, onboard)
		},
	}
}

func newChatCommand() *cobra.Command {
	var (
		message string
		subject string
		debug   bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant (interactive or one-shot)",
		Long:  "Run an interactive chat session or send a one-shot message for a subject.",
		Example: strings.Join([]string{
			"  coprodelito chat",
			"  coprodelito chat --subject ana.perez@spc.edu.pe",
			"  coprodelito chat --message \"me siento triste por mi examen\"",
		}, "\n"),
		RunE: func(cmd *cobra.Command, args []string) error {
			legacyArgs := []string{"chat"}
			if debug {
				legacyArgs = append(legacyArgs, "--debug")
			}
			if strings.TrimSpace(message) != "" {
				legacyArgs = append(legacyArgs, "--message", message)
			}
			if strings.TrimSpace(subject) != "" {
				legacyArgs = append(legacyArgs, "--subject", subject)
			}
			return runLegacyWithArgs(legacyArgs, chatCmd)
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "One-shot message to send")
	cmd.Flags().StringVarP(&subject, "subject", "s", "console", "Subject ID owning the session")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")

	return cmd
}

func newRegisterCommand() *cobra.Command {
	var (
		email    string
		password string
	)

	cmd := &cobra.Command{
		Use:     "register",
		Short:   "Register a student identity",
		Example: "  coprodelito register -e ana.perez@spc.edu.pe -p <8 chars>",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(email) == "" {
				return fmt.Errorf("--email is required")
			}
			if password == "" {
				return fmt.Errorf("--password is required")
			}
			return runLegacyWithArgs([]string{"register", "--email", email, "--password", password}, registerCmd)
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Institutional email (nombre.apellido@spc.edu.pe)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (exactly 8 characters)")

	return cmd
}

func newLoginCommand() *cobra.Command {
	var (
		email    string
		password string
	)

	cmd := &cobra.Command{
		Use:     "login",
		Short:   "Check a student's credentials",
		Example: "  coprodelito login -e ana.perez@spc.edu.pe -p <8 chars>",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(email) == "" {
				return fmt.Errorf("--email is required")
			}
			if password == "" {
				return fmt.Errorf("--password is required")
			}
			return runLegacyWithArgs([]string{"login", "--email", email, "--password", password}, loginCmd)
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Institutional email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password")

	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Short:   "Show configuration, provider, and store readiness",
		Example: "  coprodelito status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLegacyWithArgs([]string{"status"}, statusCmd)
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Show build/version metadata",
		Example: "  coprodelito version",
		RunE: func(cmd *cobra.Command, args []string) error {
			printVersion()
			return nil
		},
	}
}
