package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/web-casa/topoviz/internal/compose"
	"github.com/web-casa/topoviz/internal/event"
	"github.com/web-casa/topoviz/internal/service"
)

func newImportCommand(a *app) *cobra.Command {
	var stackID uint
	cmd := &cobra.Command{
		Use:   "import --stack ID [FILE|-]",
		Short: "Import a compose document into a stack's container services",
		Long: `Parse a docker-compose document and replace the container services of the
given stack with the services it defines. Without FILE the document already
stored on the stack is re-imported; "-" reads from stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			if len(args) == 1 {
				raw, err := readInput(cmd.InOrStdin(), args[0])
				if err != nil {
					return err
				}
				text = raw
			}

			db, err := a.openDB()
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			stacks := service.NewStackService(db, event.Discard{}, a.logger)
			stack, err := stacks.ImportCompose(stackID, text)
			if err != nil {
				return fmt.Errorf("import into stack %d: %w", stackID, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Stack %q on %q: %d container services\n", stack.Name, stack.ServerName, len(stack.ContainerServices))
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SERVICE\tIMAGE\tDEPENDS ON")
			for _, svc := range stack.ContainerServices {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", svc.ServiceName, svc.Image, strings.Join(svc.DependsOn, ","))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().UintVar(&stackID, "stack", 0, "ID of the stack to import into")
	_ = cmd.MarkFlagRequired("stack")
	return cmd
}

func newLintCommand() *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:         "lint FILE|-",
		Short:       "Validate a compose document against the compose specification",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skip-config": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			res := compose.Lint(cmd.Context(), project, text)
			if !res.Valid {
				return fmt.Errorf("%s: %s", args[0], res.Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid compose project %q (%s)\n",
				args[0], res.Project, strings.Join(res.Services, ", "))
			return nil
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "project name used for interpolation (default \"stack\")")
	return cmd
}

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "database %s is up to date\n", a.cfg.DBPath)
			return nil
		},
	}
}

func readInput(stdin io.Reader, name string) (string, error) {
	if name == "-" {
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(raw), nil
	}
	raw, err := os.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return string(raw), nil
}
