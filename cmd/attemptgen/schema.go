package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/TFMV/attemptgen/integrations"
	"github.com/TFMV/attemptgen/pkg/attempt"
	"github.com/TFMV/attemptgen/pkg/schema"
)

type schemaOptions struct {
	format  string
	dialect string
	check   string
	strict  bool
}

func newSchemaCommand(a *app) *cobra.Command {
	opts := &schemaOptions{}
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the payment attempt columns or check a column file against them",
		Long: `schema prints the 58 payment attempt columns in binding order.

Formats: text, yaml, json (column files) and ddl (CREATE TABLE for --dialect,
defaulting to the configured store). With --check FILE, a YAML or JSON column
file is validated against the attempt columns instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.check != "" {
				return checkColumns(opts, cmd.OutOrStdout())
			}
			return printSchema(a, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format (text, yaml, json, ddl)")
	cmd.Flags().StringVar(&opts.dialect, "dialect", "", "SQL dialect for --format ddl (postgres, sqlite, mysql, mssql, duckdb)")
	cmd.Flags().StringVar(&opts.check, "check", "", "Validate this column file against the attempt columns")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "With --check, require identical names, types, order and nullability")
	return cmd
}

func printSchema(a *app, opts *schemaOptions, out io.Writer) error {
	s := attempt.Schema()
	switch opts.format {
	case "text":
		_, err := io.WriteString(out, schema.Describe(s))
		return err
	case "yaml", "json":
		data, err := schema.MarshalColumns(s, opts.format)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	case "ddl":
		name := opts.dialect
		if name == "" {
			name = a.cfg.Store.Type
		}
		d, err := dialectFor(name)
		if err != nil {
			return err
		}
		ddl, err := schema.CreateTableSQL(schema.Table{Name: a.cfg.Store.Table, Schema: s, PrimaryKey: integrations.PrimaryKey}, d)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, ddl)
		return err
	default:
		return fmt.Errorf("unsupported schema format: %s", opts.format)
	}
}

func checkColumns(opts *schemaOptions, out io.Writer) error {
	s, err := schema.LoadColumnFile(opts.check)
	if err != nil {
		return err
	}
	rules := []schema.ValidationRule{
		&schema.RequiredColumnsRule{Columns: integrations.PrimaryKey},
		&schema.NotNullRule{Columns: integrations.PrimaryKey},
		&schema.ColumnTypeRule{Allowed: schema.StorableTypes},
	}
	v := schema.NewValidator(rules...)
	if opts.strict {
		v = schema.NewStrictValidator(rules...)
	}
	result := v.ValidateAgainstTarget(s, attempt.Schema())
	fmt.Fprint(out, schema.PrintValidationResult(result))
	return result.Err()
}
