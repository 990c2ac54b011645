package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tturner/cipwire/internal/cip/catalog"
	"github.com/tturner/cipwire/internal/cip/spec"
	"github.com/tturner/cipwire/internal/errors"
)

func newCatalogCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the attribute catalog",
		Long: `Show the attribute catalog used for Get_Attribute_List size hints. The
built-in catalog is used unless catalog.path or --catalog names a YAML file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			return withCatalog(cmd, opts, func(s *settings, cat *catalog.Catalog) error {
				listCatalog(cmd.OutOrStdout(), s.styles, cat)
				return nil
			})
		},
	}
	cmd.AddCommand(newCatalogShowCmd(opts))
	cmd.AddCommand(newCatalogExportCmd(opts))
	return cmd
}

func newCatalogShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "show <class>",
		Short:   "Show the attributes of one class",
		Example: "  cipwire catalog show 0x01",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := catalog.ParseID(args[0])
			if err != nil {
				return fmt.Errorf("class: %w", err)
			}
			return withCatalog(cmd, opts, func(s *settings, cat *catalog.Catalog) error {
				cls, ok := cat.Class(id)
				if !ok {
					return fmt.Errorf("class 0x%02X (%s) not in catalog %q", id, spec.ClassName(id), cat.Name())
				}
				showClass(cmd.OutOrStdout(), s.styles, cls)
				return nil
			})
		},
	}
}

func newCatalogExportCmd(opts *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the active catalog to a YAML file",
		Long: `Write the active catalog to a YAML file. Exporting the built-in catalog is
the usual starting point for a device specific catalog.`,
		Example: "  cipwire catalog export --output my-device.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return missingFlagError(cmd, "--output")
			}
			return withCatalog(cmd, opts, func(s *settings, cat *catalog.Catalog) error {
				if err := catalog.Save(output, cat.File()); err != nil {
					return errors.WrapCatalogError(err, output)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Catalog %q written to %s\n", cat.Name(), output)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&output, "output", "", "Output YAML file (required)")
	return cmd
}

func withCatalog(cmd *cobra.Command, opts *rootOptions, fn func(*settings, *catalog.Catalog) error) error {
	s, err := loadSettings(cmd, opts)
	if err != nil {
		return err
	}
	defer s.Close()
	cat, err := s.Catalog()
	if err != nil {
		return err
	}
	return fn(s, cat)
}

func listCatalog(w io.Writer, st styles, cat *catalog.Catalog) {
	fmt.Fprintf(w, "%s %s\n", st.title.Render("Catalog:"), cat.Name())
	for _, cls := range cat.Classes() {
		showClass(w, st, cls)
	}
	warnings := catalog.Lint(cat)
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, warning := range warnings {
		fmt.Fprintf(w, "%s %s\n", st.warn.Render("WARN"), warning.Error())
	}
}

func showClass(w io.Writer, st styles, cls *catalog.Class) {
	fmt.Fprintf(w, "\n%s %s\n", st.label.Render(fmt.Sprintf("class 0x%02X", cls.ID)), cls.Name)
	for _, attr := range cls.Attributes {
		fmt.Fprintf(w, "  attr 0x%02X %-34s %s\n", attr.ID, attr.Name, st.dim.Render(fmt.Sprintf("%d bytes", attr.Size)))
	}
}
