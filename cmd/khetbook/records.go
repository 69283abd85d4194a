package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"khetbook/internal/app"
	"khetbook/internal/core"
	"khetbook/internal/ledger"
	"khetbook/internal/sheets"
)

// newRecordCmd builds the expense or income command tree; both kinds share
// every subcommand.
func newRecordCmd(e *env, kind ledger.Kind) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(kind),
		Short: fmt.Sprintf("Manage %s records", kind),
	}

	var listCrop string
	list := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List %s records", kind),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := e.session.Records(cmd.Context(), kind, listCrop)
			if err != nil {
				return err
			}
			return printRecords(cmd, e, records)
		},
	}
	list.Flags().StringVar(&listCrop, "crop", "", "only records of this crop id")

	cmd.AddCommand(
		list,
		newRecordWriteCmd(e, kind, false),
		newRecordWriteCmd(e, kind, true),
		&cobra.Command{
			Use:   "delete <id>",
			Short: fmt.Sprintf("Delete an %s record", kind),
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				records, err := e.session.DeleteRecord(cmd.Context(), kind, args[0])
				if err != nil {
					return err
				}
				return printRecords(cmd, e, records)
			},
		},
		newFieldsCmd(kind),
	)
	return cmd
}

// newRecordWriteCmd is "add <category> field=value..." or, when edit is
// set, "edit <id> <category> field=value...".
func newRecordWriteCmd(e *env, kind ledger.Kind, edit bool) *cobra.Command {
	var cropID, date, note string
	use, short, minArgs := "add <category> [field=value...]", "Record a new "+string(kind), 1
	if edit {
		use, short, minArgs = "edit <id> <category> [field=value...]", "Replace an "+string(kind)+" record", 2
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(minArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id string
			if edit {
				id, args = args[0], args[1:]
			}
			values, err := parseFields(args[1:])
			if err != nil {
				return err
			}
			entry := app.Entry{Kind: kind, CropID: cropID, Draft: ledger.NewDraft(args[0], values), Note: note}
			if date != "" {
				if entry.Date, err = core.ParseDate(date); err != nil {
					return fmt.Errorf("date %q: use YYYY-MM-DD", date)
				}
			}

			var records []ledger.Record
			if edit {
				records, err = e.session.UpdateRecord(cmd.Context(), id, entry)
			} else {
				records, err = e.session.AddRecord(cmd.Context(), entry)
			}
			if err != nil {
				return err
			}
			return printRecords(cmd, e, records)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&cropID, "crop", "", "crop id (required for expenses)")
	fl.StringVar(&date, "date", "", "date as YYYY-MM-DD (default today)")
	fl.StringVar(&note, "note", "", "free note")
	return cmd
}

func newFieldsCmd(kind ledger.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "fields [category]",
		Short: "List categories, or the fields of one category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := newTable(cmd)
			if len(args) == 0 {
				row(tw, "CATEGORY", "NAME")
				for _, c := range ledger.Categories(kind) {
					row(tw, c, c.Label())
				}
				return tw.Flush()
			}
			c, ok := ledger.ParseCategory(args[0])
			if !ok {
				return &ledger.ValidationError{Kind: ledger.ErrorUnknownCategory, Category: ledger.Category(args[0])}
			}
			s, _ := ledger.SchemaFor(c)
			row(tw, "MODE", "FIELD", "NAME", "REQUIRED")
			if spec, ok := s.Spec(s.ModeField); ok && s.ModeField != "" {
				row(tw, "-", spec.Name, spec.Label+" ("+strings.Join(spec.Choices, ", ")+")", "yes")
			}
			modes := s.ModeOrder
			if len(modes) == 0 {
				modes = []string{""}
			}
			for _, m := range modes {
				for _, f := range s.FieldsFor(m) {
					if m != "" && f.Name == s.ModeField {
						continue
					}
					row(tw, dash(m), f.Name, f.Label, yesNo(f.Required))
				}
			}
			return tw.Flush()
		},
	}
}

func parseFields(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("expected field=value, got %q", a)
		}
		out[strings.TrimSpace(k)] = v
	}
	return out, nil
}

func printRecords(cmd *cobra.Command, e *env, records []ledger.Record) error {
	crops, err := e.session.Crops(cmd.Context())
	if err != nil {
		return err
	}
	names := make(map[string]string, len(crops))
	for _, c := range crops {
		names[c.ID] = c.DisplayName()
	}

	tw := newTable(cmd)
	row(tw, "ID", "DATE", "CATEGORY", "CROP", "TOTAL", "DETAILS")
	var total core.Money
	for _, r := range records {
		row(tw, r.ID, r.Date, r.Category.Label(), cropName(names, r.CropID), core.FormatRupees(r.Total), sheets.Details(r))
		total = total.Add(r.Total)
	}
	row(tw, "", "", "", "", core.FormatRupees(total), "")
	return tw.Flush()
}

func cropName(names map[string]string, id string) string {
	if n, ok := names[id]; ok {
		return n
	}
	return "Unassigned"
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
