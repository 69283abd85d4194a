package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"khetbook/internal/crop"
)

func newCropsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crops",
		Short: "Manage your crops",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List your crops",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				list, err := e.session.Crops(cmd.Context())
				if err != nil {
					return err
				}
				return printCrops(cmd, list)
			},
		},
		newCropAddCmd(e),
		&cobra.Command{
			Use:   "known",
			Short: "List suggested crop names",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				tw := newTable(cmd)
				for _, k := range crop.KnownCrops() {
					row(tw, k.Emoji, k.Name)
				}
				return tw.Flush()
			},
		},
		&cobra.Command{
			Use:   "status <id> <active|harvested|closed>",
			Short: "Set the status of a crop",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				list, err := e.session.SetCropStatus(cmd.Context(), args[0], crop.Status(args[1]))
				if err != nil {
					return err
				}
				return printCrops(cmd, list)
			},
		},
		&cobra.Command{
			Use:   "next <id>",
			Short: "Move a crop to its next status",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := findCrop(cmd, e, args[0])
				if err != nil {
					return err
				}
				list, err := e.session.AdvanceCrop(cmd.Context(), c)
				if err != nil {
					return err
				}
				return printCrops(cmd, list)
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a crop; its records stay as unassigned",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				list, err := e.session.DeleteCrop(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printCrops(cmd, list)
			},
		},
	)
	return cmd
}

func newCropAddCmd(e *env) *cobra.Command {
	d := crop.Draft{Year: time.Now().Year()}
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a crop for a season",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d.Name = args[0]
			list, err := e.session.AddCrop(cmd.Context(), d)
			if err != nil {
				return err
			}
			return printCrops(cmd, list)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&d.Season, "season", "kharif", "kharif, rabi or zaid")
	fl.IntVar(&d.Year, "year", d.Year, "season year")
	fl.StringVar(&d.SubVariety, "variety", "", "sub-variety")
	fl.StringVar(&d.Batch, "batch", "", "batch label, e.g. A")
	fl.Float64Var(&d.AreaValue, "area", 1, "planted area")
	fl.StringVar(&d.AreaUnit, "unit", "acre", "acre, bigha or guntha")
	fl.StringVar(&d.Notes, "notes", "", "free notes")
	return cmd
}

func findCrop(cmd *cobra.Command, e *env, id string) (crop.Record, error) {
	list, err := e.session.Crops(cmd.Context())
	if err != nil {
		return crop.Record{}, err
	}
	for _, c := range list {
		if c.ID == id {
			return c, nil
		}
	}
	return crop.Record{}, fmt.Errorf("no crop with id %s", id)
}

func printCrops(cmd *cobra.Command, list []crop.Record) error {
	tw := newTable(cmd)
	row(tw, "ID", "CROP", "SEASON", "AREA", "STATUS")
	for _, c := range list {
		area := strconv.FormatFloat(c.Area.Value, 'f', -1, 64) + " " + string(c.Area.Unit)
		row(tw, c.ID, c.DisplayName(), fmt.Sprintf("%s %d", c.Season, c.Year), area, c.Status)
	}
	return tw.Flush()
}
