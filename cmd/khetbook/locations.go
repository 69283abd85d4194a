package main

import (
	"github.com/spf13/cobra"

	"khetbook/internal/location"
)

func newLocationsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "locations [district [taluka]]",
		Short: "List districts, the talukas of a district or the villages of a taluka",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h := e.session.Hierarchy()
			var entries []location.Entry
			switch len(args) {
			case 0:
				entries = h.Regions()
			case 1:
				entries = h.SubRegions(lookup(h, location.KindRegion, location.Path{}, args[0]))
			case 2:
				region := lookup(h, location.KindRegion, location.Path{}, args[0])
				sub := lookup(h, location.KindSubRegion, location.Path{Region: region}, args[1])
				entries = h.Settlements(region, sub)
			}
			tw := newTable(cmd)
			row(tw, "KEY", "NAME")
			for _, en := range entries {
				row(tw, en.Key, en.Label)
			}
			return tw.Flush()
		},
	}
}

// lookup accepts a key or a label; unknown values are passed through and
// simply list nothing.
func lookup(h *location.Hierarchy, kind location.Kind, p location.Path, value string) string {
	if k, ok := h.FindKey(kind, p, value); ok {
		return k
	}
	return value
}
