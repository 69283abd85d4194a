package main

import (
	"github.com/spf13/cobra"

	"khetbook/internal/profile"
)

func newProfileCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit your farmer profile",
	}
	cmd.AddCommand(newProfileShowCmd(e), newProfileSetCmd(e))
	return cmd
}

func newProfileShowCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := e.session.ProfileDisplay(cmd.Context())
			if err != nil {
				return err
			}
			tw := newTable(cmd)
			row(tw, "Name", d.Name)
			row(tw, "District", d.RegionLabel)
			row(tw, "Taluka", d.SubRegionLabel)
			row(tw, "Village", d.SettlementLabel)
			row(tw, "Land", d.LandLabel)
			row(tw, "Water source", d.WaterLabel)
			row(tw, "Labour", d.LabourLabel)
			row(tw, "Tractor", yesNo(d.HasTractor))
			return tw.Flush()
		},
	}
}

// newProfileSetCmd creates the profile or updates it. Flags left out keep
// their current value.
func newProfileSetCmd(e *env) *cobra.Command {
	var d profile.Draft
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Create or update your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			draft := profile.Draft{}
			if current, err := e.session.Profile(cmd.Context()); err == nil {
				draft = e.session.Mapper().ToDraft(current.Payload)
			}
			fl := cmd.Flags()
			set := func(name string, dst *string, v string) {
				if fl.Changed(name) {
					*dst = v
				}
			}
			set("name", &draft.Name, d.Name)
			set("district", &draft.District, d.District)
			set("taluka", &draft.Taluka, d.Taluka)
			set("village", &draft.Village, d.Village)
			set("land", &draft.LandValue, d.LandValue)
			set("unit", &draft.LandUnit, d.LandUnit)
			if draft.LandUnit == "" {
				draft.LandUnit = d.LandUnit
			}
			set("water", &draft.WaterSource, d.WaterSource)
			set("labour", &draft.LabourType, d.LabourType)
			if fl.Changed("tractor") {
				draft.HasTractor = d.HasTractor
			}
			if fl.Changed("consent") {
				draft.AnalyticsConsent = d.AnalyticsConsent
			}

			saved, err := e.session.SaveProfile(cmd.Context(), draft)
			if err != nil {
				return err
			}
			printf(cmd, "Profile saved for %s.\n", saved.Name)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&d.Name, "name", "", "your name")
	fl.StringVar(&d.District, "district", "", "district key or name")
	fl.StringVar(&d.Taluka, "taluka", "", "taluka key or name")
	fl.StringVar(&d.Village, "village", "", "village key or name")
	fl.StringVar(&d.LandValue, "land", "", "total land, e.g. 3.5")
	fl.StringVar(&d.LandUnit, "unit", "acre", "land unit: acre or bigha")
	fl.StringVar(&d.WaterSource, "water", "", "water source: well, borewell, canal, river or rainfed")
	fl.StringVar(&d.LabourType, "labour", "", "labour: family, hired or mixed")
	fl.BoolVar(&d.HasTractor, "tractor", false, "you own a tractor")
	fl.BoolVar(&d.AnalyticsConsent, "consent", false, "share anonymous statistics")
	return cmd
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
