package cmd

import (
	"github.com/spf13/pflag"

	"github.com/ivlev/photo2video/internal/config"
	"github.com/ivlev/photo2video/internal/export"
)

// addPreferenceFlags registers the flags that override stored preferences.
func addPreferenceFlags(fs *pflag.FlagSet) {
	fs.String("style", "", "transition style: oglFlip, pageCurl, pageUnCurl, fade, cube, moveIn, push, reveal, rippleEffect, suckEffect, cameraIris, none")
	fs.String("direction", "", "transition direction: fromLeft, fromRight, fromTop, fromBottom")
	fs.Float64("transition", 0, "transition duration in seconds: 0, 0.15, 0.25, 0.5, 0.75, 1, 1.5, 2, 3, 4")
	fs.Float64("display", 0, "how long each image stays on screen, in seconds")
	fs.Int("count", 0, "number of items to use, starting from the first")
}

// applyPreferenceFlags returns p with every explicitly set flag applied.
func applyPreferenceFlags(fs *pflag.FlagSet, p config.Preferences) (config.Preferences, error) {
	if fs.Changed("style") {
		v, _ := fs.GetString("style")
		st, err := export.ParseStyle(v)
		if err != nil {
			return p, err
		}
		p.Style = st
	}
	if fs.Changed("direction") {
		v, _ := fs.GetString("direction")
		d, err := export.ParseDirection(v)
		if err != nil {
			return p, err
		}
		p.Direction = d
	}
	if fs.Changed("transition") {
		p.Transition, _ = fs.GetFloat64("transition")
	}
	if fs.Changed("display") {
		p.Display, _ = fs.GetFloat64("display")
	}
	if fs.Changed("count") {
		p.ItemCount, _ = fs.GetInt("count")
	}
	return p, p.Validate()
}
