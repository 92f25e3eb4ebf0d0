package osmparser

import (
	"github.com/lintang-b-s/pbfextractor/pkg/suitability"
)

var (
	// highways a bicycle may only use when the way says otherwise (cycleway, bicycle=*, sidewalk)
	nonCyclingHighways = map[string]struct{}{
		"motorway":      {},
		"motorway_link": {},
		"trunk":         {},
		"trunk_link":    {},
		"proposed":      {},
		"steps":         {},
		"elevator":      {},
		"corridor":      {},
		"raceway":       {},
		"rest_area":     {},
		"construction":  {},
	}
)

// acceptWay reports whether a way is part of the cycling network.
func acceptWay(tags map[string]string, keepForbidden bool) bool {
	highway, ok := tags["highway"]
	if !ok || highway == "" {
		return false
	}

	bicycle, hasBicycle := tags["bicycle"]
	if bicycle == "no" {
		return keepForbidden
	}
	if hasBicycle || suitability.HasCycleway(tags) {
		return true
	}

	if sidewalk, ok := tags["sidewalk"]; ok && sidewalk != "no" {
		return true
	}

	_, excluded := nonCyclingHighways[highway]
	return !excluded
}
