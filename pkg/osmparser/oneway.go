package osmparser

import (
	"strings"
)

type OnewayPolicy string

const (
	// OnewaySuppress emits no edge against the direction of a oneway street.
	OnewaySuppress OnewayPolicy = "suppress"
	// OnewayDowngrade emits the edge against the direction of travel with class Unsuitable.
	OnewayDowngrade OnewayPolicy = "downgrade"
)

// direction is the set of directions a bicycle may ride a way in, relative to its node order.
type direction struct {
	forward  bool
	backward bool
}

var bothDirections = direction{forward: true, backward: true}

func (d direction) isOneway() bool {
	return d.forward != d.backward
}

func isYes(val string) bool {
	return val == "yes" || val == "true" || val == "1"
}

func isReverse(val string) bool {
	return val == "-1" || val == "reverse"
}

func isOpposite(val string) bool {
	return strings.HasPrefix(val, "opposite")
}

// allowsContraflow reports whether cyclists may ride against a oneway.
func allowsContraflow(tags map[string]string) bool {
	if tags["oneway:bicycle"] == "no" {
		return true
	}
	for _, key := range []string{"cycleway", "cycleway:left", "cycleway:right", "cycleway:both"} {
		if isOpposite(tags[key]) {
			return true
		}
	}
	return false
}

// wayDirection returns the directions a bicycle may use a way in.
func wayDirection(tags map[string]string) direction {
	oneway := tags["oneway"]

	d := bothDirections
	switch {
	case isReverse(oneway):
		d = direction{forward: false, backward: true}
	case isYes(oneway):
		d = direction{forward: true, backward: false}
	case oneway == "no":
	case tags["junction"] == "roundabout" || tags["highway"] == "motorway":
		d = direction{forward: true, backward: false}
	}

	if bicycleOneway := tags["oneway:bicycle"]; isYes(bicycleOneway) {
		if !d.isOneway() {
			d = direction{forward: true, backward: false}
		}
		return d
	} else if isReverse(bicycleOneway) {
		return direction{forward: false, backward: true}
	}

	if d.isOneway() && allowsContraflow(tags) {
		return bothDirections
	}
	return d
}
