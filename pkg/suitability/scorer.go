package suitability

import (
	"sort"
)

// Rule assigns Class to every tag set matched by Match. rules with a higher Priority are tried first.
type Rule struct {
	Name     string
	Priority int
	Match    func(tags map[string]string) bool
	Class    Class
}

const (
	PriorityBicycle  = 400
	PriorityCycleway = 300
	PriorityHighway  = 200
	PrioritySidewalk = 100
)

var (
	// https://wiki.openstreetmap.org/wiki/Key:highway
	highwayClasses = map[string]Class{
		"primary":        Heavy,
		"primary_link":   Heavy,
		"secondary":      Busy,
		"secondary_link": Busy,
		"tertiary":       Moderate,
		"tertiary_link":  Moderate,
		"road":           Moderate,
		"bridleway":      Moderate,
		"unclassified":   Residential,
		"residential":    Residential,
		"traffic_island": Residential,
		"living_street":  Quiet,
		"service":        Quiet,
		"track":          Quiet,
		"platform":       Quiet,
		"pedestrian":     Quiet,
		"path":           Quiet,
		"footway":        Quiet,
		"cycleway":       Dedicated,
	}

	cyclewayKeys = []string{"cycleway", "cycleway:left", "cycleway:right", "cycleway:both"}

	// values that say there is no cycle infrastructure on this way
	noCyclewayValues = map[string]struct{}{
		"no":       {},
		"none":     {},
		"separate": {},
	}

	sidewalkValues = map[string]struct{}{
		"yes":   {},
		"both":  {},
		"left":  {},
		"right": {},
	}
)

func tagEquals(key string, values ...string) func(tags map[string]string) bool {
	return func(tags map[string]string) bool {
		val, ok := tags[key]
		if !ok {
			return false
		}
		for _, v := range values {
			if val == v {
				return true
			}
		}
		return false
	}
}

// HasCycleway reports whether any cycleway key carries cycle infrastructure.
func HasCycleway(tags map[string]string) bool {
	for _, key := range cyclewayKeys {
		val, ok := tags[key]
		if !ok {
			continue
		}
		if _, no := noCyclewayValues[val]; !no {
			return true
		}
	}
	return false
}

func HasSidewalk(tags map[string]string) bool {
	_, ok := sidewalkValues[tags["sidewalk"]]
	return ok
}

// DefaultRules returns the rule table in priority order.
func DefaultRules() []Rule {
	rules := []Rule{
		{Name: "bicycle=no", Priority: PriorityBicycle, Match: tagEquals("bicycle", "no"), Class: Forbidden},
		{Name: "bicycle=designated", Priority: PriorityBicycle, Match: tagEquals("bicycle", "designated"), Class: Dedicated},
		{Name: "bicycle=yes", Priority: PriorityBicycle, Match: tagEquals("bicycle", "yes", "permissive"), Class: Dedicated},
		{Name: "cycleway=*", Priority: PriorityCycleway, Match: HasCycleway, Class: Dedicated},
	}

	highways := make([]string, 0, len(highwayClasses))
	for hw := range highwayClasses {
		highways = append(highways, hw)
	}
	sort.Strings(highways)
	for _, hw := range highways {
		rules = append(rules, Rule{
			Name:     "highway=" + hw,
			Priority: PriorityHighway,
			Match:    tagEquals("highway", hw),
			Class:    highwayClasses[hw],
		})
	}

	rules = append(rules, Rule{Name: "sidewalk=*", Priority: PrioritySidewalk, Match: HasSidewalk, Class: Quiet})
	return rules
}

// Scorer maps a way's tags to exactly one Class. it is pure and safe for concurrent use.
type Scorer struct {
	rules []Rule
}

func NewScorer(rules []Rule) *Scorer {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})
	return &Scorer{rules: sorted}
}

func NewDefaultScorer() *Scorer {
	return NewScorer(DefaultRules())
}

func (s *Scorer) Classify(tags map[string]string) Class {
	class, _ := s.Explain(tags)
	return class
}

// Explain returns the class and the name of the rule that produced it ("default" if none matched).
func (s *Scorer) Explain(tags map[string]string) (Class, string) {
	for _, rule := range s.rules {
		if rule.Match(tags) {
			return rule.Class, rule.Name
		}
	}
	return Default, "default"
}

func (s *Scorer) GetRules() []Rule {
	return s.rules
}
