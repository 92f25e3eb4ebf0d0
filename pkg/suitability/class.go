package suitability

import (
	"fmt"
)

// Class is an ordinal cycling suitability rating. lower values are better to ride on.
type Class uint8

const (
	Dedicated Class = iota
	Quiet
	Residential
	Moderate
	Busy
	Heavy
	Unsuitable
	Forbidden
)

const (
	Highest = Dedicated
	Lowest  = Forbidden
	// Default is the class of ways no rule knows anything about.
	Default = Unsuitable
)

var (
	classNames = [...]string{
		"dedicated", "quiet", "residential", "moderate", "busy", "heavy", "unsuitable", "forbidden",
	}

	// bicycle unsuitability weight written to the graph file
	classUnsuitability = [...]float64{0.5, 1, 2, 3, 4, 5, 6, 10}
)

func (c Class) String() string {
	if !c.IsValid() {
		return fmt.Sprintf("class(%d)", uint8(c))
	}
	return classNames[c]
}

func (c Class) IsValid() bool {
	return c <= Forbidden
}

func (c Class) Unsuitability() float64 {
	return classUnsuitability[c]
}

// Better reports whether c is more suitable for cycling than other.
func (c Class) Better(other Class) bool {
	return c < other
}

func ParseClass(code uint64) (Class, error) {
	c := Class(code)
	if code > uint64(Forbidden) || !c.IsValid() {
		return 0, fmt.Errorf("unknown suitability class code %d", code)
	}
	return c, nil
}
