// Package controller classifies network controller positions into a
// tagged type with an associated proximity radius.
package controller

import "strings"

// Type is a tagged enum over the controller positions a network feed can
// report. There is deliberately no inheritance here: a lookup table maps
// each Type to its default proximity radius.
type Type string

const (
	Ground   Type = "ground"
	Tower    Type = "tower"
	Approach Type = "approach"
	Center   Type = "center"
	FSS      Type = "fss"
	Unknown  Type = "unknown"
)

// DefaultRanges is the nautical-mile proximity radius for each controller
// type.
var DefaultRanges = map[Type]float64{
	Ground:   15,
	Tower:    15,
	Approach: 60,
	Center:   400,
	FSS:      1000,
	Unknown:  30,
}

var facilityCodeToType = map[int]Type{
	1: Ground,
	2: Tower,
	3: Approach,
	4: Center,
	5: FSS,
}

var callsignSuffixToType = map[string]Type{
	"_GND": Ground,
	"_TWR": Tower,
	"_APP": Approach,
	"_CTR": Center,
	"_FSS": FSS,
}

// Classifier maps a controller callsign and facility code to a Type and a
// proximity radius in nautical miles. Ranges may be overridden from the
// defaults via Config (e.g. a deployment with non-standard center range).
type Classifier struct {
	ranges map[Type]float64
}

// New builds a Classifier. A nil or empty overrides map uses DefaultRanges
// unmodified.
func New(overrides map[Type]float64) *Classifier {
	ranges := make(map[Type]float64, len(DefaultRanges))
	for t, r := range DefaultRanges {
		ranges[t] = r
	}
	for t, r := range overrides {
		ranges[t] = r
	}
	return &Classifier{ranges: ranges}
}

// Classify applies its rules in order: facility code first, then callsign
// suffix, then Unknown.
func (c *Classifier) Classify(callsign string, facilityCode int) (Type, float64) {
	if t, ok := facilityCodeToType[facilityCode]; ok {
		return t, c.ranges[t]
	}

	upper := strings.ToUpper(callsign)
	for suffix, t := range callsignSuffixToType {
		if strings.HasSuffix(upper, suffix) {
			return t, c.ranges[t]
		}
	}

	return Unknown, c.ranges[Unknown]
}
