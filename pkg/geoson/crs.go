package geoson

import "fmt"

// CRS selects the coordinate flavor of the wire format.
type CRS int

const (
	// WGS is longitude/latitude/altitude in degrees and meters ("EPSG:4326").
	WGS CRS = iota
	// ENU is local east/north/up meters relative to the datum.
	ENU
)

// Wire names written for each CRS.
const (
	WGSName = "EPSG:4326"
	ENUName = "ENU"
)

// ParseCRS maps a wire CRS string to a CRS. Matching is case sensitive.
// "ECEF" is accepted as an alias of ENU for compatibility with existing
// files even though it names a different frame; no ECEF math is applied.
func ParseCRS(s string) (CRS, error) {
	switch s {
	case "EPSG:4326", "WGS84", "WGS":
		return WGS, nil
	case "ENU", "ECEF":
		return ENU, nil
	}
	return WGS, formatErrorf("Unknown CRS string: %s", s)
}

// String returns the name written to the "crs" property.
func (c CRS) String() string {
	switch c {
	case WGS:
		return WGSName
	case ENU:
		return ENUName
	}
	return fmt.Sprintf("CRS(%d)", int(c))
}

// MarshalText implements encoding.TextMarshaler.
func (c CRS) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, used by yaml configs.
func (c *CRS) UnmarshalText(text []byte) error {
	v, err := ParseCRS(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// UnmarshalFlag implements flags.Unmarshaler so a CRS can be a CLI option.
func (c *CRS) UnmarshalFlag(value string) error {
	return c.UnmarshalText([]byte(value))
}
