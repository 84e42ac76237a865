// Package bgp validates the BGP attributes carried on a BGPVPN.
package bgp

import (
	"errors"
	"fmt"
	"math"
	"net/netip"
	"strconv"
	"strings"

	gobgp "github.com/osrg/gobgp/v3/pkg/packet/bgp"
)

// ValidateRouteTarget checks that s parses as a route-target extended
// community: ASN:NN, IPv4:NN or 4-byte ASN:NN, with every field inside the
// width the community encodes it in.
func ValidateRouteTarget(s string) error {
	if _, err := gobgp.ParseRouteTarget(s); err != nil {
		return fmt.Errorf("invalid route target %q: %w", s, err)
	}
	if err := checkFieldWidths(s); err != nil {
		return fmt.Errorf("invalid route target %q: %w", s, err)
	}
	return nil
}

// ValidateRouteDistinguisher checks that s parses as a route distinguisher
// whose fields fit their encoded widths.
func ValidateRouteDistinguisher(s string) error {
	if _, err := gobgp.ParseRouteDistinguisher(s); err != nil {
		return fmt.Errorf("invalid route distinguisher %q: %w", s, err)
	}
	if err := checkFieldWidths(s); err != nil {
		return fmt.Errorf("invalid route distinguisher %q: %w", s, err)
	}
	return nil
}

// checkFieldWidths enforces the 6-byte value layout shared by route targets
// and route distinguishers. gobgp truncates out-of-range fields silently.
//
//	2-byte ASN : 4-byte number
//	IPv4       : 2-byte number
//	4-byte ASN : 2-byte number (plain or asdot)
func checkFieldWidths(s string) error {
	i := strings.LastIndex(s, ":")
	if i < 0 {
		return errors.New("missing assigned number")
	}
	admin, assigned := s[:i], s[i+1:]
	number, err := strconv.ParseUint(assigned, 10, 32)
	if err != nil {
		return fmt.Errorf("assigned number %q out of range", assigned)
	}

	localMax := uint64(math.MaxUint16)
	switch strings.Count(admin, ".") {
	case 3:
		addr, err := netip.ParseAddr(admin)
		if err != nil || !addr.Is4() {
			return fmt.Errorf("%q is not an IPv4 address", admin)
		}
	case 1:
		hi, lo, _ := strings.Cut(admin, ".")
		if !fitsUint16(hi) || !fitsUint16(lo) {
			return fmt.Errorf("asdot ASN %q out of range", admin)
		}
	case 0:
		asn, err := strconv.ParseUint(admin, 10, 32)
		if err != nil {
			return fmt.Errorf("ASN %q out of range", admin)
		}
		if asn <= math.MaxUint16 {
			localMax = math.MaxUint32
		}
	default:
		return fmt.Errorf("malformed administrator %q", admin)
	}

	if number > localMax {
		return fmt.Errorf("assigned number %d exceeds %d", number, localMax)
	}
	return nil
}

func fitsUint16(s string) bool {
	_, err := strconv.ParseUint(s, 10, 16)
	return err == nil
}

// ValidateRouteTargets validates every value of a route-target set.
func ValidateRouteTargets(values []string) error {
	for _, v := range values {
		if err := ValidateRouteTarget(v); err != nil {
			return err
		}
	}
	return nil
}

// ValidateRouteDistinguishers validates every value of a route-distinguisher set.
func ValidateRouteDistinguishers(values []string) error {
	for _, v := range values {
		if err := ValidateRouteDistinguisher(v); err != nil {
			return err
		}
	}
	return nil
}

// Dedup returns values with duplicates removed, keeping the first occurrence
// of each. A nil input yields an empty, non-nil slice.
func Dedup(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
