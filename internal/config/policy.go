package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/iliyamo/coworking-reservation/internal/policy"
)

// PolicyFile is the on-disk shape of the booking rules:
//
//	[booking]
//	advance_days = 2
//	cancellation_lead_days = 2
//	timezone = "America/Monterrey"
type PolicyFile struct {
	Booking BookingSection `toml:"booking"`
}

type BookingSection struct {
	AdvanceDays          *int   `toml:"advance_days"`
	CancellationLeadDays *int   `toml:"cancellation_lead_days"`
	Timezone             string `toml:"timezone"`
}

// LoadPolicy reads booking rules from a TOML file.  An empty path or a
// missing file yields policy.Default(); keys left out of the file keep
// their default value.
func LoadPolicy(path string) (policy.Policy, error) {
	p := policy.Default()
	if path == "" {
		return p, nil
	}
	var f PolicyFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return p, nil
		}
		return p, fmt.Errorf("failed to load policy file: %w", err)
	}
	if v := f.Booking.AdvanceDays; v != nil {
		if *v < 0 {
			return p, fmt.Errorf("advance_days must not be negative, got %d", *v)
		}
		p.AdvanceDays = *v
	}
	if v := f.Booking.CancellationLeadDays; v != nil {
		if *v < 0 {
			return p, fmt.Errorf("cancellation_lead_days must not be negative, got %d", *v)
		}
		p.CancellationLeadDays = *v
	}
	if f.Booking.Timezone != "" {
		loc, err := time.LoadLocation(f.Booking.Timezone)
		if err != nil {
			return p, fmt.Errorf("invalid timezone %q: %w", f.Booking.Timezone, err)
		}
		p.Location = loc
	}
	return p, nil
}
