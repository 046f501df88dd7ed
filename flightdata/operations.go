package flightdata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/queuecast/paxcache/cache"
	"github.com/queuecast/paxcache/upstream"
)

// Key prefixes, one per resource family. Invalidate accepts these.
const (
	PrefixSchedule = "schedule"
	PrefixAirports = "airports"
	PrefixAirline  = "airline"
	PrefixAircraft = "aircraft"
	PrefixLogo     = "logo"
	PrefixHistory  = "history"
)

// Date layouts accepted by the dated operations.
const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

// Schedules returns the departure schedule payload for one airport and
// day (YYYY-MM-DD). Schedules move with the operational day, so entries
// live 30 minutes.
func (c *Client) Schedules(ctx context.Context, airport, day string) ([]byte, error) {
	airport, err := normalizeAirport(airport)
	if err != nil {
		return nil, err
	}
	if _, err := time.Parse(dayLayout, day); err != nil {
		return nil, fmt.Errorf("flightdata: schedules day %q: %w", day, upstream.ErrMalformedDateRange)
	}

	return c.fetch(ctx, Operation{
		Prefix: PrefixSchedule,
		Class:  cache.ClassOperational,
		Params: cache.Params{"airport": airport, "date": day},
	})
}

// Airports returns the supported-airports payload. Reference data, 7 days.
func (c *Client) Airports(ctx context.Context) ([]byte, error) {
	return c.fetch(ctx, Operation{
		Prefix: PrefixAirports,
		Class:  cache.ClassReference,
	})
}

// Airline returns the airline metadata payload for one carrier code.
// Reference data, 7 days.
func (c *Client) Airline(ctx context.Context, code string) ([]byte, error) {
	code, err := normalizeCarrier(code)
	if err != nil {
		return nil, err
	}

	return c.fetch(ctx, Operation{
		Prefix: PrefixAirline,
		Class:  cache.ClassReference,
		Params: cache.Params{"code": code},
	})
}

// Aircraft returns the aircraft-type payload (seating capacity and
// description) for one type code. Reference data, 7 days.
func (c *Client) Aircraft(ctx context.Context, code string) ([]byte, error) {
	code, err := normalizeAircraft(code)
	if err != nil {
		return nil, err
	}

	return c.fetch(ctx, Operation{
		Prefix: PrefixAircraft,
		Class:  cache.ClassReference,
		Params: cache.Params{"code": code},
	})
}

// AirlineLogo returns the carrier logo payload for one carrier code.
// Reference data, 7 days.
func (c *Client) AirlineLogo(ctx context.Context, code string) ([]byte, error) {
	code, err := normalizeCarrier(code)
	if err != nil {
		return nil, err
	}

	return c.fetch(ctx, Operation{
		Prefix: PrefixLogo,
		Class:  cache.ClassReference,
		Params: cache.Params{"airline": code},
	})
}

// HistoricalLoad returns the passenger-load payload for one airport and
// closed month (YYYY-MM). Historical data, 30 days.
func (c *Client) HistoricalLoad(ctx context.Context, airport, month string) ([]byte, error) {
	airport, err := normalizeAirport(airport)
	if err != nil {
		return nil, err
	}
	if _, err := time.Parse(monthLayout, month); err != nil {
		return nil, fmt.Errorf("flightdata: historical load month %q: %w", month, upstream.ErrMalformedDateRange)
	}

	return c.fetch(ctx, Operation{
		Prefix: PrefixHistory,
		Class:  cache.ClassHistorical,
		Params: cache.Params{"airport": airport, "month": month},
	})
}

// Invalidate removes every cached entry of one resource family and
// returns how many entries went away. Use it when the provider corrects
// published data.
func (c *Client) Invalidate(ctx context.Context, prefix string) (int, error) {
	return c.cache.ClearPrefix(ctx, prefix)
}

// normalizeAirport upper-cases and validates an airport code: 3 letters
// (IATA) or 4 (ICAO).
func normalizeAirport(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) < 3 || len(code) > 4 || !alphanumeric(code) {
		return "", fmt.Errorf("flightdata: airport %q: %w", code, ErrInvalidCode)
	}
	return code, nil
}

// normalizeCarrier upper-cases and validates an airline code: 2
// characters (IATA) or 3 (ICAO).
func normalizeCarrier(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) < 2 || len(code) > 3 || !alphanumeric(code) {
		return "", fmt.Errorf("flightdata: carrier %q: %w", code, ErrInvalidCode)
	}
	return code, nil
}

// normalizeAircraft upper-cases and validates an aircraft type code,
// e.g. "73H" or "A320".
func normalizeAircraft(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) < 2 || len(code) > 4 || !alphanumeric(code) {
		return "", fmt.Errorf("flightdata: aircraft %q: %w", code, ErrInvalidCode)
	}
	return code, nil
}

func alphanumeric(s string) bool {
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
