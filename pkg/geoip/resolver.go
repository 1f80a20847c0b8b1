package geoip

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
	"go.uber.org/zap"
)

// UnknownCountry is reported when the lookup fails or the IP is absent.
const UnknownCountry = "Unknown"

// Resolver maps client IPs to ISO country codes using a MaxMind database.
// A nil *Resolver is valid and always reports UnknownCountry, so callers do
// not need to special-case deployments without a GeoIP database.
type Resolver struct {
	reader *geoip2.Reader
	log    *zap.Logger
}

// New opens the MaxMind database at dbPath.
func New(dbPath string, log *zap.Logger) (*Resolver, error) {
	reader, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open GeoIP database: %w", err)
	}

	log.Info("GeoIP resolver initialized", zap.String("database", dbPath))

	return &Resolver{
		reader: reader,
		log:    log,
	}, nil
}

// Country returns the ISO country code for ip, or UnknownCountry when the
// resolver is absent, the IP does not parse, or the database has no record.
func (r *Resolver) Country(ipAddress string) string {
	if r == nil || r.reader == nil || ipAddress == "" {
		return UnknownCountry
	}

	ip := net.ParseIP(ipAddress)
	if ip == nil {
		return UnknownCountry
	}

	record, err := r.reader.Country(ip)
	if err != nil {
		r.log.Debug("GeoIP lookup failed", zap.String("ip", ipAddress), zap.Error(err))
		return UnknownCountry
	}

	if record.Country.IsoCode == "" {
		return UnknownCountry
	}
	return record.Country.IsoCode
}

// Close releases the underlying database reader.
func (r *Resolver) Close() error {
	if r == nil || r.reader == nil {
		return nil
	}
	return r.reader.Close()
}
