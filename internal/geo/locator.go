package geo

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/SergeiKhy/visitor-analytics/internal/metrics"
	"github.com/SergeiKhy/visitor-analytics/internal/models"
	"github.com/SergeiKhy/visitor-analytics/internal/repository"
	"github.com/oschwald/geoip2-golang"
	"go.uber.org/zap"
)

// PlaceholderAddress подставляется вместо loopback адреса, чтобы при
// локальном тестировании геолокация возвращала правдоподобный результат.
// Это компромисс для локальной разработки, а не механизм приватности.
const PlaceholderAddress = "8.8.8.8"

// PublicAddress заменяет loopback адрес на PlaceholderAddress
func PublicAddress(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed != nil && parsed.IsLoopback() {
		return PlaceholderAddress
	}
	return ip
}

// Locator определяет страну, город и провайдера по IP.
// Ошибки не возвращаются: неизвестные поля заполняются "Unknown".
type Locator interface {
	Lookup(ctx context.Context, ip string) models.Location
}

// MaxMindLocator геолокация по базам GeoLite2 City и ASN.
// Обе базы необязательны.
type MaxMindLocator struct {
	city   *geoip2.Reader
	asn    *geoip2.Reader
	logger *zap.Logger
}

func NewMaxMindLocator(cityPath, asnPath string, logger *zap.Logger) (*MaxMindLocator, error) {
	l := &MaxMindLocator{logger: logger}

	if cityPath != "" {
		reader, err := geoip2.Open(cityPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open GeoIP city database: %w", err)
		}
		l.city = reader
	}

	if asnPath != "" {
		reader, err := geoip2.Open(asnPath)
		if err != nil {
			l.Close()
			return nil, fmt.Errorf("failed to open GeoIP ASN database: %w", err)
		}
		l.asn = reader
	}

	if l.city == nil {
		logger.Warn("GeoIP city database not configured, country and city will be Unknown")
	}

	return l, nil
}

func (l *MaxMindLocator) Lookup(_ context.Context, ip string) models.Location {
	loc := models.UnknownLocation()

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return loc
	}

	if l.city != nil {
		record, err := l.city.City(parsed)
		if err != nil {
			l.logger.Debug("GeoIP city lookup failed", zap.String("ip", ip), zap.Error(err))
		} else {
			if record.Country.IsoCode != "" {
				loc.Country = record.Country.IsoCode
			}
			if name := record.City.Names["en"]; name != "" {
				loc.City = name
			}
		}
	}

	if l.asn != nil {
		record, err := l.asn.ASN(parsed)
		if err != nil {
			l.logger.Debug("GeoIP ASN lookup failed", zap.String("ip", ip), zap.Error(err))
		} else if record.AutonomousSystemOrganization != "" {
			loc.ISP = record.AutonomousSystemOrganization
		}
	}

	return loc
}

func (l *MaxMindLocator) Close() error {
	var errs []error
	if l.city != nil {
		errs = append(errs, l.city.Close())
	}
	if l.asn != nil {
		errs = append(errs, l.asn.Close())
	}
	return errors.Join(errs...)
}

// CachedLocator кэширует результаты геолокации в Redis.
// Ошибки кэша логируются и не влияют на результат.
type CachedLocator struct {
	next   Locator
	cache  repository.GeoCacheRepository
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedLocator(next Locator, cache repository.GeoCacheRepository, ttl time.Duration, logger *zap.Logger) *CachedLocator {
	return &CachedLocator{next: next, cache: cache, ttl: ttl, logger: logger}
}

func (c *CachedLocator) Lookup(ctx context.Context, ip string) models.Location {
	loc, err := c.cache.Get(ctx, ip)
	switch {
	case err == nil:
		metrics.RecordGeoCache("hit")
		return *loc
	case errors.Is(err, repository.ErrCacheMiss):
		metrics.RecordGeoCache("miss")
	default:
		metrics.RecordGeoCache("error")
		c.logger.Warn("Failed to read geo cache", zap.String("ip", ip), zap.Error(err))
	}

	found := c.next.Lookup(ctx, ip)

	if err := c.cache.Set(ctx, ip, found, c.ttl); err != nil {
		c.logger.Warn("Failed to write geo cache", zap.String("ip", ip), zap.Error(err))
	}

	return found
}
