package useragent

import (
	"fmt"
	"os"
	"strings"

	"github.com/ua-parser/uap-go/uaparser"
	"go.uber.org/zap"
)

// Device classes reported in analytics events.
const (
	DeviceMobile  = "Mobile"
	DeviceTablet  = "Tablet"
	DeviceDesktop = "Desktop"
)

// UnknownBrowser is reported when the User-Agent cannot be parsed.
const UnknownBrowser = "Unknown"

// Parser wraps the uap-go parser with the device classification used for
// click analytics.
type Parser struct {
	parser *uaparser.Parser
	log    *zap.Logger
}

// New creates a parser backed by the uap-core definitions compiled into
// uap-go.
func New(log *zap.Logger) *Parser {
	return &Parser{
		parser: uaparser.NewFromSaved(),
		log:    log,
	}
}

// NewFromFile creates a parser from an external regexes.yaml, for deployments
// that ship newer uap-core definitions than the compiled-in set.
func NewFromFile(regexFilePath string, log *zap.Logger) (*Parser, error) {
	regexBytes, err := os.ReadFile(regexFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read regexes file: %w", err)
	}

	parser, err := uaparser.NewFromBytes(regexBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create User-Agent parser: %w", err)
	}

	log.Info("User-Agent parser initialized", zap.String("regexes_file", regexFilePath))

	return &Parser{
		parser: parser,
		log:    log,
	}, nil
}

// Browser returns the browser family for a User-Agent string, or
// UnknownBrowser when the string is empty or unrecognized.
func (p *Parser) Browser(userAgent string) string {
	if p == nil || p.parser == nil || userAgent == "" {
		return UnknownBrowser
	}

	client := p.parser.Parse(userAgent)
	family := client.UserAgent.Family
	if family == "" || family == "Other" {
		return UnknownBrowser
	}
	return family
}

// DeviceType classifies a User-Agent as Mobile, Tablet or Desktop.
// The check is substring-based on purpose: "mobile" wins over "tablet",
// everything else counts as desktop.
func DeviceType(userAgent string) string {
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "mobile"):
		return DeviceMobile
	case strings.Contains(ua, "tablet"):
		return DeviceTablet
	default:
		return DeviceDesktop
	}
}
