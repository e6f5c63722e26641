// Package config builds the immutable exporter configuration from command-line
// flags with environment-variable fallback (flags win over environment,
// environment wins over defaults).
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
)

// Options is the raw go-flags option struct. Each field maps one CLI flag to
// its PATRONI_EXPORTER_* environment variable, mirroring the systemd units
// this exporter is usually deployed with.
type Options struct {
	Port int `short:"p" long:"port" env:"PATRONI_EXPORTER_PORT" default:"9547" description:"Port to bind to"`

	Bind string `short:"b" long:"bind" env:"PATRONI_EXPORTER_BIND" description:"Interface to listen at"`

	PatroniURL string `short:"u" long:"patroni-url" env:"PATRONI_EXPORTER_URL" default:"http://localhost:8008/patroni" description:"Patroni API URL where to send GET requests to"`

	Debug bool `short:"d" long:"debug" env:"PATRONI_EXPORTER_DEBUG" description:"Enable debug output"`

	Timeout int `short:"t" long:"timeout" env:"PATRONI_EXPORTER_TIMEOUT" default:"5" description:"Patroni API GET timeout, in seconds"`

	AddressFamily string `short:"a" long:"address-family" env:"PATRONI_EXPORTER_ADDRESS_FAMILY" default:"ipv4" choice:"ipv4" choice:"ipv6" description:"Socket address family"`

	RequestsVerify string `long:"requests-verify" env:"PATRONI_EXPORTER_REQUEST_VERIFY" default:"true" description:"Accepts true|false, in which case it controls whether requests verify the server's TLS certificate, or a path to a CA bundle to use"`

	LogFormat string `long:"log-format" env:"PATRONI_EXPORTER_LOG_FORMAT" default:"plain" choice:"plain" choice:"text" choice:"json" description:"Log output format"`
}

// VerifyPolicy is the resolved --requests-verify value.
// The zero value verifies against the system trust store.
type VerifyPolicy struct {
	// SkipVerify disables TLS certificate verification entirely.
	SkipVerify bool

	// CABundle, when non-empty, is a path to a PEM bundle to verify against
	// instead of the system trust store.
	CABundle string
}

// Config is the immutable runtime configuration. It is built once at startup
// and only read afterwards.
type Config struct {
	Port      int
	Bind      string
	URL       *url.URL
	Debug     bool
	Timeout   time.Duration
	Network   string // "tcp4" or "tcp6"
	Verify    VerifyPolicy
	LogFormat string
}

const maxPort = 65535

// ErrHelp is returned by Parse when the user asked for --help; the usage text
// has already been written to stdout in that case.
var ErrHelp = errors.New("help requested")

// Parse parses the given argument list (without the program name) and the
// process environment into a validated Config.
func Parse(args []string) (*Config, error) {
	var opts Options

	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)

	if _, parseErr := parser.ParseArgs(args); parseErr != nil {
		var flagsErr *flags.Error
		if errors.As(parseErr, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, flagsErr.Message)

			return nil, ErrHelp
		}

		return nil, fmt.Errorf("parse arguments: %w", parseErr)
	}

	return build(&opts)
}

// build validates raw options and resolves them into a Config.
func build(opts *Options) (*Config, error) {
	if opts.Port < 1 || opts.Port > maxPort {
		return nil, fmt.Errorf("invalid port %d: must be 1-%d", opts.Port, maxPort)
	}

	parsedURL, urlErr := url.Parse(opts.PatroniURL)
	if urlErr != nil {
		return nil, fmt.Errorf("invalid patroni URL %q: %w", opts.PatroniURL, urlErr)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("invalid patroni URL %q: scheme must be http or https", opts.PatroniURL)
	}

	if parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid patroni URL %q: missing host", opts.PatroniURL)
	}

	if opts.Timeout < 1 {
		return nil, fmt.Errorf("invalid timeout %d: must be at least 1 second", opts.Timeout)
	}

	network, familyErr := listenNetwork(opts.AddressFamily)
	if familyErr != nil {
		return nil, familyErr
	}

	verify, verifyErr := parseVerify(opts.RequestsVerify)
	if verifyErr != nil {
		return nil, verifyErr
	}

	return &Config{
		Port:      opts.Port,
		Bind:      opts.Bind,
		URL:       parsedURL,
		Debug:     opts.Debug,
		Timeout:   time.Duration(opts.Timeout) * time.Second,
		Network:   network,
		Verify:    verify,
		LogFormat: opts.LogFormat,
	}, nil
}

// ListenAddr joins the bind interface and port into a host:port address.
// An empty bind interface means all interfaces of the configured family.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}

// listenNetwork maps an address family name to the net.Listen network string.
func listenNetwork(family string) (string, error) {
	switch strings.ToLower(family) {
	case "ipv4":
		return "tcp4", nil
	case "ipv6":
		return "tcp6", nil
	default:
		return "", fmt.Errorf("invalid address family %q: must be ipv4 or ipv6", family)
	}
}

// parseVerify resolves the --requests-verify value. Anything other than the
// literals true/false is treated as a CA bundle path, which must exist.
func parseVerify(raw string) (VerifyPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "true":
		return VerifyPolicy{}, nil
	case "false":
		return VerifyPolicy{SkipVerify: true}, nil
	}

	info, statErr := os.Stat(raw)
	if statErr != nil {
		return VerifyPolicy{}, fmt.Errorf("requests-verify CA bundle %q: %w", raw, statErr)
	}

	if info.IsDir() {
		return VerifyPolicy{}, fmt.Errorf("requests-verify CA bundle %q is a directory", raw)
	}

	return VerifyPolicy{CABundle: raw}, nil
}
