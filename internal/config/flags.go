package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

func commandLineArgs() []string {
	return os.Args[1:]
}

// parseFlags parses all configuration flags from args.
//
// Flags:
//
//	-a document server listen address in format [host]:[port]
//	-r remote document server address for the node (e.g. "http://localhost:8080")
//	-d database DSN
//	-c/-config json file path with configs
//	-log-file rotating log file path
//	-auth-token bearer token presented by the node
//	-token-sign-key token signing key
//	-token-issuer token issuer name
//	-token-duration token duration (e.g., "1h", "30m")
//	-request-timeout request timeout (e.g., "30s", "1m")
//	-sync-interval outbox drain interval
//	-cleanup-interval maintenance interval
//	-max-retries failed attempts before an outbox entry is parked
//	-batch-size outbox entries per drain
func parseFlags(args []string) (*StructuredConfig, error) {
	fs := flag.NewFlagSet("go-farm-sync", flag.ContinueOnError)

	var serverAddress NetAddress
	var remoteAddress string
	var databaseDSN string
	var jsonConfigPath string
	var logFile string
	var authToken string
	var tokenSignKey string
	var tokenIssuer string
	var tokenDuration time.Duration
	var requestTimeout time.Duration
	var syncInterval time.Duration
	var cleanupInterval time.Duration
	var maxRetries int
	var batchSize int

	fs.Var(&serverAddress, "a", "Net address host:port")
	fs.StringVar(&remoteAddress, "r", "", "Remote document server address")
	fs.StringVar(&databaseDSN, "d", "", "Database DSN")
	fs.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	fs.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	fs.StringVar(&logFile, "log-file", "", "Log file path")
	fs.StringVar(&authToken, "auth-token", "", "Bearer token for the document server")
	fs.StringVar(&tokenSignKey, "token-sign-key", "", "Token signing key")
	fs.StringVar(&tokenIssuer, "token-issuer", "", "Token issuer")
	fs.DurationVar(&tokenDuration, "token-duration", 0, "Token duration (e.g., 1h, 30m)")
	fs.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	fs.DurationVar(&syncInterval, "sync-interval", 0, "Outbox drain interval")
	fs.DurationVar(&cleanupInterval, "cleanup-interval", 0, "Cleanup interval")
	fs.IntVar(&maxRetries, "max-retries", 0, "Failed attempts before an entry is parked")
	fs.IntVar(&batchSize, "batch-size", 0, "Outbox entries per drain")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return &StructuredConfig{
		App: App{
			LogFile: logFile,
		},
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
		},
		Server: Server{
			HTTPAddress:    serverAddress.String(),
			RequestTimeout: requestTimeout,
		},
		Adapter: Adapter{
			HTTPAddress:    remoteAddress,
			RequestTimeout: requestTimeout,
			AuthToken:      authToken,
		},
		Auth: Auth{
			TokenSignKey:  tokenSignKey,
			TokenIssuer:   tokenIssuer,
			TokenDuration: tokenDuration,
		},
		Workers: Workers{
			SyncInterval:    syncInterval,
			CleanupInterval: cleanupInterval,
		},
		Sync: Sync{
			MaxRetries: maxRetries,
			BatchSize:  batchSize,
		},
		JSONFilePath: jsonConfigPath,
	}, nil
}

// String returns a canonical host:port string for a NetAddress.
// If neither Host nor Port are set, it returns an empty string.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range, checks IP correctness unless host is "localhost",
// and returns an error if the format or values are invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 {
		return errors.New("port number is a positive integer")
	}

	if host != "localhost" && host != "" {
		ip := net.ParseIP(hostAndPort[0])
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
