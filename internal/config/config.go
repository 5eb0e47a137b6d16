package config

import (
	"fmt"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything read from the server's properties file.
type Config struct {
	ServerPort int
	DBUrl      string
	DBUser     string
	DBPassword string
	// ImageHost is prefixed onto profile image paths that are not
	// already absolute URLs.
	ImageHost string
	// DebugAddr, when set, serves expvar counters over HTTP.
	DebugAddr string
}

// Load reads a KEY=VALUE properties file.
func Load(path string) (*Config, error) {
	props, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read properties file: %w", err)
	}

	return NewConfig(
		props["SERVER_PORT"],
		props["DB_URL"],
		props["DB_USER"],
		props["DB_PW"],
		props["IMG_HOST"],
		props["DEBUG_ADDR"],
	)
}

func NewConfig(port, dbUrl, dbUser, dbPw, imgHost, debugAddr string) (*Config, error) {
	if port == "" {
		return nil, fmt.Errorf("SERVER_PORT cannot be empty")
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return nil, fmt.Errorf("parse SERVER_PORT: %w", err)
	}
	if dbUrl == "" {
		return nil, fmt.Errorf("DB_URL cannot be empty")
	}

	return &Config{
		ServerPort: portNum,
		DBUrl:      dbUrl,
		DBUser:     dbUser,
		DBPassword: dbPw,
		ImageHost:  imgHost,
		DebugAddr:  debugAddr,
	}, nil
}

// ListenAddr is the TCP address the acceptor binds.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}

// DSN builds the database connection string, appending credentials
// to DB_URL when they are configured separately.
func (c *Config) DSN() string {
	dsn := c.DBUrl
	if c.DBUser != "" {
		dsn += " user=" + c.DBUser
	}
	if c.DBPassword != "" {
		dsn += " password=" + c.DBPassword
	}
	return dsn
}
