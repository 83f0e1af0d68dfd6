package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database    DatabaseConfig `yaml:"database"`
	RabbitMQ    RabbitMQConfig `yaml:"rabbitmq"`
	Scrape      ScrapeConfig   `yaml:"scrape"`
	Run         RunConfig      `yaml:"run"`
	Schedule    ScheduleConfig `yaml:"schedule"`
	MetricsAddr string         `yaml:"metrics_addr"`
	LogLevel    string         `yaml:"log_level"`
}

// RabbitMQConfig configures the batch sink. An empty URL disables it.
type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	DBName          string        `yaml:"dbname"`
	SSLMode         string        `yaml:"sslmode"`
	PoolSize        int           `yaml:"pool_size"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
	AcquireAttempts int           `yaml:"acquire_attempts"`
	AcquirePause    time.Duration `yaml:"acquire_pause"`
	Retry           RetryConfig   `yaml:"retry"`
}

// DSN renders a lib/pq keyword/value connection string. The password is
// quoted so that an empty one does not swallow the next keyword.
func (d DatabaseConfig) DSN(applicationName string) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password='%s' dbname=%s sslmode=%s connect_timeout=%d application_name=%s",
		d.Host, d.Port, d.User, quoteDSN(d.Password), d.DBName, d.SSLMode,
		int(d.ConnectTimeout.Seconds()), applicationName,
	)
}

func quoteDSN(v string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v)
}

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
}

type ScrapeConfig struct {
	Categories          []string      `yaml:"categories"`
	MaxListings         *int          `yaml:"max_listings"`
	IncludeDetailedData *bool         `yaml:"include_detailed_data"`
	SearchQuery         string        `yaml:"search_query"`
	Location            string        `yaml:"location"`
	PriceMin            int           `yaml:"price_min"`
	PriceMax            int           `yaml:"price_max"`
	HostTemplate        string        `yaml:"host_template"`
	PageSize            int           `yaml:"page_size"`
	PageDelay           time.Duration `yaml:"page_delay"`
	DetailDelay         time.Duration `yaml:"detail_delay"`
	Timeout             time.Duration `yaml:"timeout"`
	UserAgent           string        `yaml:"user_agent"`
}

// RunConfig identifies the run. Token and ClassificationID are usually
// filled by the scheduler through environment variables.
type RunConfig struct {
	Token            string `yaml:"token"`
	SourceName       string `yaml:"source_name"`
	ClassificationID string `yaml:"classification_id"`
}

type ScheduleConfig struct {
	Interval time.Duration `yaml:"interval"`
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return Parse(data)
}

// Parse expands environment references in data and decodes it.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Database.Host == "" {
		c.Database.Host = "localhost"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 25432
	}
	if c.Database.User == "" {
		c.Database.User = "postgres"
	}
	if c.Database.DBName == "" {
		c.Database.DBName = "bazos_scraper"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "prefer"
	}
	if c.Database.PoolSize <= 0 {
		c.Database.PoolSize = 5
	}
	if c.Database.ConnectTimeout == 0 {
		c.Database.ConnectTimeout = 30 * time.Second
	}
	if c.Database.AcquireAttempts == 0 {
		c.Database.AcquireAttempts = 3
	}
	if c.Database.AcquirePause == 0 {
		c.Database.AcquirePause = 1 * time.Second
	}
	if c.Database.Retry.MaxAttempts == 0 {
		c.Database.Retry.MaxAttempts = 3
	}
	if c.Database.Retry.BaseDelay == 0 {
		c.Database.Retry.BaseDelay = 1 * time.Second
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "listing_harvester"
	}
	if c.RabbitMQ.RoutingKey == "" {
		c.RabbitMQ.RoutingKey = "listings"
	}
	if c.RabbitMQ.QueueName == "" {
		c.RabbitMQ.QueueName = "listing_batches"
	}
	if len(c.Scrape.Categories) == 0 {
		c.Scrape.Categories = []string{"auto"}
	}
	if c.Scrape.MaxListings == nil {
		maxListings := 100
		c.Scrape.MaxListings = &maxListings
	}
	if c.Scrape.IncludeDetailedData == nil {
		detailed := true
		c.Scrape.IncludeDetailedData = &detailed
	}
	if c.Scrape.HostTemplate == "" {
		c.Scrape.HostTemplate = "https://%s.bazos.cz"
	}
	if c.Scrape.PageSize == 0 {
		c.Scrape.PageSize = 20
	}
	if c.Scrape.PageDelay == 0 {
		c.Scrape.PageDelay = 1 * time.Second
	}
	if c.Scrape.DetailDelay == 0 {
		c.Scrape.DetailDelay = 500 * time.Millisecond
	}
	if c.Scrape.Timeout == 0 {
		c.Scrape.Timeout = 30 * time.Second
	}
	if c.Run.SourceName == "" {
		c.Run.SourceName = "bazos_scraper"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) validate() error {
	if *c.Scrape.MaxListings < 0 {
		return fmt.Errorf("scrape.max_listings must not be negative")
	}
	if c.Scrape.PriceMin < 0 || c.Scrape.PriceMax < 0 {
		return fmt.Errorf("scrape price bounds must not be negative")
	}
	if c.Scrape.PriceMax > 0 && c.Scrape.PriceMin > c.Scrape.PriceMax {
		return fmt.Errorf("scrape.price_min %d exceeds scrape.price_max %d", c.Scrape.PriceMin, c.Scrape.PriceMax)
	}
	if c.Schedule.Interval < 0 {
		return fmt.Errorf("schedule.interval must not be negative")
	}
	return nil
}

// Classification parses ClassificationID. An empty value yields nil.
func (r RunConfig) Classification() (*int64, error) {
	if r.ClassificationID == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(r.ClassificationID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse classification id %q: %w", r.ClassificationID, err)
	}
	return &id, nil
}
