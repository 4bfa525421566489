package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Log      LogConfig
	Catalog  CatalogConfig
	Browse   BrowseConfig
	Drafts   DraftsConfig
	Images   ImagesConfig
	Render   RenderConfig
	Gallery  GalleryConfig
	Export   ExportConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CatalogConfig tunes template catalog reads and their Redis caching.
type CatalogConfig struct {
	PageSize     int
	CacheEnabled bool
	CacheTTL     time.Duration
}

// BrowseConfig governs server-held catalog browse sessions.
type BrowseConfig struct {
	SessionTTL    time.Duration
	SweepInterval time.Duration
}

// DraftsConfig governs poster draft sessions and photo uploads.
type DraftsConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
	PhotoDir      string
	MaxPhotoBytes int64
}

// ImagesConfig tunes the template/photo image pipeline.
type ImagesConfig struct {
	AssetDir      string
	FetchTimeout  time.Duration
	FetchRetries  int
	RetryBackoff  time.Duration
	CacheCapacity int
	ByteCacheTTL  time.Duration
}

// RenderConfig controls poster rasterization.
type RenderConfig struct {
	ExportScale  float64
	QRSize       int
	FontPath     string
	ShareBaseURL string
}

// GalleryConfig controls exported poster storage and download tokens.
type GalleryConfig struct {
	Dir             string
	Album           string
	DownloadSecret  string
	DownloadTTL     time.Duration
	CleanupInterval time.Duration
}

// ExportConfig tunes the export worker pool.
type ExportConfig struct {
	WorkerConcurrency int
	WorkerRetries     int
	QueueSize         int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Catalog = CatalogConfig{
		PageSize:     v.GetInt("CATALOG_PAGE_SIZE"),
		CacheEnabled: v.GetBool("CATALOG_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("CATALOG_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Browse = BrowseConfig{
		SessionTTL:    parseDuration(v.GetString("BROWSE_SESSION_TTL"), 30*time.Minute),
		SweepInterval: parseDuration(v.GetString("BROWSE_SWEEP_INTERVAL"), 5*time.Minute),
	}

	maxPhoto := v.GetInt64("DRAFT_MAX_PHOTO_BYTES")
	if maxPhoto <= 0 {
		maxPhoto = 8 * 1024 * 1024
	}
	cfg.Drafts = DraftsConfig{
		TTL:           parseDuration(v.GetString("DRAFT_TTL"), time.Hour),
		SweepInterval: parseDuration(v.GetString("DRAFT_SWEEP_INTERVAL"), 10*time.Minute),
		PhotoDir:      v.GetString("DRAFT_PHOTO_DIR"),
		MaxPhotoBytes: maxPhoto,
	}

	cfg.Images = ImagesConfig{
		AssetDir:      v.GetString("IMAGE_ASSET_DIR"),
		FetchTimeout:  parseDuration(v.GetString("IMAGE_FETCH_TIMEOUT"), 10*time.Second),
		FetchRetries:  v.GetInt("IMAGE_FETCH_RETRIES"),
		RetryBackoff:  parseDuration(v.GetString("IMAGE_RETRY_BACKOFF"), 250*time.Millisecond),
		CacheCapacity: v.GetInt("IMAGE_CACHE_CAPACITY"),
		ByteCacheTTL:  parseDuration(v.GetString("IMAGE_BYTE_CACHE_TTL"), 12*time.Hour),
	}

	cfg.Render = RenderConfig{
		ExportScale:  v.GetFloat64("RENDER_EXPORT_SCALE"),
		QRSize:       v.GetInt("RENDER_QR_SIZE"),
		FontPath:     v.GetString("RENDER_FONT_PATH"),
		ShareBaseURL: v.GetString("RENDER_SHARE_BASE_URL"),
	}

	cfg.Gallery = GalleryConfig{
		Dir:             v.GetString("GALLERY_DIR"),
		Album:           v.GetString("GALLERY_ALBUM"),
		DownloadSecret:  v.GetString("GALLERY_DOWNLOAD_SECRET"),
		DownloadTTL:     parseDuration(v.GetString("GALLERY_DOWNLOAD_TTL"), 24*time.Hour),
		CleanupInterval: parseDuration(v.GetString("GALLERY_CLEANUP_INTERVAL"), 0),
	}

	cfg.Export = ExportConfig{
		WorkerConcurrency: v.GetInt("EXPORT_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("EXPORT_WORKER_RETRIES"),
		QueueSize:         v.GetInt("EXPORT_QUEUE_SIZE"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "vyom_posters")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CATALOG_PAGE_SIZE", 20)
	v.SetDefault("CATALOG_CACHE_ENABLED", false)
	v.SetDefault("CATALOG_CACHE_TTL", "5m")

	v.SetDefault("BROWSE_SESSION_TTL", "30m")
	v.SetDefault("BROWSE_SWEEP_INTERVAL", "5m")

	v.SetDefault("DRAFT_TTL", "1h")
	v.SetDefault("DRAFT_SWEEP_INTERVAL", "10m")
	v.SetDefault("DRAFT_PHOTO_DIR", "./data/photos")
	v.SetDefault("DRAFT_MAX_PHOTO_BYTES", 8*1024*1024)

	v.SetDefault("IMAGE_ASSET_DIR", "./assets")
	v.SetDefault("IMAGE_FETCH_TIMEOUT", "10s")
	v.SetDefault("IMAGE_FETCH_RETRIES", 1)
	v.SetDefault("IMAGE_RETRY_BACKOFF", "250ms")
	v.SetDefault("IMAGE_CACHE_CAPACITY", 128)
	v.SetDefault("IMAGE_BYTE_CACHE_TTL", "12h")

	v.SetDefault("RENDER_EXPORT_SCALE", 3.0)
	v.SetDefault("RENDER_QR_SIZE", 256)
	v.SetDefault("RENDER_FONT_PATH", "")
	v.SetDefault("RENDER_SHARE_BASE_URL", "")

	v.SetDefault("GALLERY_DIR", "./data/gallery")
	v.SetDefault("GALLERY_ALBUM", "Vyom Posters")
	v.SetDefault("GALLERY_DOWNLOAD_SECRET", "dev_gallery_secret")
	v.SetDefault("GALLERY_DOWNLOAD_TTL", "24h")
	v.SetDefault("GALLERY_CLEANUP_INTERVAL", "0")

	v.SetDefault("EXPORT_WORKER_CONCURRENCY", 1)
	v.SetDefault("EXPORT_WORKER_RETRIES", 3)
	v.SetDefault("EXPORT_QUEUE_SIZE", 16)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
