package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Storage  StorageConfig  `mapstructure:"storage"`
	OAuth    OAuthConfig    `mapstructure:"oauth"`
	Email    EmailConfig    `mapstructure:"email"`
	Queue    QueueConfig    `mapstructure:"queue"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Pass     PassConfig     `mapstructure:"pass"`
	Payment  PaymentConfig  `mapstructure:"payment"`
	Reminder ReminderConfig `mapstructure:"reminder"`
	Listing  ListingConfig  `mapstructure:"listing"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Health   HealthConfig   `mapstructure:"health"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// StorageConfig 对象存储配置，driver 为 oss 或 s3
type StorageConfig struct {
	Driver      string    `mapstructure:"driver"`
	MediaBucket string    `mapstructure:"media_bucket"` // 商品图、头像、评价图
	ChatBucket  string    `mapstructure:"chat_bucket"`  // 聊天图片
	CDNDomain   string    `mapstructure:"cdn_domain"`
	OSS         OSSConfig `mapstructure:"oss"`
	S3          S3Config  `mapstructure:"s3"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
}

type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	PublicURL string `mapstructure:"public_url"`
}

type OAuthConfig struct {
	Google GoogleOAuthConfig `mapstructure:"google"`
}

type GoogleOAuthConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURI  string `mapstructure:"redirect_uri"`
}

type EmailConfig struct {
	SMTPHost      string `mapstructure:"smtp_host"`
	SMTPPort      int    `mapstructure:"smtp_port"`
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
	From          string `mapstructure:"from"`
	TestRecipient string `mapstructure:"test_recipient"` // 非空时所有提醒邮件都发到这里
	SiteURL       string `mapstructure:"site_url"`
}

type QueueConfig struct {
	EmailQueue string `mapstructure:"email_queue"`
	MaxWorkers int    `mapstructure:"max_workers"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

type PassConfig struct {
	ValidityDays int `mapstructure:"validity_days"`
}

type PaymentConfig struct {
	KeyID     string `mapstructure:"key_id"`
	KeySecret string `mapstructure:"key_secret"`
}

type ReminderConfig struct {
	FirstAfterHours  int    `mapstructure:"first_after_hours"`
	SecondAfterHours int    `mapstructure:"second_after_hours"`
	Schedule         string `mapstructure:"schedule"`
	BatchSize        int    `mapstructure:"batch_size"`
}

type ListingConfig struct {
	EarlyAccessHours int `mapstructure:"early_access_hours"`
	MaxImages        int `mapstructure:"max_images"`
}

type UploadConfig struct {
	MaxSize           int64    `mapstructure:"max_size"`           // 最大文件大小（字节）
	AllowedExtensions []string `mapstructure:"allowed_extensions"` // 允许的扩展名
}

type HealthConfig struct {
	APIURL         string `mapstructure:"api_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func Load(configPath string) (*Config, error) {
	// 优先尝试读取 config.local.yaml（包含真实密钥，不提交到git）
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")

	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// 环境变量覆盖
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// PathFromEnv 读取 CONFIG_PATH，默认 config.yaml
func PathFromEnv() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config.yaml"
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.JWT.ExpireHours == 0 {
		c.JWT.ExpireHours = 72
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "oss"
	}
	if c.Queue.EmailQueue == "" {
		c.Queue.EmailQueue = "email_jobs"
	}
	if c.Queue.MaxWorkers <= 0 {
		c.Queue.MaxWorkers = 2
	}
	if c.Pass.ValidityDays <= 0 {
		c.Pass.ValidityDays = 30
	}
	if c.Reminder.FirstAfterHours <= 0 {
		c.Reminder.FirstAfterHours = 12
	}
	if c.Reminder.SecondAfterHours <= 0 {
		c.Reminder.SecondAfterHours = 14
	}
	if c.Reminder.BatchSize <= 0 {
		c.Reminder.BatchSize = 200
	}
	if c.Listing.EarlyAccessHours < 0 {
		c.Listing.EarlyAccessHours = 0
	}
	if c.Listing.MaxImages <= 0 {
		c.Listing.MaxImages = 6
	}
	if c.Upload.MaxSize <= 0 {
		c.Upload.MaxSize = 5 * 1024 * 1024
	}
	if len(c.Upload.AllowedExtensions) == 0 {
		c.Upload.AllowedExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}
	}
	if c.Health.TimeoutSeconds <= 0 {
		c.Health.TimeoutSeconds = 10
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}
