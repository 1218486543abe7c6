package config

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultListenAddr     = "127.0.0.1:27232"
	DefaultRequestTimeout = 10 * time.Second
	DefaultWorkerLimit    = 3
	DefaultTargetLang     = "zh"
)

func getDefaultDataDir() string {
	// 优先使用 XDG_DATA_HOME 环境变量
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "lyricbridge")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		// 如果获取不到用户主目录，回退到当前目录
		return "lyricbridge_data"
	}

	return filepath.Join(homeDir, ".local", "share", "lyricbridge")
}

// TomlConfig TOML配置文件结构
type TomlConfig struct {
	App struct {
		ListenAddr     string `toml:"listen_addr"`
		DataDir        string `toml:"data_dir"`
		RequestTimeout string `toml:"request_timeout"`
		WorkerLimit    int    `toml:"worker_limit"`
	} `toml:"app"`

	Provider struct {
		NeteaseCookie string `toml:"netease_cookie"`
		QQCookie      string `toml:"qq_cookie"`
	} `toml:"provider"`

	Translate struct {
		Backend    string `toml:"backend"` // tencent / openai / gemini
		TargetLang string `toml:"target_lang"`
		SecretID   string `toml:"secret_id"`  // tencent
		SecretKey  string `toml:"secret_key"` // tencent
		APIKey     string `toml:"api_key"`    // openai / gemini
		ModelName  string `toml:"model_name"`
		BaseURL    string `toml:"base_url"` // for OpenAI
	} `toml:"translate"`

	Redis struct {
		Addr     string `toml:"addr"`
		Password string `toml:"password"`
		DB       int    `toml:"db"`
	} `toml:"redis"`
}

// AppConfig 应用配置
type AppConfig struct {
	ListenAddr     string
	DataDir        string
	RequestTimeout time.Duration
	WorkerLimit    int
}

// ProviderConfig 音乐平台配置
type ProviderConfig struct {
	NeteaseCookie string
	QQCookie      string
}

// TranslateConfig 翻译后端配置
type TranslateConfig struct {
	Backend    string
	TargetLang string
	SecretID   string
	SecretKey  string
	APIKey     string
	ModelName  string
	BaseURL    string
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Config 主配置结构
type Config struct {
	App       AppConfig
	Provider  ProviderConfig
	Translate TranslateConfig
	Redis     RedisConfig
}

// getConfigPath 获取配置文件路径
func getConfigPath() string {
	// 优先使用 XDG_CONFIG_HOME 环境变量
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "lyricbridge", "config.toml")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Printf("WARN: Cannot get user home directory: %v", err)
		return "config.toml" // 回退到当前目录
	}

	return filepath.Join(homeDir, ".config", "lyricbridge", "config.toml")
}

// loadTomlConfig 加载TOML配置文件
func loadTomlConfig() (*TomlConfig, error) {
	configPath := getConfigPath()

	// 检查配置文件是否存在
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Printf("INFO: Config file not found at %s, using defaults", configPath)
		return &TomlConfig{}, nil
	}

	var config TomlConfig
	if _, err := toml.DecodeFile(configPath, &config); err != nil {
		return nil, err
	}

	log.Printf("INFO: Loaded config from %s", configPath)
	return &config, nil
}

func Load() *Config {
	// 加载TOML配置文件
	tomlConfig, err := loadTomlConfig()
	if err != nil {
		log.Printf("ERROR: Failed to load config file: %v", err)
		log.Printf("INFO: Using default configuration")
		tomlConfig = &TomlConfig{}
	}

	// 设置默认值
	config := &Config{
		App: AppConfig{
			ListenAddr:     DefaultListenAddr,
			DataDir:        getDefaultDataDir(),
			RequestTimeout: DefaultRequestTimeout,
			WorkerLimit:    DefaultWorkerLimit,
		},
		Translate: TranslateConfig{
			Backend:    "tencent",
			TargetLang: DefaultTargetLang,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
		},
	}

	// 从TOML配置中覆盖App设置
	if tomlConfig.App.ListenAddr != "" {
		config.App.ListenAddr = tomlConfig.App.ListenAddr
	}

	if tomlConfig.App.DataDir != "" {
		config.App.DataDir = tomlConfig.App.DataDir
	}

	if tomlConfig.App.RequestTimeout != "" {
		if duration, err := time.ParseDuration(tomlConfig.App.RequestTimeout); err == nil {
			config.App.RequestTimeout = duration
		} else {
			log.Printf("WARN: Invalid request_timeout format '%s', using default", tomlConfig.App.RequestTimeout)
		}
	}

	if tomlConfig.App.WorkerLimit > 0 {
		config.App.WorkerLimit = tomlConfig.App.WorkerLimit
	}

	// 从TOML配置中覆盖平台设置
	config.Provider.NeteaseCookie = tomlConfig.Provider.NeteaseCookie
	config.Provider.QQCookie = tomlConfig.Provider.QQCookie

	// 从TOML配置中覆盖翻译设置
	if tomlConfig.Translate.Backend != "" {
		config.Translate.Backend = tomlConfig.Translate.Backend
	}

	if tomlConfig.Translate.TargetLang != "" {
		config.Translate.TargetLang = tomlConfig.Translate.TargetLang
	}

	config.Translate.SecretID = tomlConfig.Translate.SecretID
	config.Translate.SecretKey = tomlConfig.Translate.SecretKey
	config.Translate.APIKey = tomlConfig.Translate.APIKey
	config.Translate.ModelName = tomlConfig.Translate.ModelName
	config.Translate.BaseURL = tomlConfig.Translate.BaseURL

	// 从TOML配置中覆盖Redis设置
	if tomlConfig.Redis.Addr != "" {
		config.Redis.Addr = tomlConfig.Redis.Addr
	}

	if tomlConfig.Redis.Password != "" {
		config.Redis.Password = tomlConfig.Redis.Password
	}

	if tomlConfig.Redis.DB != 0 {
		config.Redis.DB = tomlConfig.Redis.DB
	}

	return config
}
