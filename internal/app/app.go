package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"lyricbridge/internal/config"
	"lyricbridge/internal/export"
	"lyricbridge/internal/server"
	"lyricbridge/internal/settings"
	"lyricbridge/pkg/music"
	"lyricbridge/pkg/netease"
	"lyricbridge/pkg/qqmusic"
	"lyricbridge/pkg/redis"
	"lyricbridge/pkg/translate"
	"lyricbridge/pkg/translate/gemini"
	"lyricbridge/pkg/translate/openai"
	"lyricbridge/pkg/translate/tencent"
)

type App struct {
	cfg    *config.Config
	server *server.Server
	cache  *redis.Client
}

func New(cfg *config.Config) *App {
	// 设置 zerolog 的全局配置
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	store, err := settings.NewStore(cfg.App.DataDir)
	if err != nil {
		log.Fatal().Err(err).Str("data_dir", cfg.App.DataDir).Msg("Failed to create settings store")
	}

	// Cookie优先取运行时设置，没有再取启动配置
	neteaseCookie := cookieSupplier(store, "netease", cfg.Provider.NeteaseCookie)
	qqCookie := cookieSupplier(store, "qq", cfg.Provider.QQCookie)

	registry := music.NewRegistry(map[music.Provider]music.MusicAPI{
		music.ProviderNetEase: netease.NewClient(neteaseCookie, cfg.App.RequestTimeout),
		music.ProviderQQMusic: qqmusic.NewClient(qqCookie, cfg.App.RequestTimeout),
	})

	translator := newTranslator(cfg.Translate)

	// Redis连不上只降级为无缓存，不阻塞启动
	cache, err := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unavailable, lyric cache disabled")
		cache = nil
	}

	orchestrator := export.New(registry, translator, cache, cfg.App.WorkerLimit, cfg.Translate.TargetLang, cfg.App.DataDir)

	return &App{
		cfg:    cfg,
		server: server.New(cfg.App.ListenAddr, registry, orchestrator, store),
		cache:  cache,
	}
}

// cookieSupplier 每次调用时读设置，运行时更新的Cookie即刻生效
func cookieSupplier(store *settings.Store, provider, fallback string) music.CookieSupplier {
	return func() string {
		current, err := store.Load()
		if err == nil {
			if cookie, ok := current.Credentials[provider+"_cookie"]; ok && cookie != "" {
				return cookie
			}
		}
		return fallback
	}
}

// newTranslator 按配置创建翻译后端，没配凭证返回nil（翻译步骤跳过）
func newTranslator(cfg config.TranslateConfig) translate.Translator {
	switch cfg.Backend {
	case "tencent":
		if cfg.SecretID == "" || cfg.SecretKey == "" {
			log.Info().Msg("Tencent translate credentials not configured, translation disabled")
			return nil
		}
		client, err := tencent.NewClient(cfg.SecretID, cfg.SecretKey)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create tencent translator")
			return nil
		}
		return client
	case "openai":
		if cfg.APIKey == "" {
			log.Info().Msg("OpenAI api key not configured, translation disabled")
			return nil
		}
		return openai.NewClient(cfg.APIKey, cfg.ModelName, cfg.BaseURL)
	case "gemini":
		if cfg.APIKey == "" {
			log.Info().Msg("Gemini api key not configured, translation disabled")
			return nil
		}
		client, err := gemini.NewClient(context.Background(), cfg.APIKey, cfg.ModelName)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create gemini translator")
			return nil
		}
		return client
	default:
		log.Warn().Str("backend", cfg.Backend).Msg("Unknown translate backend, translation disabled")
		return nil
	}
}

func (a *App) Run() {
	if err := os.MkdirAll(a.cfg.App.DataDir, 0755); err != nil {
		log.Fatal().Err(err).Str("data_dir", a.cfg.App.DataDir).Msg("Failed to create data directory")
	}
	log.Info().Str("data_dir", a.cfg.App.DataDir).Msg("Data directory ready")

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("Shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.server.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
		if a.cache != nil {
			a.cache.Close()
		}
	}()

	if err := a.server.Start(); err != nil {
		log.Fatal().Err(err).Msg("HTTP server failed")
	}
}
