package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	serverConfig struct {
		Host                      string
		Port                      string
		BaseURL                   string // overrides Host:Port when deployed behind a proxy
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	supabaseConfig struct {
		URL            string
		AnonKey        string
		ServiceRoleKey string
	}

	googleConfig struct {
		ClientID     string
		ClientSecret string
	}

	Config struct {
		Debug    bool
		TestMode bool
		Env      string // DEV (local; default), TEST, QA, PROD
		Build    string
		AppName  string
		WorkDir  string

		SecretKey         string
		AdminPasswordHash string // bcrypt hash gating destructive admin endpoints

		Server   serverConfig
		Supabase supabaseConfig
		Google   googleConfig

		SendgridApiKey   string
		RollbarToken     string
		defaultFromEmail string

		CacheCapacity int
	}
)

var Conf *Config

func init() {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "Chulseok")
	conf.SetDefault("secretKey", "ja-ri&bae-chi+chul)seok#gwan-li=anj(eun-ja-ri$hak-saeng")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)
	conf.SetDefault("serverHost", "localhost")
	conf.SetDefault("serverPort", "8000")
	conf.SetDefault("cacheCapacity", 1000)

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	var testMode bool
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		testMode = true
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	Conf = &Config{
		Debug:             conf.GetBool("debug"),
		TestMode:          testMode,
		Env:               env,
		Build:             conf.GetString("build"),
		AppName:           conf.GetString("appName"),
		WorkDir:           Getwd(),
		SecretKey:         conf.GetString("secretKey"),
		AdminPasswordHash: conf.GetString("adminPasswordHash"),
		Server: serverConfig{
			Host:                      conf.GetString("serverHost"),
			Port:                      conf.GetString("serverPort"),
			BaseURL:                   conf.GetString("serverBaseUrl"),
			JWTExpirationDelta:        conf.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: conf.GetDuration("jwtRefreshExpirationDelta"),
		},
		Supabase: supabaseConfig{
			URL:            conf.GetString("supabaseUrl"),
			AnonKey:        conf.GetString("supabaseKey"),
			ServiceRoleKey: conf.GetString("supabaseServiceRoleKey"),
		},
		Google: googleConfig{
			ClientID:     conf.GetString("googleClientId"),
			ClientSecret: conf.GetString("googleClientSecret"),
		},
		SendgridApiKey:   conf.GetString("sendgridApiKey"),
		RollbarToken:     conf.GetString("rollbarToken"),
		defaultFromEmail: conf.GetString("defaultFromEmail"),
		CacheCapacity:    conf.GetInt("cacheCapacity"),
	}
}

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
}

// BaseURL returns the externally visible root URL used to build the OAuth
// callback; deployments behind a proxy set SERVER_BASE_URL explicitly.
func (c *Config) BaseURL() string {
	if c.Server.BaseURL != "" {
		return strings.TrimSuffix(c.Server.BaseURL, "/")
	}
	return "http://" + c.Server.Host + ":" + c.Server.Port
}
