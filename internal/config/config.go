package config

import (
	"fmt"
	"github.com/ilyakaznacheev/cleanenv"
	"log"
	"sync"
)

type Listen struct {
	BindIp string `yaml:"bind_ip" env-default:"0.0.0.0"`
	Port   string `yaml:"port" env-default:"8080"`
}

type MySQLConfig struct {
	HostName string `yaml:"host" env-default:"localhost"`
	Port     string `yaml:"port" env-default:"3306"`
	UserName string `yaml:"user" env-default:""`
	Password string `yaml:"password" env-default:""`
	Database string `yaml:"database" env-default:"techlog"`
}

type MongoConfig struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	Host     string `yaml:"host" env-default:"localhost"`
	Port     string `yaml:"port" env-default:"27017"`
	User     string `yaml:"user" env-default:""`
	Password string `yaml:"password" env-default:""`
	Database string `yaml:"database" env-default:"techlog"`
}

type IdentityConfig struct {
	BaseURL       string `yaml:"base_url" env-default:""`
	ServiceKey    string `yaml:"service_key" env-default:""`
	SignupURL     string `yaml:"signup_url" env-default:""`
	WebhookSecret string `yaml:"webhook_secret" env-default:""`
}

type SMTPConfig struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	Host     string `yaml:"host" env-default:""`
	Port     string `yaml:"port" env-default:"587"`
	From     string `yaml:"from" env-default:""`
	Password string `yaml:"password" env-default:""`
}

type TelegramConfig struct {
	Enabled bool    `yaml:"enabled" env-default:"false"`
	ApiKey  string  `yaml:"api_key" env-default:""`
	ChatIds []int64 `yaml:"chat_ids"`
}

type InviteConfig struct {
	ExpiryDays int `yaml:"expiry_days" env-default:"7"`
}

type Config struct {
	MySQL    MySQLConfig    `yaml:"mysql"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Identity IdentityConfig `yaml:"identity"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Telegram TelegramConfig `yaml:"telegram"`
	Invite   InviteConfig   `yaml:"invite"`
	Listen   Listen         `yaml:"listen"`
	Env      string         `yaml:"env" env-default:"local"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("config: %s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}
