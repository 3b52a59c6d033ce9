package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"github.com/SpraxDev/NAS-Web/internal/utils"
)

// DefaultPath 为配置文件的默认位置（相对进程工作目录）。
const DefaultPath = "config.json"

// SecretBytes 为自动生成的 secret 的原始熵长度（字节）。
const SecretBytes = 1024

// Config 保存进程级配置。只含值类型字段，副本之间互不影响。
type Config struct {
	OAuth      OAuthConfig      `json:"oauth" yaml:"oauth"`
	PostgreSQL PostgreSQLConfig `json:"postgreSQL" yaml:"postgreSQL"`
	Web        WebConfig        `json:"web" yaml:"web"`
	Cookies    CookiesConfig    `json:"cookies" yaml:"cookies"`
	// 用于签名等场景的随机密钥（base64），首次运行时生成并持久化
	Secret string `json:"secret" yaml:"secret"`
}

type OAuthConfig struct {
	GitHub OAuthClientConfig `json:"github" yaml:"github"`
}

type OAuthClientConfig struct {
	ClientID     string `json:"client_id" yaml:"client_id"`
	ClientSecret string `json:"client_secret" yaml:"client_secret"`
}

// PostgreSQLConfig 为可选的数据库连接参数；Enabled=false 时不建立连接。
type PostgreSQLConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	SSL      bool   `json:"ssl" yaml:"ssl"`
	User     string `json:"user" yaml:"user"`
	Password string `json:"password" yaml:"password"`
	Database string `json:"database" yaml:"database"`
}

func (p PostgreSQLConfig) DSN() string {
	sslMode := "disable"
	if p.SSL {
		sslMode = "require"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, sslMode)
}

func (p PostgreSQLConfig) DSNMasked() string {
	masked := p
	if masked.Password != "" {
		masked.Password = "******"
	}
	return masked.DSN()
}

type WebConfig struct {
	Listen      ListenConfig    `json:"listen" yaml:"listen"`
	ServeStatic bool            `json:"serveStatic" yaml:"serveStatic"`
	URLPrefix   URLPrefixConfig `json:"urlPrefix" yaml:"urlPrefix"`
}

// ListenConfig 决定监听 unix socket（UsePath=true）还是 host:port。
type ListenConfig struct {
	UsePath bool   `json:"usePath" yaml:"usePath"`
	Path    string `json:"path" yaml:"path"`
	Host    string `json:"host" yaml:"host"`
	Port    int    `json:"port" yaml:"port"`
}

// Network 返回 net.Listen 所需的 network 与 address。
func (l ListenConfig) Network() (network, address string) {
	if l.UsePath {
		return "unix", l.Path
	}
	return "tcp", net.JoinHostPort(l.Host, strconv.Itoa(l.Port))
}

// URLPrefixConfig 描述对外发布的地址；Host 取值 "auto" 表示沿用请求的 Host。
type URLPrefixConfig struct {
	HTTPS              bool   `json:"https" yaml:"https"`
	DynamicContentHost string `json:"dynamicContentHost" yaml:"dynamicContentHost"`
	StaticContentHost  string `json:"staticContentHost" yaml:"staticContentHost"`
}

// AutoHost 表示由请求推导主机名。
const AutoHost = "auto"

// DynamicPrefix 返回动态内容的地址前缀，例如 "https://example.com"。
func (u URLPrefixConfig) DynamicPrefix(requestHost string) string {
	return u.prefix(u.DynamicContentHost, requestHost)
}

// StaticPrefix 返回静态内容的地址前缀。
func (u URLPrefixConfig) StaticPrefix(requestHost string) string {
	return u.prefix(u.StaticContentHost, requestHost)
}

func (u URLPrefixConfig) prefix(host, requestHost string) string {
	scheme := "http"
	if u.HTTPS {
		scheme = "https"
	}
	if host == "" || strings.EqualFold(host, AutoHost) {
		host = requestHost
	}
	return scheme + "://" + host
}

type CookiesConfig struct {
	Secure bool `json:"secure" yaml:"secure"`
}

// Defaults 返回内置默认值。Secret 留空，由 Load 在文件未提供时生成。
func Defaults() Config {
	return Config{
		OAuth: OAuthConfig{GitHub: OAuthClientConfig{ClientID: "", ClientSecret: ""}},
		PostgreSQL: PostgreSQLConfig{
			Enabled: false, Host: "127.0.0.1", Port: 5432, SSL: true,
			User: "nas_web", Password: "s3cr3t!", Database: "nas_web",
		},
		Web: WebConfig{
			Listen:      ListenConfig{UsePath: false, Path: "/tmp/.node-unix-sockets/NasWeb.socket", Host: "localhost", Port: 8092},
			ServeStatic: true,
			URLPrefix:   URLPrefixConfig{HTTPS: false, DynamicContentHost: AutoHost, StaticContentHost: AutoHost},
		},
		Cookies: CookiesConfig{Secure: false},
	}
}

// Load 读取 path 处的配置文件并合并到默认值之上（文件中出现的字段优先），
// 随后把完整结果写回同一路径。文件不存在时使用默认值并创建文件。
// 格式由扩展名决定：.yaml/.yml 为 YAML，其余按 JSON 处理。
func Load(path string) (Config, error) {
	cfg := Defaults()
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// 首次运行：仅使用默认值
	case err != nil:
		return Config{}, fmt.Errorf("read config: %w", err)
	default:
		if err := decode(path, b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if strings.TrimSpace(cfg.Secret) == "" {
		secret, err := utils.RandBase64(SecretBytes)
		if err != nil {
			return Config{}, fmt.Errorf("generate secret: %w", err)
		}
		cfg.Secret = secret
	}

	if err := save(path, cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// decode 在已填充默认值的 cfg 上解码，未出现的字段（含嵌套对象内的字段）保持默认值。
func decode(path string, b []byte, cfg *Config) error {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	if isYAML(path) {
		return yaml.Unmarshal(b, cfg)
	}
	return json.Unmarshal(b, cfg)
}

func encode(path string, cfg Config) ([]byte, error) {
	if isYAML(path) {
		return yaml.Marshal(cfg)
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// save 写回合并后的配置；文件含密钥，权限为 0600。
func save(path string, cfg Config) error {
	b, err := encode(path, cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Masked 返回隐藏了密码与密钥的副本，用于日志输出。
func (c Config) Masked() Config {
	const mask = "******"
	if c.OAuth.GitHub.ClientSecret != "" {
		c.OAuth.GitHub.ClientSecret = mask
	}
	if c.PostgreSQL.Password != "" {
		c.PostgreSQL.Password = mask
	}
	if c.Secret != "" {
		c.Secret = mask
	}
	return c
}

// FirstExisting 按顺序返回第一个存在的文件路径；若都不存在则返回空字符串。
func FirstExisting(paths ...string) string {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
