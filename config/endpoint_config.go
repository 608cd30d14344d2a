package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/paust-team/zkwatch/constants"
	"github.com/paust-team/zkwatch/coordinating"
	"github.com/paust-team/zkwatch/qerror"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	defaultLogLevel                 = zap.InfoLevel
	defaultZKServers                = []string{constants.DefaultZKServer}
	defaultZKTimeout           uint = uint(constants.DefaultSessionTimeout / time.Millisecond)
	defaultConnectTimeout      uint = uint(constants.DefaultConnectTimeout / time.Millisecond)
	defaultBackoff             uint = uint(constants.DefaultBackoff / time.Millisecond)
	defaultSendEmptyOnDelete        = true
	defaultCreateMode               = constants.DefaultCreateMode
)

type EndpointConfig struct {
	*viper.Viper
}

func NewEndpointConfig() EndpointConfig {
	v := viper.New()

	v.SetDefault("zookeeper", map[string]interface{}{
		"servers":         defaultZKServers,
		"timeout":         defaultZKTimeout,
		"connect-timeout": defaultConnectTimeout,
		"auth": map[string]interface{}{
			"scheme":      "",
			"credentials": "",
		},
	})
	v.SetDefault("path", "")
	v.SetDefault("list-children", false)
	v.SetDefault("repeat", false)
	v.SetDefault("backoff", defaultBackoff)
	v.SetDefault("send-empty-message-on-delete", defaultSendEmptyOnDelete)
	v.SetDefault("create", false)
	v.SetDefault("create-mode", defaultCreateMode)
	v.SetDefault("log-level", int8(defaultLogLevel))
	v.SetDefault("metrics-addr", "")

	return EndpointConfig{v}
}

func (c EndpointConfig) Load(configPath string) (EndpointConfig, error) {
	c.SetConfigFile(replaceTildeToHomePath(configPath))
	if err := c.ReadInConfig(); err != nil {
		return c, qerror.InvalidConfigError{Key: "config-path", ErrStr: err.Error()}
	}
	return c, nil
}

func (c EndpointConfig) ZKServers() []string {
	return c.GetStringSlice("zookeeper.servers")
}

func (c EndpointConfig) SetZKServers(servers []string) {
	c.Set("zookeeper.servers", servers)
}

func (c EndpointConfig) ZKTimeout() time.Duration {
	return time.Duration(c.GetUint("zookeeper.timeout")) * time.Millisecond
}

func (c EndpointConfig) SetZKTimeout(timeout time.Duration) {
	c.Set("zookeeper.timeout", uint(timeout/time.Millisecond))
}

func (c EndpointConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.GetUint("zookeeper.connect-timeout")) * time.Millisecond
}

func (c EndpointConfig) SetConnectTimeout(timeout time.Duration) {
	c.Set("zookeeper.connect-timeout", uint(timeout/time.Millisecond))
}

func (c EndpointConfig) AuthScheme() string {
	return c.GetString("zookeeper.auth.scheme")
}

func (c EndpointConfig) AuthCredentials() string {
	return c.GetString("zookeeper.auth.credentials")
}

func (c EndpointConfig) SetAuth(scheme, credentials string) {
	c.Set("zookeeper.auth.scheme", scheme)
	c.Set("zookeeper.auth.credentials", credentials)
}

func (c EndpointConfig) Path() string {
	return c.GetString("path")
}

func (c EndpointConfig) SetPath(path string) {
	c.Set("path", path)
}

func (c EndpointConfig) ListChildren() bool {
	return c.GetBool("list-children")
}

func (c EndpointConfig) SetListChildren(listChildren bool) {
	c.Set("list-children", listChildren)
}

func (c EndpointConfig) Repeat() bool {
	return c.GetBool("repeat")
}

func (c EndpointConfig) SetRepeat(repeat bool) {
	c.Set("repeat", repeat)
}

func (c EndpointConfig) Backoff() time.Duration {
	return time.Duration(c.GetUint("backoff")) * time.Millisecond
}

func (c EndpointConfig) SetBackoff(backoff time.Duration) {
	c.Set("backoff", uint(backoff/time.Millisecond))
}

func (c EndpointConfig) SendEmptyMessageOnDelete() bool {
	return c.GetBool("send-empty-message-on-delete")
}

func (c EndpointConfig) SetSendEmptyMessageOnDelete(send bool) {
	c.Set("send-empty-message-on-delete", send)
}

func (c EndpointConfig) Create() bool {
	return c.GetBool("create")
}

func (c EndpointConfig) SetCreate(create bool) {
	c.Set("create", create)
}

func (c EndpointConfig) CreateMode() string {
	return c.GetString("create-mode")
}

func (c EndpointConfig) SetCreateMode(mode string) {
	c.Set("create-mode", mode)
}

func (c EndpointConfig) LogLevel() zapcore.Level {
	return zapcore.Level(c.GetInt("log-level"))
}

func (c EndpointConfig) SetLogLevel(logLevel zapcore.Level) {
	c.Set("log-level", int8(logLevel))
}

func (c EndpointConfig) MetricsAddr() string {
	return c.GetString("metrics-addr")
}

func (c EndpointConfig) SetMetricsAddr(addr string) {
	c.Set("metrics-addr", addr)
}

// Validate checks the values every endpoint needs before it can connect.
func (c EndpointConfig) Validate() error {
	if len(c.ZKServers()) == 0 {
		return qerror.ConfigValueNotSetError{Key: "zookeeper.servers"}
	}
	path := c.Path()
	if path == "" {
		return qerror.ConfigValueNotSetError{Key: "path"}
	}
	if err := coordinating.ValidatePath(path); err != nil {
		return qerror.InvalidConfigError{Key: "path", ErrStr: err.Error()}
	}
	if _, err := coordinating.ParseCreateMode(c.CreateMode()); err != nil {
		return qerror.InvalidConfigError{Key: "create-mode", ErrStr: err.Error()}
	}
	if c.ZKTimeout() <= 0 {
		return qerror.InvalidConfigError{Key: "zookeeper.timeout", ErrStr: "must be positive"}
	}
	return nil
}

// Node validates the configuration and freezes the node related part of it.
func (c EndpointConfig) Node() (NodeConfiguration, error) {
	if err := c.Validate(); err != nil {
		return NodeConfiguration{}, err
	}
	mode, _ := coordinating.ParseCreateMode(c.CreateMode())
	return NodeConfiguration{
		Path:                     c.Path(),
		ListChildren:             c.ListChildren(),
		Repeat:                   c.Repeat(),
		Backoff:                  c.Backoff(),
		SendEmptyMessageOnDelete: c.SendEmptyMessageOnDelete(),
		Create:                   c.Create(),
		CreateMode:               mode,
	}, nil
}

func replaceTildeToHomePath(dir string) string {
	if strings.HasPrefix(dir, "~/") {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, dir[2:])
	}
	return dir
}
