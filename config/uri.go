package config

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/paust-team/zkwatch/constants"
	"github.com/paust-team/zkwatch/qerror"
)

type uriOption struct {
	key   string
	apply func(c EndpointConfig, key, value string) error
}

func boolOption(c EndpointConfig, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return qerror.InvalidConfigError{Key: key, ErrStr: err.Error()}
	}
	c.Set(key, b)
	return nil
}

func millisOption(c EndpointConfig, key, value string) error {
	ms, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return qerror.InvalidConfigError{Key: key, ErrStr: err.Error()}
	}
	c.Set(key, uint(ms))
	return nil
}

func stringOption(c EndpointConfig, key, value string) error {
	c.Set(key, value)
	return nil
}

var uriOptions = map[string]uriOption{
	"listchildren":             {"list-children", boolOption},
	"repeat":                   {"repeat", boolOption},
	"backoff":                  {"backoff", millisOption},
	"sendemptymessageondelete": {"send-empty-message-on-delete", boolOption},
	"create":                   {"create", boolOption},
	"createmode":               {"create-mode", stringOption},
	"timeout":                  {"zookeeper.timeout", millisOption},
	"connecttimeout":           {"zookeeper.connect-timeout", millisOption},
}

// ParseURI builds a configuration from zookeeper://host1:2181,host2:2181/node/path?repeat=true.
// Option names are case-insensitive and may use camelCase or dashes.
func ParseURI(uri string) (EndpointConfig, error) {
	c := NewEndpointConfig()
	if err := c.ApplyURI(uri); err != nil {
		return c, err
	}
	return c, nil
}

func (c EndpointConfig) ApplyURI(uri string) error {
	prefix := constants.URIScheme + "://"
	if !strings.HasPrefix(uri, prefix) {
		return qerror.InvalidConfigError{Key: "uri", ErrStr: "uri must start with " + prefix}
	}
	rest := strings.TrimPrefix(uri, prefix)

	query := ""
	if idx := strings.Index(rest, "?"); idx >= 0 {
		rest, query = rest[:idx], rest[idx+1:]
	}
	servers, path := rest, ""
	if idx := strings.Index(rest, "/"); idx >= 0 {
		servers, path = rest[:idx], rest[idx:]
	}

	if servers != "" {
		var list []string
		for _, server := range strings.Split(servers, ",") {
			if server = strings.TrimSpace(server); server != "" {
				list = append(list, server)
			}
		}
		c.SetZKServers(list)
	}
	if path != "" {
		unescaped, err := url.PathUnescape(path)
		if err != nil {
			return qerror.InvalidConfigError{Key: "path", ErrStr: err.Error()}
		}
		c.SetPath(unescaped)
	}

	values, err := url.ParseQuery(query)
	if err != nil {
		return qerror.InvalidConfigError{Key: "uri", ErrStr: err.Error()}
	}
	for name, vs := range values {
		option, ok := uriOptions[strings.ToLower(strings.ReplaceAll(name, "-", ""))]
		if !ok {
			return qerror.InvalidConfigError{Key: name, ErrStr: "unknown uri option"}
		}
		if err := option.apply(c, option.key, vs[len(vs)-1]); err != nil {
			return err
		}
	}
	return nil
}
