// ABOUTME: Concurrency-safe dotted-key store shared by listener, speaker and machines
// ABOUTME: Provides atomic increment, prefix snapshots and environment-backed setting checks

package botctx

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Keys recognised by the core pipeline.
const (
	KeySwitch          = "general.switch"
	KeyListenerCounter = "listener.counter"
	KeySpeakerCounter  = "speaker.counter"
	KeyBotName         = "bot.name"
	KeyBotID           = "bot.id"
	KeyFanStamp        = "fan.stamp"
	KeyAuditSwitch     = "audit.switch"
	KeySpaceID         = "space.id"
)

// Values of the shutdown switch.
const (
	SwitchOn  = "on"
	SwitchOff = "off"
)

// ErrConfiguration is matched by every *ConfigurationError.
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError reports a required setting that is absent or cannot be resolved.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Key, e.Reason)
}

// Is makes errors.Is(err, ErrConfiguration) succeed.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// Context is the shared coordination store of a bot instance.
type Context struct {
	mu     sync.RWMutex
	values map[string]any
}

// New creates a Context seeded with settings. Nested maps are flattened into
// dotted keys, so {"bot": {"name": "x"}} is stored under "bot.name".
func New(settings map[string]any) *Context {
	c := &Context{values: make(map[string]any)}
	c.Apply(settings)
	return c
}

// Apply merges settings into the store, flattening nested maps.
func (c *Context) Apply(settings map[string]any) {
	flat := make(map[string]any)
	flatten("", settings, flat)

	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range flat {
		c.values[k] = v
	}
}

func flatten(prefix string, in map[string]any, out map[string]any) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok && len(nested) > 0 {
			flatten(key, nested, out)
			continue
		}
		out[key] = v
	}
}

// Get returns the value stored under key, or def when the key is absent or nil.
func (c *Context) Get(key string, def any) any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.values[key]
	if !ok || v == nil {
		return def
	}
	return v
}

// GetString returns the value under key rendered as a string.
func (c *Context) GetString(key, def string) string {
	v := c.Get(key, nil)
	if v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// GetInt returns the value under key as an int, or def if it is not numeric.
func (c *Context) GetInt(key string, def int) int {
	n, ok := toInt(c.Get(key, nil))
	if !ok {
		return def
	}
	return n
}

// Set stores value under key.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// Delete removes key from the store.
func (c *Context) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
}

// Increment adds step to the integer under key and returns the new value.
// An absent or non-numeric value counts from zero.
func (c *Context) Increment(key string, step int) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, _ := toInt(c.values[key])
	current += step
	c.values[key] = current
	return current
}

// Prefix returns a snapshot of every key under prefix, with "prefix." removed.
func (c *Context) Prefix(prefix string) map[string]any {
	lead := strings.TrimSuffix(prefix, ".") + "."

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]any)
	for k, v := range c.values {
		if strings.HasPrefix(k, lead) {
			out[strings.TrimPrefix(k, lead)] = v
		}
	}
	return out
}

// Keys returns all keys in sorted order.
func (c *Context) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clear drops every key.
func (c *Context) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = make(map[string]any)
}

// IsOn reports whether the shutdown switch still allows workers to run.
func (c *Context) IsOn() bool {
	return c.GetString(KeySwitch, SwitchOn) == SwitchOn
}

// Check ensures that key holds a value.
//
// When the key is absent, def is stored if it is non-nil; otherwise a
// *ConfigurationError is returned. When filter is true and the value is a
// string of the form "$NAME" or "${NAME}", it is replaced by the environment
// variable NAME. When the variable is unset, def is stored in place of the
// reference; without a default this is an error.
func (c *Context) Check(key string, def any, filter bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, ok := c.values[key]
	fromDefault := false
	if !ok || value == nil {
		if def == nil {
			return &ConfigurationError{Key: key, Reason: "missing required setting"}
		}
		value = def
		fromDefault = true
		c.values[key] = value
	}

	if !filter {
		return nil
	}

	ref, ok := value.(string)
	if !ok || !strings.HasPrefix(ref, "$") {
		return nil
	}

	name := strings.TrimPrefix(ref, "$")
	name = strings.TrimSuffix(strings.TrimPrefix(name, "{"), "}")

	if actual, set := os.LookupEnv(name); set {
		c.values[key] = actual
		return nil
	}
	if fromDefault {
		return nil
	}
	if def != nil {
		c.values[key] = def
		return nil
	}
	return &ConfigurationError{Key: key, Reason: fmt.Sprintf("environment variable %q is not set", name)}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint64:
		return int(n), true
	case float32:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	default:
		return 0, false
	}
}
