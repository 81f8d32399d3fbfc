// Package config implements the layered configuration resolver. Settings
// live in two precedence-ordered scopes: local ($(CWD)/.tether/config.yaml)
// and global (~/.tether/config.yaml). Local overrides global on read; an
// explicit-global read bypasses local entirely.
//
// Files are loaded fully on every operation and never cached across calls.
// Concurrent writers to the same scope file are not coordinated; last write
// wins.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration document inside each scope directory.
const FileName = "config.yaml"

// Resolver resolves dotted-path keys against the local and global scope
// files. Tests construct one over temp directories.
type Resolver struct {
	localPath  string
	globalPath string
	log        *zap.Logger
}

// New returns a Resolver over the given scope directories. Neither
// directory has to exist yet; Set creates them on first write.
func New(localDir, globalDir string, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		localPath:  filepath.Join(localDir, FileName),
		globalPath: filepath.Join(globalDir, FileName),
		log:        log,
	}
}

// Get returns the effective value for key. With globalOnly the local scope
// is bypassed; otherwise local is consulted first and global is the
// fallback. The second return is false when the key is absent in every
// consulted scope; absence is not an error.
func (r *Resolver) Get(key string, globalOnly bool) (string, bool, error) {
	if !globalOnly {
		v, err := r.load(r.localPath)
		if err != nil {
			return "", false, err
		}
		if v.IsSet(key) {
			r.log.Debug("config value from local scope", zap.String("key", key))
			return v.GetString(key), true, nil
		}
	}

	v, err := r.load(r.globalPath)
	if err != nil {
		return "", false, err
	}
	if v.IsSet(key) {
		r.log.Debug("config value from global scope", zap.String("key", key))
		return v.GetString(key), true, nil
	}

	r.log.Debug("config key not set", zap.String("key", key))
	return "", false, nil
}

// Set writes key=value into the chosen scope, creating the scope directory
// and file if needed. Only the chosen scope is touched.
func (r *Resolver) Set(key, value string, global bool) error {
	path := r.scopePath(global)

	doc, err := readDocument(path)
	if err != nil {
		return err
	}
	setPath(doc, strings.Split(key, "."), value)

	r.log.Debug("setting config value",
		zap.String("key", key), zap.Bool("global", global))
	return writeDocument(path, doc)
}

// Unset removes key from the chosen scope. Removing an absent key is a
// no-op, not an error.
func (r *Resolver) Unset(key string, global bool) error {
	path := r.scopePath(global)

	doc, err := readDocument(path)
	if err != nil {
		return err
	}
	if !unsetPath(doc, strings.Split(key, ".")) {
		return nil
	}

	r.log.Debug("unsetting config value",
		zap.String("key", key), zap.Bool("global", global))
	return writeDocument(path, doc)
}

// List returns every effective entry as dotted key → value. With
// globalOnly the result holds only global entries; otherwise the scopes
// are merged with local taking precedence.
func (r *Resolver) List(globalOnly bool) (map[string]string, error) {
	out := map[string]string{}

	g, err := r.load(r.globalPath)
	if err != nil {
		return nil, err
	}
	flatten("", g.AllSettings(), out)

	if !globalOnly {
		l, err := r.load(r.localPath)
		if err != nil {
			return nil, err
		}
		flatten("", l.AllSettings(), out)
	}

	return out, nil
}

// Keys returns the sorted dotted keys of a List result, for stable output.
func Keys(entries map[string]string) []string {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (r *Resolver) scopePath(global bool) string {
	if global {
		return r.globalPath
	}
	return r.localPath
}

// load reads one scope file into a viper instance. A missing file yields an
// empty instance.
func (r *Resolver) load(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return v, nil
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return v, nil
}

// readDocument loads a scope file as a raw YAML mapping for mutation.
// Viper cannot remove keys, so Set and Unset rewrite the document directly.
func readDocument(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	doc := map[string]any{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return doc, nil
}

func writeDocument(path string, doc map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// setPath writes value at the dotted path, creating intermediate mappings.
// A scalar in the middle of the path is replaced by a mapping.
func setPath(doc map[string]any, parts []string, value string) {
	if len(parts) == 1 {
		doc[parts[0]] = value
		return
	}
	child, ok := doc[parts[0]].(map[string]any)
	if !ok {
		child = map[string]any{}
		doc[parts[0]] = child
	}
	setPath(child, parts[1:], value)
}

// unsetPath removes the dotted path from doc, pruning mappings left empty.
// Returns false when the path was not present.
func unsetPath(doc map[string]any, parts []string) bool {
	if len(parts) == 1 {
		if _, ok := doc[parts[0]]; !ok {
			return false
		}
		delete(doc, parts[0])
		return true
	}
	child, ok := doc[parts[0]].(map[string]any)
	if !ok {
		return false
	}
	if !unsetPath(child, parts[1:]) {
		return false
	}
	if len(child) == 0 {
		delete(doc, parts[0])
	}
	return true
}

// flatten converts viper's nested settings into dotted key → string pairs,
// overwriting existing entries so later scopes take precedence.
func flatten(prefix string, settings map[string]any, out map[string]string) {
	for k, v := range settings {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		default:
			out[key] = fmt.Sprintf("%v", val)
		}
	}
}
