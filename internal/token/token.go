// Package token loads API credentials from the YAML token file.
//
// Three layouts are accepted:
//
//	remo: <device token>
//	weatherapi: <weather key>
//
//	token: <device token>
//
//	token:
//	  - <device token>
//	  - ...
package token

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

var (
	ErrNoHome   = errors.New("HOME is not set")
	ErrNoToken  = errors.New("no token found")
	ErrBadToken = errors.New("malformed token")
)

type Credentials struct {
	Remo       string
	WeatherAPI string
}

func (c Credentials) HasWeather() bool {
	return c.WeatherAPI != ""
}

// schema tries to extract credentials from a decoded token document.
// ok is false when the document does not use this layout.
type schema struct {
	name  string
	parse func(doc map[string]any) (creds Credentials, ok bool, err error)
}

var schemas = []schema{
	{name: "remo/weatherapi", parse: parseDual},
	{name: "token", parse: parseTokenString},
	{name: "token list", parse: parseTokenList},
}

// ExpandHome resolves a leading "~" against $HOME.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home := os.Getenv("HOME")
	if home == "" {
		return "", ErrNoHome
	}
	return home + strings.TrimPrefix(path, "~"), nil
}

// DefaultPath is used when no token path was configured.
func DefaultPath() (string, error) {
	home := os.Getenv("HOME")
	if home == "" {
		return "", ErrNoHome
	}
	return filepath.Join(home, ".remo", "token.yaml"), nil
}

func Load(path string) (Credentials, error) {
	var err error
	if path == "" {
		path, err = DefaultPath()
	} else {
		path, err = ExpandHome(path)
	}
	if err != nil {
		return Credentials{}, err
	}

	log.Debug("Reading token file", "path", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("read token file: %w", err)
	}

	return Parse(data)
}

// Parse decodes a token document and applies each known layout in turn.
func Parse(data []byte) (Credentials, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Credentials{}, fmt.Errorf("parse token file: %w", err)
	}

	for _, s := range schemas {
		creds, ok, err := s.parse(doc)
		if err != nil {
			return Credentials{}, err
		}
		if ok {
			log.Debug("Token file parsed", "layout", s.name, "weather", creds.HasWeather())
			return creds, nil
		}
	}

	return Credentials{}, ErrNoToken
}

// parseDual needs both keys once "remo" is present.
func parseDual(doc map[string]any) (Credentials, bool, error) {
	raw, found := doc["remo"]
	if !found {
		return Credentials{}, false, nil
	}

	remo, err := nonEmptyString("remo", raw)
	if err != nil {
		return Credentials{}, false, err
	}

	raw, found = doc["weatherapi"]
	if !found {
		return Credentials{}, false, fmt.Errorf("%w: remo given without weatherapi", ErrBadToken)
	}
	key, err := nonEmptyString("weatherapi", raw)
	if err != nil {
		return Credentials{}, false, err
	}

	return Credentials{Remo: remo, WeatherAPI: key}, true, nil
}

func parseTokenString(doc map[string]any) (Credentials, bool, error) {
	raw, ok := doc["token"].(string)
	if !ok {
		return Credentials{}, false, nil
	}

	tok, err := nonEmptyString("token", raw)
	if err != nil {
		return Credentials{}, false, err
	}
	return Credentials{Remo: tok}, true, nil
}

// parseTokenList uses only the first entry of the list.
func parseTokenList(doc map[string]any) (Credentials, bool, error) {
	raw, found := doc["token"]
	if !found {
		return Credentials{}, false, nil
	}

	list, ok := raw.([]any)
	if !ok {
		return Credentials{}, false, fmt.Errorf("%w: token must be a string or a list of strings, got %T", ErrBadToken, raw)
	}
	if len(list) == 0 {
		return Credentials{}, false, fmt.Errorf("%w: token list is empty", ErrBadToken)
	}

	tok, err := nonEmptyString("token[0]", list[0])
	if err != nil {
		return Credentials{}, false, err
	}
	return Credentials{Remo: tok}, true, nil
}

func nonEmptyString(field string, raw any) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrBadToken, field, raw)
	}
	if s == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrBadToken, field)
	}
	return s, nil
}
