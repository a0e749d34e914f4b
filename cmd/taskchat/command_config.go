package main

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"taskchat/internal/config"
)

const (
	configFormatJSON = "json"
	configFormatTOML = "toml"

	configScopeCore = "core"
	configScopeUI   = "ui"
)

type ConfigCommand struct {
	env      *commandEnv
	defaults bool
	format   string
	scopes   []string
}

type configOutput struct {
	CoreConfigPath string                  `json:"core_config_path,omitempty" toml:"core_config_path,omitempty"`
	UIConfigPath   string                  `json:"ui_config_path,omitempty" toml:"ui_config_path,omitempty"`
	Server         *effectiveServerConfig  `json:"server,omitempty" toml:"server,omitempty"`
	Stream         *effectiveStreamConfig  `json:"stream,omitempty" toml:"stream,omitempty"`
	Storage        *effectiveStorageConfig `json:"storage,omitempty" toml:"storage,omitempty"`
	Logging        *effectiveLoggingConfig `json:"logging,omitempty" toml:"logging,omitempty"`
	Debug          *effectiveDebugConfig   `json:"debug,omitempty" toml:"debug,omitempty"`
	Chat           *effectiveChatConfig    `json:"chat,omitempty" toml:"chat,omitempty"`
	Input          *effectiveInputConfig   `json:"input,omitempty" toml:"input,omitempty"`
}

type effectiveServerConfig struct {
	Address string `json:"address" toml:"address"`
	BaseURL string `json:"base_url" toml:"base_url"`
}

type effectiveStreamConfig struct {
	Transport        string `json:"transport" toml:"transport"`
	InitialBackoffMS int    `json:"initial_backoff_ms" toml:"initial_backoff_ms"`
	MaxBackoffMS     int    `json:"max_backoff_ms" toml:"max_backoff_ms"`
}

type effectiveStorageConfig struct {
	Backend string `json:"backend" toml:"backend"`
	Path    string `json:"path,omitempty" toml:"path,omitempty"`
}

type effectiveLoggingConfig struct {
	Level string `json:"level" toml:"level"`
}

type effectiveDebugConfig struct {
	StreamDebug bool `json:"stream_debug" toml:"stream_debug"`
}

type effectiveChatConfig struct {
	TimestampMode string `json:"timestamp_mode" toml:"timestamp_mode"`
	Markdown      bool   `json:"markdown" toml:"markdown"`
}

type effectiveInputConfig struct {
	MultilineMinHeight int `json:"multiline_min_height" toml:"multiline_min_height"`
	MultilineMaxHeight int `json:"multiline_max_height" toml:"multiline_max_height"`
}

func NewConfigCommand(env *commandEnv) *ConfigCommand {
	return &ConfigCommand{env: env}
}

func (c *ConfigCommand) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print configuration (effective or defaults)",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	cmd.Flags().BoolVar(&c.defaults, "default", false, "print default config values")
	cmd.Flags().StringVar(&c.format, "format", configFormatTOML, "output format: toml|json")
	cmd.Flags().StringSliceVar(&c.scopes, "scope", nil, "scope to print: core|ui|all (repeatable)")
	return cmd
}

func (c *ConfigCommand) run(cmd *cobra.Command, args []string) error {
	format, err := resolveConfigFormat(c.format)
	if err != nil {
		return err
	}
	scopes, err := resolveConfigScopes(c.scopes)
	if err != nil {
		return err
	}
	payload, err := c.buildOutput(scopes)
	if err != nil {
		return err
	}
	return writeConfigOutput(c.env.stdout(), format, payload)
}

func (c *ConfigCommand) buildOutput(scopes map[string]struct{}) (configOutput, error) {
	out := configOutput{}

	if scopeSelected(scopes, configScopeCore) {
		corePath, err := config.CoreConfigPath()
		if err != nil {
			return configOutput{}, err
		}
		coreCfg := config.DefaultCoreConfig()
		if !c.defaults {
			coreCfg, err = c.env.coreConfig()
			if err != nil {
				return configOutput{}, err
			}
		}
		storagePath, err := coreCfg.StoragePath()
		if err != nil {
			return configOutput{}, err
		}
		initialMS, maxMS := coreCfg.StreamBackoff()
		out.CoreConfigPath = corePath
		out.Server = &effectiveServerConfig{
			Address: coreCfg.ServerAddress(),
			BaseURL: coreCfg.ServerBaseURL(),
		}
		out.Stream = &effectiveStreamConfig{
			Transport:        coreCfg.StreamTransport(),
			InitialBackoffMS: initialMS,
			MaxBackoffMS:     maxMS,
		}
		out.Storage = &effectiveStorageConfig{
			Backend: coreCfg.StorageBackend(),
			Path:    storagePath,
		}
		out.Logging = &effectiveLoggingConfig{Level: coreCfg.LogLevel()}
		out.Debug = &effectiveDebugConfig{StreamDebug: coreCfg.StreamDebugEnabled()}
	}

	if scopeSelected(scopes, configScopeUI) {
		uiPath, err := config.UIConfigPath()
		if err != nil {
			return configOutput{}, err
		}
		uiCfg := config.DefaultUIConfig()
		if !c.defaults {
			uiCfg, err = c.env.wiring.loadUIConfig()
			if err != nil {
				return configOutput{}, err
			}
		}
		minHeight, maxHeight := uiCfg.InputHeights()
		out.UIConfigPath = uiPath
		out.Chat = &effectiveChatConfig{
			TimestampMode: uiCfg.TimestampMode(),
			Markdown:      uiCfg.MarkdownEnabled(),
		}
		out.Input = &effectiveInputConfig{
			MultilineMinHeight: minHeight,
			MultilineMaxHeight: maxHeight,
		}
	}
	return out, nil
}

func writeConfigOutput(out io.Writer, format string, payload any) error {
	switch format {
	case configFormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(payload)
	case configFormatTOML:
		data, err := toml.Marshal(payload)
		if err != nil {
			return err
		}
		if len(data) == 0 || data[len(data)-1] != '\n' {
			data = append(data, '\n')
		}
		_, err = out.Write(data)
		return err
	default:
		return errors.New("unsupported format")
	}
}

func resolveConfigFormat(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", configFormatTOML:
		return configFormatTOML, nil
	case configFormatJSON:
		return configFormatJSON, nil
	default:
		return "", errors.New("invalid format: must be toml or json")
	}
}

func resolveConfigScopes(values []string) (map[string]struct{}, error) {
	all := map[string]struct{}{
		configScopeCore: {},
		configScopeUI:   {},
	}
	if len(values) == 0 {
		return all, nil
	}
	out := map[string]struct{}{}
	for _, raw := range values {
		for _, part := range strings.Split(raw, ",") {
			switch strings.ToLower(strings.TrimSpace(part)) {
			case "all":
				return all, nil
			case configScopeCore, "server":
				out[configScopeCore] = struct{}{}
			case configScopeUI:
				out[configScopeUI] = struct{}{}
			default:
				return nil, errors.New("invalid scope: must be core, ui, or all")
			}
		}
	}
	return out, nil
}

func scopeSelected(scopes map[string]struct{}, scope string) bool {
	_, ok := scopes[scope]
	return ok
}
