package config

import (
	"fmt"

	"github.com/charmbracelet/huh"
)

// RunSetupWizard shows an interactive form for the endpoints this process
// talks to and writes the result to path. Existing values at path are used
// to prefill the form.
func RunSetupWizard(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}

	terminalEndpoint := cfg.Terminal.Endpoint
	defaultProject := cfg.Terminal.DefaultProject
	knowledgeURL := cfg.Knowledge.BaseURL
	relayEndpoint := cfg.Relay.Endpoint
	uploaderGlob := cfg.Uploader.Glob

	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Terminal endpoint").
				Description("Base WebSocket URL of the remote terminal (ws:// or wss://)").
				Value(&terminalEndpoint),

			huh.NewInput().
				Title("Default project").
				Description("Target path used when a connect call names none").
				Value(&defaultProject),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Knowledge store URL").
				Description("Base HTTP URL of the knowledge-store API").
				Value(&knowledgeURL),

			huh.NewInput().
				Title("Logging relay endpoint").
				Description("WebSocket URL of the logging relay (leave empty to disable)").
				Value(&relayEndpoint),

			huh.NewInput().
				Title("Transcript glob").
				Description("Glob selecting the transcript file the uploader follows").
				Value(&uploaderGlob),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save this configuration?").
				Value(&confirmed),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("form: %w", err)
	}
	if !confirmed {
		return fmt.Errorf("setup cancelled")
	}

	cfg.Terminal.Endpoint = terminalEndpoint
	cfg.Terminal.DefaultProject = defaultProject
	cfg.Knowledge.BaseURL = knowledgeURL
	cfg.Relay.Endpoint = relayEndpoint
	cfg.Uploader.Glob = uploaderGlob

	if err := cfg.Validate(); err != nil {
		return err
	}
	return Save(cfg, path)
}
