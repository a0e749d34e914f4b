package main

import (
	"taskchat/internal/client"
	"taskchat/internal/config"
	"taskchat/internal/logging"
)

// newAgentClient builds the HTTP client and logs stream connection
// changes, which the chat itself never surfaces.
func newAgentClient(cfg config.CoreConfig, logger logging.Logger) (commandClient, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	c := client.New(cfg, logger)
	opts := c.StreamOptions()
	base := c.BaseURL()
	opts.OnState = func(state client.StreamState) {
		switch state {
		case client.StreamConnected:
			logger.Info("stream connected", logging.F("server", base), logging.F("transport", opts.Transport))
		case client.StreamDisconnected:
			logger.Debug("stream lost", logging.F("server", base))
		}
	}
	c.SetStreamOptions(opts)
	return c, nil
}
