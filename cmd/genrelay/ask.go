package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gaspardpetit/genrelay/core/logx"
	"github.com/gaspardpetit/genrelay/internal/config"
	"github.com/gaspardpetit/genrelay/internal/relay"
)

// errAskFailed is returned after the failure has already been printed.
var errAskFailed = errors.New("ask failed")

type askOptions struct {
	maxTokens   int
	temperature float64
	upstreamURL string
	apiKey      string
}

func newAskCmd() *cobra.Command {
	var o askOptions
	cmd := &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Send one prompt without history and print the reply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(nil)
			if err != nil {
				return err
			}
			logx.Configure(cfg.LogLevel, cfg.LogFormat)
			if cmd.Flags().Changed("upstream-url") {
				cfg.UpstreamURL = o.upstreamURL
			}
			if cmd.Flags().Changed("api-key") {
				cfg.APIKey = o.apiKey
			}
			cfg.Mode = config.ModeStateless
			if err := cfg.Validate(); err != nil {
				return err
			}
			return ask(cmd.Context(), cmd.OutOrStdout(), relay.New(cfg), args[0], o)
		},
	}
	cmd.Flags().IntVar(&o.maxTokens, "max-tokens", 50, "maximum tokens to generate")
	cmd.Flags().Float64Var(&o.temperature, "temperature", 0.7, "sampling temperature")
	cmd.Flags().StringVar(&o.upstreamURL, "upstream-url", "", "chat completion endpoint URL (overrides MODEL_ENDPOINT)")
	cmd.Flags().StringVar(&o.apiKey, "api-key", "", "credential for the endpoint (overrides AZURE_API_KEY)")
	return cmd
}

// ask prints the reply, or the failure, in the format scripts already parse.
func ask(ctx context.Context, out io.Writer, g *relay.Relay, prompt string, o askOptions) error {
	res, err := g.Generate(ctx, relay.GenerationRequest{
		Prompt:      prompt,
		MaxTokens:   relay.Int(o.maxTokens),
		Temperature: relay.Float64(o.temperature),
	})
	if err != nil {
		_, _ = fmt.Fprintf(out, "Error occurred: %v\n", err)
		return errAskFailed
	}
	_, _ = fmt.Fprintf(out, "Generated Text: %s\n", res.GeneratedText)
	return nil
}
