package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	goToken "github.com/MrEthical07/goToken"
	"github.com/MrEthical07/goToken/oauth"
)

type reportView struct {
	Kind                string   `yaml:"kind"`
	Signing             string   `yaml:"signing"`
	SigningAlgorithm    string   `yaml:"signing_algorithm,omitempty"`
	CanSign             bool     `yaml:"can_sign"`
	Encryption          string   `yaml:"encryption"`
	EncryptionAlgorithm string   `yaml:"encryption_algorithm,omitempty"`
	Compression         string   `yaml:"compression,omitempty"`
	MaxDecompressedSize int      `yaml:"max_decompressed_size,omitempty"`
	MaxAge              string   `yaml:"max_age"`
	ReplayGuard         bool     `yaml:"replay_guard"`
	NonceRetention      string   `yaml:"nonce_retention,omitempty"`
	Lint                []string `yaml:"lint,omitempty"`
}

func newReportView(r goToken.SecurityReport, lint goToken.LintResult) reportView {
	v := reportView{
		Kind:                r.PayloadKind,
		Signing:             r.SigningVariant,
		SigningAlgorithm:    r.SigningAlgorithm,
		CanSign:             r.CanSign,
		Encryption:          r.EncryptionVariant,
		EncryptionAlgorithm: r.EncryptionAlgorithm,
		Compression:         r.Compression,
		MaxDecompressedSize: r.MaxDecompressedSize,
		MaxAge:              r.MaxAge.String(),
		ReplayGuard:         r.ReplayGuard,
	}
	if r.NonceRetention > 0 {
		v.NonceRetention = r.NonceRetention.String()
	}
	for _, w := range lint {
		v.Lint = append(v.Lint, "["+w.Severity.String()+"] "+w.Code+": "+w.Message)
	}
	return v
}

func newInspectCmd(c *cli) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the security report and lint warnings for the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, cleanup, err := c.codecConfig(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			codec, err := goToken.NewCodec[oauth.VerificationCode](cfg)
			if err != nil {
				return err
			}
			defer codec.Close()

			lint := cfg.Lint()
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(newReportView(codec.SecurityReport(), lint)); err != nil {
				return err
			}
			if err := enc.Close(); err != nil {
				return err
			}

			if strict {
				return lint.AsError(goToken.LintWarn)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when any WARN or HIGH lint warning is present")
	return cmd
}
