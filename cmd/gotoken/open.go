package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	goToken "github.com/MrEthical07/goToken"
	"github.com/MrEthical07/goToken/oauth"
)

func newOpenCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open",
		Short: "Verify a token and print its payload",
	}
	cmd.AddCommand(newOpenCodeCmd(c))
	cmd.AddCommand(newOpenRefreshCmd(c))
	return cmd
}

func newOpenCodeCmd(c *cli) *cobra.Command {
	var verifier string

	cmd := &cobra.Command{
		Use:   "code TOKEN",
		Short: "Redeem an authorization code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCodec(cmd.Context(), c, func(codec *goToken.Codec[oauth.VerificationCode, *oauth.VerificationCode]) error {
				code, err := codec.Deserialize(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := code.VerifyPKCE(verifier); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), code)
			})
		},
	}
	cmd.Flags().StringVar(&verifier, "pkce-verifier", "", "PKCE verifier for codes issued with a challenge")
	return cmd
}

func newOpenRefreshCmd(c *cli) *cobra.Command {
	var rotate bool

	cmd := &cobra.Command{
		Use:   "refresh TOKEN",
		Short: "Verify a refresh token, optionally rotating it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCodec(cmd.Context(), c, func(codec *goToken.Codec[oauth.RefreshToken, *oauth.RefreshToken]) error {
				tok, err := codec.Deserialize(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !rotate {
					return printJSON(cmd.OutOrStdout(), tok)
				}
				next, err := codec.Serialize(cmd.Context(), tok.Rotate())
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), next)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&rotate, "rotate", false, "print a successor token instead of the payload")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
