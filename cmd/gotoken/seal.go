package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	goToken "github.com/MrEthical07/goToken"
	"github.com/MrEthical07/goToken/oauth"
)

func newSealCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seal",
		Short: "Issue a token",
	}
	cmd.AddCommand(newSealCodeCmd(c))
	cmd.AddCommand(newSealRefreshCmd(c))
	return cmd
}

func newSealCodeCmd(c *cli) *cobra.Command {
	var (
		code     oauth.VerificationCode
		verifier string
	)

	cmd := &cobra.Command{
		Use:   "code",
		Short: "Issue an OAuth authorization code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if verifier != "" {
				challenge, err := oauth.CodeChallenge(verifier, oauth.PKCEMethodS256)
				if err != nil {
					return err
				}
				code.CodeChallenge = challenge
				code.CodeChallengeMethod = oauth.PKCEMethodS256
			}
			if code.AuthTime.IsZero() {
				code.AuthTime = time.Now()
			}
			if err := code.Validate(); err != nil {
				return err
			}

			return withCodec(cmd.Context(), c, func(codec *goToken.Codec[oauth.VerificationCode, *oauth.VerificationCode]) error {
				token, err := codec.Serialize(cmd.Context(), &code)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
				return err
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&code.ClientID, "client-id", "", "client identifier")
	f.StringVar(&code.Subject, "subject", "", "authenticated subject")
	f.StringVar(&code.RedirectURI, "redirect-uri", "", "redirect URI bound to the code")
	f.StringSliceVar(&code.Scopes, "scope", nil, "granted scopes")
	f.StringVar(&verifier, "pkce-verifier", "", "bind the code to this PKCE verifier (S256)")
	return cmd
}

func newSealRefreshCmd(c *cli) *cobra.Command {
	var tok oauth.RefreshToken

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Issue a refresh token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := tok.Validate(); err != nil {
				return err
			}
			return withCodec(cmd.Context(), c, func(codec *goToken.Codec[oauth.RefreshToken, *oauth.RefreshToken]) error {
				token, err := codec.Serialize(cmd.Context(), &tok)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
				return err
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&tok.ClientID, "client-id", "", "client identifier")
	f.StringVar(&tok.Subject, "subject", "", "subject")
	f.StringSliceVar(&tok.Scopes, "scope", nil, "granted scopes")
	f.Uint32Var(&tok.Generation, "generation", 1, "rotation generation")
	return cmd
}
