package main

import (
	"crypto"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var keyTypes = []string{"hmac", "aes", "xchacha", "ed25519", "ecdsa-p256", "rsa", "x25519"}

func newKeygenCmd(c *cli) *cobra.Command {
	var (
		bits    int
		pubPath string
	)

	cmd := &cobra.Command{
		Use:       "keygen TYPE",
		Short:     "Generate a secret or key pair",
		Long:      "Generate a base64 secret (hmac, aes, xchacha) or a PEM private key (ed25519, ecdsa-p256, rsa, x25519).",
		Args:      cobra.ExactArgs(1),
		ValidArgs: keyTypes,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			switch args[0] {
			case "hmac", "aes", "xchacha":
				secret := make([]byte, 32)
				if _, err := rand.Read(secret); err != nil {
					return err
				}
				_, err := fmt.Fprintln(out, base64.StdEncoding.EncodeToString(secret))
				return err
			}

			priv, pub, err := generateKey(args[0], bits)
			if err != nil {
				return err
			}
			if err := writePrivatePEM(out, priv); err != nil {
				return err
			}
			if pubPath == "" {
				return nil
			}

			f, err := os.OpenFile(pubPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
			if err != nil {
				return err
			}
			defer f.Close()
			c.logger.Info().Str("path", pubPath).Str("type", args[0]).Msg("wrote public key")
			return writePublicPEM(f, pub)
		},
	}

	cmd.Flags().IntVar(&bits, "bits", 3072, "RSA modulus size")
	cmd.Flags().StringVar(&pubPath, "public-out", "", "also write the PEM public key to this file")
	return cmd
}

func generateKey(kind string, bits int) (crypto.PrivateKey, crypto.PublicKey, error) {
	switch kind {
	case "ed25519":
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		return priv, pub, err
	case "ecdsa-p256":
		k, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return nil, nil, err
		}
		return k, &k.PublicKey, nil
	case "rsa":
		k, err := rsa.GenerateKey(rand.Reader, bits)
		if err != nil {
			return nil, nil, err
		}
		return k, &k.PublicKey, nil
	case "x25519":
		k, err := ecdh.X25519().GenerateKey(rand.Reader)
		if err != nil {
			return nil, nil, err
		}
		return k, k.PublicKey(), nil
	default:
		return nil, nil, fmt.Errorf("unknown key type %q, want one of %v", kind, keyTypes)
	}
}

func writePrivatePEM(w io.Writer, key crypto.PrivateKey) error {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return err
	}
	return pem.Encode(w, &pem.Block{Type: "PRIVATE KEY", Bytes: der})
}

func writePublicPEM(w io.Writer, key crypto.PublicKey) error {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return err
	}
	return pem.Encode(w, &pem.Block{Type: "PUBLIC KEY", Bytes: der})
}
