// Command envelope is the operational front end for the streaming envelope
// encryption engine: key pair generation plus encrypt/decrypt over files or
// stdio. Key provisioning and upload transport belong to the deployment
// pipeline, not this tool.
package main

import (
	"io"
	"os"

	"github.com/agentuity/envelope/crypto"
	"github.com/agentuity/envelope/logger"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "envelope",
	Short:         "Streaming envelope encryption for deployment artifacts",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// newLogger resolves the log level from the --log-level flag first and the
// environment second
func newLogger(cmd *cobra.Command) logger.Logger {
	if s, _ := cmd.Flags().GetString("log-level"); s != "" {
		return logger.NewConsoleLogger(logger.ParseLevel(s))
	}
	return logger.NewConsoleLogger()
}

// openSource returns a reader for path, using stdin for "-"
func openSource(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open input %s", path)
	}
	return f, nil
}

// openSink returns a writer for path, using stdout for "-"
func openSink(path string) (io.WriteCloser, error) {
	if path == "-" {
		return os.Stdout, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create output %s", path)
	}
	return f, nil
}

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a P-256 recipient key pair as PEM files",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger(cmd)
		privPath, _ := cmd.Flags().GetString("private-key")
		pubPath, _ := cmd.Flags().GetString("public-key")

		key, err := crypto.GenerateKeyPair()
		if err != nil {
			return errors.Wrap(err, "key generation failed")
		}
		if err := crypto.WriteKeyPairToFiles(key, privPath, pubPath); err != nil {
			return errors.Wrap(err, "failed to write key pair")
		}
		log.Info("wrote %s and %s", privPath, pubPath)
		return nil
	},
}

var encryptCmd = &cobra.Command{
	Use:   "encrypt",
	Short: "Encrypt a stream for the holder of the recipient private key",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger(cmd)
		keyPath, _ := cmd.Flags().GetString("public-key")
		inPath, _ := cmd.Flags().GetString("in")
		outPath, _ := cmd.Flags().GetString("out")

		pub, err := crypto.ReadPublicKeyFromFile(keyPath)
		if err != nil {
			return errors.Wrap(err, "failed to load recipient public key")
		}
		src, err := openSource(inPath)
		if err != nil {
			return err
		}
		defer src.Close()
		dst, err := openSink(outPath)
		if err != nil {
			return err
		}

		n, err := crypto.EncryptStream(pub, src, dst)
		if err != nil {
			return errors.Wrap(err, "encryption failed")
		}
		if err := dst.Close(); err != nil {
			return errors.Wrap(err, "failed to finalize output")
		}
		log.Debug("encrypted %d plaintext bytes", n)
		return nil
	},
}

var decryptCmd = &cobra.Command{
	Use:   "decrypt",
	Short: "Decrypt a stream with the recipient private key",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger(cmd)
		keyPath, _ := cmd.Flags().GetString("private-key")
		inPath, _ := cmd.Flags().GetString("in")
		outPath, _ := cmd.Flags().GetString("out")

		priv, err := crypto.ReadPrivateKeyFromFile(keyPath)
		if err != nil {
			return errors.Wrap(err, "failed to load recipient private key")
		}
		src, err := openSource(inPath)
		if err != nil {
			return err
		}
		defer src.Close()
		dst, err := openSink(outPath)
		if err != nil {
			return err
		}

		n, err := crypto.DecryptStream(priv, src, dst)
		if err != nil {
			// Nothing already written can be trusted; the caller must
			// discard the whole output.
			return errors.Wrap(err, "decryption failed")
		}
		if err := dst.Close(); err != nil {
			return errors.Wrap(err, "failed to finalize output")
		}
		log.Debug("decrypted %d plaintext bytes", n)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "log level (trace, debug, info, warn, error)")

	keygenCmd.Flags().String("private-key", "private.pem", "path to write the private key PEM")
	keygenCmd.Flags().String("public-key", "public.pem", "path to write the public key PEM")

	encryptCmd.Flags().String("public-key", "", "path to the recipient public key PEM")
	encryptCmd.Flags().String("in", "-", "input file (- for stdin)")
	encryptCmd.Flags().String("out", "-", "output file (- for stdout)")
	encryptCmd.MarkFlagRequired("public-key")

	decryptCmd.Flags().String("private-key", "", "path to the recipient private key PEM")
	decryptCmd.Flags().String("in", "-", "input file (- for stdin)")
	decryptCmd.Flags().String("out", "-", "output file (- for stdout)")
	decryptCmd.MarkFlagRequired("private-key")

	rootCmd.AddCommand(keygenCmd, encryptCmd, decryptCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.NewConsoleLogger().Fatal("%v", err)
	}
}
