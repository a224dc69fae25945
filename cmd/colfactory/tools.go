package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/spf13/cobra"

	"github.com/bitfsorg/libfactory-go/builder"
	"github.com/bitfsorg/libfactory-go/factory"
	"github.com/bitfsorg/libfactory-go/ident"
	"github.com/bitfsorg/libfactory-go/keys"
	"github.com/bitfsorg/libfactory-go/registry"
)

func newPredictCmd() *cobra.Command {
	var salt, deployer, self string
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Print the address and collection id a salt will produce",
		Example: `  colfactory predict --salt salt-A --deployer 0x1111111111111111111111111111111111111111
  colfactory predict --salt s1 --deployer 0x... --self my-factory`,
		RunE: func(cmd *cobra.Command, args []string) error {
			who, err := ident.Parse(deployer)
			if err != nil {
				return err
			}
			f, err := factory.New(registry.NewMemStore(), factory.Options{Self: ident.FromLabel(self)})
			if err != nil {
				return err
			}
			addr := f.GetDeployedAddr(salt, who)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "address: %s\n", addr)
			fmt.Fprintf(out, "col_id:  %s\n", f.GetColID(addr))
			return nil
		},
	}
	cmd.Flags().StringVar(&salt, "salt", "", "salt string")
	cmd.Flags().StringVar(&deployer, "deployer", "", "deployer identity (hex)")
	cmd.Flags().StringVar(&self, "self", "libfactory", "factory identity label")
	_ = cmd.MarkFlagRequired("salt")
	_ = cmd.MarkFlagRequired("deployer")
	return cmd
}

func newKeygenCmd() *cobra.Command {
	var (
		out, mnemonic, keystore, password string
		hd                                bool
		account, index                    uint32
	)
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a caller key pair and print its identity",
		Example: `  colfactory keygen
  colfactory keygen --hd --keystore ~/.libfactory/caller.keystore --password secret
  colfactory keygen --keystore ~/.libfactory/caller.keystore --password secret --index 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			var priv *ec.PrivateKey
			if !hd && mnemonic == "" && keystore == "" {
				var err error
				if priv, err = ec.NewPrivateKey(); err != nil {
					return err
				}
			} else {
				seed, err := keygenSeed(w, hd, mnemonic, keystore, password)
				if err != nil {
					return err
				}
				ring, err := keys.NewKeyring(seed)
				if err != nil {
					return err
				}
				key, err := ring.CallerKey(account, index)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "path:     %s\n", key.Path)
				priv = key.Private
			}
			return writeCallerKey(w, priv, out)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the private key to this file instead of stdout")
	cmd.Flags().BoolVar(&hd, "hd", false, "generate a new mnemonic and derive the key from it")
	cmd.Flags().StringVar(&mnemonic, "mnemonic", "", "derive the key from an existing mnemonic")
	cmd.Flags().StringVar(&keystore, "keystore", "", "encrypted seed file (written with --hd/--mnemonic, read otherwise)")
	cmd.Flags().StringVar(&password, "password", "", "keystore password")
	cmd.Flags().Uint32Var(&account, "account", 0, "HD account")
	cmd.Flags().Uint32Var(&index, "index", 0, "HD key index")
	cmd.MarkFlagsMutuallyExclusive("hd", "mnemonic")
	return cmd
}

// keygenSeed resolves the HD seed from a new mnemonic, a given one, or a keystore.
func keygenSeed(w io.Writer, hd bool, mnemonic, keystore, password string) ([]byte, error) {
	if keystore != "" && password == "" {
		return nil, errors.New("colfactory: --keystore requires --password")
	}
	if !hd && mnemonic == "" {
		return keys.LoadKeystore(keystore, password)
	}
	if hd {
		m, err := keys.GenerateMnemonic(12)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(w, "mnemonic: %s\n", m)
		mnemonic = m
	}
	seed, err := keys.SeedFromMnemonic(mnemonic, "")
	if err != nil {
		return nil, err
	}
	if keystore != "" {
		if err := keys.SaveKeystore(keystore, seed, password); err != nil {
			return nil, err
		}
		fmt.Fprintf(w, "seed sealed to %s\n", keystore)
	}
	return seed, nil
}

func writeCallerKey(w io.Writer, priv *ec.PrivateKey, out string) error {
	privHex := hex.EncodeToString(priv.Serialize())
	fmt.Fprintf(w, "identity: %s\n", ident.FromPubKey(priv.PubKey()))
	fmt.Fprintf(w, "pubkey:   %s\n", hex.EncodeToString(priv.PubKey().Compressed()))
	if out == "" {
		fmt.Fprintf(w, "privkey:  %s\n", privHex)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(out), 0700); err != nil {
		return err
	}
	if err := os.WriteFile(out, []byte(privHex+"\n"), 0600); err != nil {
		return err
	}
	fmt.Fprintf(w, "privkey written to %s\n", out)
	return nil
}

func newTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the built-in collection builders and their handles",
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KIND\tHANDLE")
			for _, kind := range builder.Default().Kinds() {
				fmt.Fprintf(tw, "%s\t%s\n", kind, builder.HandleOf(kind))
			}
			return tw.Flush()
		},
	}
}
