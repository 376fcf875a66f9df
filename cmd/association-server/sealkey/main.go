// Command sealkey prepares custodial signer keys for the association server.
//
// It prints a fresh master key with -new-master, or seals the hex private key
// read from -key-env under the master key read from -master-key-env and prints
// the matching keys.encrypted config entry.
package main

import (
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"gopkg.in/yaml.v3"

	"github.com/chainsafe/agent-associations/pkg/app"
	"github.com/chainsafe/agent-associations/pkg/config"
	"github.com/chainsafe/agent-associations/pkg/keys"
)

func main() {
	newMaster := flag.Bool("new-master", false, "Print a new base64 master key and exit")
	masterKeyEnv := flag.String("master-key-env", "ASSOCIATION_MASTER_KEY", "Env var holding the base64 master key")
	keyEnv := flag.String("key-env", "", "Env var holding the hex private key to seal")
	flag.Parse()

	app.Main("sealkey", app.RunnerFunc(func() error {
		if *newMaster {
			return printMasterKey(os.Stdout)
		}
		return sealKey(os.Stdout, os.Getenv(*masterKeyEnv), os.Getenv(*keyEnv))
	}))
}

func printMasterKey(w io.Writer) error {
	key, err := keys.GenerateMasterKey()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, base64.StdEncoding.EncodeToString(key))
	return err
}

func sealKey(w io.Writer, masterKeyB64, privateKeyHex string) error {
	if masterKeyB64 == "" {
		return errors.New("master key not set (generate one with -new-master)")
	}
	if privateKeyHex == "" {
		return errors.New("private key not set (pass the env var name with -key-env)")
	}

	masterKey, err := keys.MasterKeyFromBase64(masterKeyB64)
	if err != nil {
		return err
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return fmt.Errorf("invalid private key: %w", err)
	}

	sealed, err := keys.Seal(key, masterKey)
	if err != nil {
		return err
	}

	entry := map[string][]config.EncryptedKey{
		"encrypted": {{
			Address:    crypto.PubkeyToAddress(key.PublicKey).Hex(),
			Ciphertext: sealed,
		}},
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entry); err != nil {
		return fmt.Errorf("failed to encode config entry: %w", err)
	}
	return enc.Close()
}
