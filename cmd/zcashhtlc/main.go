// Command zcashhtlc is the single-shot CLI for building, broadcasting, and
// settling Zcash transparent-chain HTLCs: create, redeem, refund, broadcast
// a raw transaction, generate a keypair, or derive a hash lock from a
// secret.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/klingon-htlc/zcash-htlc/internal/htlc"
	"github.com/klingon-htlc/zcash-htlc/internal/htlcsign"
	"github.com/klingon-htlc/zcash-htlc/internal/htlcstore"
	"github.com/klingon-htlc/zcash-htlc/internal/zecconfig"
	"github.com/klingon-htlc/zcash-htlc/internal/zecrpc"
	"github.com/klingon-htlc/zcash-htlc/pkg/logging"
)

var version = "0.1.0-dev"

func main() {
	log := logging.New(&logging.Config{Level: "info", TimeFormat: time.TimeOnly})
	logging.SetDefault(log)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "create":
		err = cmdCreate(os.Args)
	case "redeem":
		err = cmdRedeem(os.Args)
	case "refund":
		err = cmdRefund(os.Args)
	case "broadcast":
		err = cmdBroadcast(os.Args)
	case "keygen":
		err = cmdKeygen(os.Args)
	case "hashlock":
		err = cmdHashlock(os.Args)
	case "version":
		fmt.Printf("zcashhtlc %s\n", version)
		return
	default:
		fmt.Printf("unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Zcash HTLC CLI")
	fmt.Println()
	fmt.Println("Usage: zcashhtlc <command> [args...] [config_file]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  create [cfg]                                   - generate HTLC parameters (keys, hash lock)")
	fmt.Println("  redeem <htlc_id> <secret> <addr> <privkey> [cfg] - redeem a locked HTLC")
	fmt.Println("  refund <htlc_id> <addr> <privkey> [cfg]        - refund an expired HTLC")
	fmt.Println("  broadcast <hex> [cfg]                          - broadcast a raw transaction")
	fmt.Println("  keygen [cfg]                                   - generate a keypair")
	fmt.Println("  hashlock <secret> [cfg]                        - derive a hash lock from a secret")
	fmt.Println()
	fmt.Println("Config file: ./zcash-config.{yaml,json}, $ZCASH_CONFIG, or a trailing path argument.")
}

// loadConfig resolves the config file from an optional trailing argument,
// matching the CLI's "args..., then config path" convention.
func loadConfig(explicitPath string) (*zecconfig.Config, error) {
	cfg, err := zecconfig.Load(explicitPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newCoordinator opens the store and RPC client named in cfg and wires
// them into a Coordinator.
func newCoordinator(cfg *zecconfig.Config) (*htlc.Coordinator, *htlcstore.Store, error) {
	store, err := htlcstore.New(&htlcstore.Config{DatabaseURL: cfg.DatabaseURL})
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	rpc := zecrpc.NewClient(cfg.RPCURL, cfg.RPCUser, cfg.RPCPassword)
	coord := htlc.New(store, rpc, cfg.NetworkValue())
	return coord, store, nil
}

func cmdCreate(args []string) error {
	configPath := argAt(args, 2)
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	log := logging.GetDefault()
	log.Infof("generating HTLC parameters for network %s...", cfg.Network)

	recipientPrivKey, err := htlcsign.GeneratePrivateKey()
	if err != nil {
		return fmt.Errorf("generate recipient key: %w", err)
	}
	recipientKey, err := htlcsign.ParsePrivateKey(hex.EncodeToString(recipientPrivKey))
	if err != nil {
		return err
	}

	refundPrivKey, err := htlcsign.GeneratePrivateKey()
	if err != nil {
		return fmt.Errorf("generate refund key: %w", err)
	}
	refundKey, err := htlcsign.ParsePrivateKey(hex.EncodeToString(refundPrivKey))
	if err != nil {
		return err
	}

	secret, err := htlcsign.GeneratePrivateKey()
	if err != nil {
		return fmt.Errorf("generate secret: %w", err)
	}
	hashLock := sha256.Sum256(secret)

	log.Infof("recipient privkey: %s", hex.EncodeToString(recipientPrivKey))
	log.Infof("recipient pubkey:  %s", hex.EncodeToString(htlcsign.DerivePublicKey(recipientKey)))
	log.Infof("refund privkey:    %s", hex.EncodeToString(refundPrivKey))
	log.Infof("refund pubkey:     %s", hex.EncodeToString(htlcsign.DerivePublicKey(refundKey)))
	log.Infof("secret:            %s", hex.EncodeToString(secret))
	log.Infof("hash lock:         %s", hex.EncodeToString(hashLock[:]))
	log.Infof("default timelock:  100000, default amount: 0.01 ZEC")
	log.Infof("HTLC parameters generated; fund with the coordinator or relayer once UTXOs are available")

	return nil
}

func cmdRedeem(args []string) error {
	if len(args) < 6 {
		return fmt.Errorf("usage: zcashhtlc redeem <htlc_id> <secret> <addr> <privkey> [cfg]")
	}
	htlcID, secretHex, address, privKeyHex := args[2], args[3], args[4], args[5]
	cfg, err := loadConfig(argAt(args, 6))
	if err != nil {
		return err
	}

	coord, store, err := newCoordinator(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := coord.Redeem(context.Background(), htlcID, secretHex, address, privKeyHex)
	if err != nil {
		return fmt.Errorf("redeem: %w", err)
	}
	fmt.Printf("redeemed! txid: %s\n", result.TxID)
	return nil
}

func cmdRefund(args []string) error {
	if len(args) < 5 {
		return fmt.Errorf("usage: zcashhtlc refund <htlc_id> <addr> <privkey> [cfg]")
	}
	htlcID, address, privKeyHex := args[2], args[3], args[4]
	cfg, err := loadConfig(argAt(args, 5))
	if err != nil {
		return err
	}

	coord, store, err := newCoordinator(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := coord.Refund(context.Background(), htlcID, address, privKeyHex)
	if err != nil {
		return fmt.Errorf("refund: %w", err)
	}
	fmt.Printf("refunded! txid: %s\n", result.TxID)
	return nil
}

func cmdBroadcast(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: zcashhtlc broadcast <hex> [cfg]")
	}
	txHex := args[2]
	cfg, err := loadConfig(argAt(args, 3))
	if err != nil {
		return err
	}

	rpc := zecrpc.NewClient(cfg.RPCURL, cfg.RPCUser, cfg.RPCPassword)
	txid, err := rpc.SendRawTransaction(context.Background(), txHex)
	if err != nil {
		return fmt.Errorf("broadcast: %w", err)
	}
	fmt.Println("transaction broadcast!")
	fmt.Printf("txid: %s\n", txid)
	return nil
}

func cmdKeygen(args []string) error {
	if _, err := loadConfig(argAt(args, 2)); err != nil {
		return err
	}

	privKey, err := htlcsign.GeneratePrivateKey()
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}
	key, err := htlcsign.ParsePrivateKey(hex.EncodeToString(privKey))
	if err != nil {
		return err
	}

	fmt.Println("generated keys:")
	fmt.Printf("  private key: %s\n", hex.EncodeToString(privKey))
	fmt.Printf("  public key:  %s\n", hex.EncodeToString(htlcsign.DerivePublicKey(key)))
	return nil
}

func cmdHashlock(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: zcashhtlc hashlock <secret> [cfg]")
	}
	secretHex := args[2]
	if _, err := loadConfig(argAt(args, 3)); err != nil {
		return err
	}

	secret, err := hex.DecodeString(secretHex)
	if err != nil {
		return fmt.Errorf("invalid secret hex: %w", err)
	}
	hashLock := sha256.Sum256(secret)

	fmt.Println("hash lock:")
	fmt.Printf("  secret:    %s\n", secretHex)
	fmt.Printf("  hash lock: %s\n", hex.EncodeToString(hashLock[:]))
	return nil
}

// argAt returns args[i] if present, else "".
func argAt(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
