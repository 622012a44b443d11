// Command swapdecode-fetch retrieves one confirmed block over RPC, decodes
// it, and prints the resulting swaps as pretty JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/solswap-labs/meteora-decode/ingest"
	"github.com/solswap-labs/meteora-decode/swapdecode"
)

func loadConfig(log *logrus.Logger) (rpcURL string, slot uint64, err error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("could not load .env")
	}

	slotFlag := flag.Uint64("slot", 0, "slot to fetch and decode")
	rpcFlag := flag.String("rpc", "", "Solana RPC URL (overrides SWAPDECODE_RPC_URL)")
	flag.Parse()

	v := viper.New()
	v.SetEnvPrefix("SWAPDECODE")
	v.AutomaticEnv()
	v.SetDefault("rpc_url", "https://api.mainnet-beta.solana.com")

	rpcURL = v.GetString("rpc_url")
	if *rpcFlag != "" {
		rpcURL = *rpcFlag
	}

	slot = *slotFlag
	if slot == 0 {
		if s := v.GetString("slot"); s != "" {
			parsed, perr := strconv.ParseUint(s, 10, 64)
			if perr != nil {
				return "", 0, fmt.Errorf("invalid SWAPDECODE_SLOT: %w", perr)
			}
			slot = parsed
		}
	}
	if slot == 0 {
		return "", 0, fmt.Errorf("a non-zero slot must be given via -slot or SWAPDECODE_SLOT")
	}
	return rpcURL, slot, nil
}

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	rpcURL, slot, err := loadConfig(log)
	if err != nil {
		log.WithError(err).Fatal("configuration error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client := rpc.New(rpcURL)

	log.WithFields(logrus.Fields{"rpc": rpcURL, "slot": slot}).Info("fetching block")
	block, err := ingest.FetchBlock(ctx, client, slot)
	if err != nil {
		log.WithError(err).Fatal("fetch failed")
	}

	batch := swapdecode.DecodeBlock(block)
	log.WithField("swaps", len(batch.Swaps)).Info("decoded block")

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(batch); err != nil {
		log.WithError(err).Fatal("encode failed")
	}
}
