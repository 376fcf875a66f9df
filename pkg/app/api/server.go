// Package api implements app.Runner for the association server process.
package api

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apphttp "github.com/chainsafe/agent-associations/pkg/app/http"
	"github.com/chainsafe/agent-associations/pkg/association"
	"github.com/chainsafe/agent-associations/pkg/associationstore"
	"github.com/chainsafe/agent-associations/pkg/auth"
	"github.com/chainsafe/agent-associations/pkg/config"
	"github.com/chainsafe/agent-associations/pkg/ethereum"
	"github.com/chainsafe/agent-associations/pkg/finalizer"
	"github.com/chainsafe/agent-associations/pkg/handshake"
	handshakeservice "github.com/chainsafe/agent-associations/pkg/handshake/service"
	"github.com/chainsafe/agent-associations/pkg/keys"
	"github.com/chainsafe/agent-associations/pkg/pgutil"
	"github.com/chainsafe/agent-associations/pkg/signing"
)

const defaultRequestTimeout = 120

// Server holds cfg to init the association server.
type Server struct {
	cfg *config.Config
}

// NewServer initializes new association server.
func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

func (s *Server) Run() error {
	if s.cfg == nil {
		return fmt.Errorf("association server config is nil")
	}
	cfg := s.cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting association server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.Int("chains", len(cfg.Chains)),
	)

	db, err := pgutil.ConnectDB(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	logger.Info("Connected to database",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Database),
	)

	store := associationstore.NewStore(db)

	ring, err := s.loadKeyRing(logger)
	if err != nil {
		return err
	}

	wallet, closeWallet, err := s.openWallet(ctx, ring)
	if err != nil {
		return err
	}
	defer closeWallet()

	policy := signing.DefaultPolicy
	if len(cfg.Association.SigningMethods) > 0 {
		policy, err = signing.ParsePolicy(cfg.Association.SigningMethods)
		if err != nil {
			return fmt.Errorf("invalid signing methods: %w", err)
		}
	}

	registry := ethereum.NewRegistry()
	router := finalizer.NewRouter(logger)
	modes := make(map[uint64]finalizer.Mode, len(cfg.Chains))

	for _, chainCfg := range cfg.Chains {
		closeChain, err := s.openChain(ctx, chainCfg, registry, router, logger)
		if err != nil {
			return err
		}
		defer closeChain()

		mode, err := finalizer.ParseMode(chainCfg.SubmissionMode)
		if err != nil {
			return err
		}
		modes[chainCfg.ChainID] = mode
	}

	orchestrator := handshake.New(
		handshake.Config{
			Domain:          association.Domain{Name: cfg.Association.DomainName, Version: cfg.Association.DomainVersion},
			Modes:           modes,
			DefaultMode:     finalizer.ModeDirect,
			PreferredMethod: association.SignatureMethod(cfg.Association.PreferredMethod),
		},
		signing.NewNegotiator(wallet, policy, logger),
		ethereum.NewVerifier(registry, logger),
		finalizer.NewDeduplicating(router, store, logger),
		store,
		handshake.WithRecorder(store),
		handshake.WithLogger(logger),
	)

	svc := handshakeservice.NewLog(handshakeservice.NewService(orchestrator, store, logger), logger)
	validator := auth.NewJWTValidator(cfg.Auth.JWKSUrl, cfg.Auth.Issuer, cfg.Auth.Audience)

	return apphttp.ServeAndWait(ctx, s.setupRouter(svc, validator, logger), logger, &cfg.Server)
}

// loadKeyRing collects managed party keys from sealed entries and seed
// derivations.
func (s *Server) loadKeyRing(logger *zap.Logger) (*keys.Ring, error) {
	cfg := s.cfg.Keys
	ring := keys.NewRing()

	if len(cfg.Encrypted) > 0 {
		masterKey, err := s.getMasterKey()
		if err != nil {
			return nil, err
		}
		for _, entry := range cfg.Encrypted {
			if err := ring.AddSealed(common.HexToAddress(entry.Address), entry.Ciphertext, masterKey); err != nil {
				return nil, fmt.Errorf("failed to load key %s: %w", entry.Address, err)
			}
		}
	}

	if cfg.SeedEnv != "" && len(cfg.DeriveLabels) > 0 {
		seed := os.Getenv(cfg.SeedEnv)
		if seed == "" {
			return nil, fmt.Errorf("key seed not set: env=%s", cfg.SeedEnv)
		}
		for _, label := range cfg.DeriveLabels {
			addr, err := ring.AddDerived([]byte(seed), label)
			if err != nil {
				return nil, fmt.Errorf("failed to derive key %q: %w", label, err)
			}
			logger.Debug("Derived managed key", zap.String("label", label), zap.String("address", addr.Hex()))
		}
	}

	logger.Info("Loaded managed keys", zap.Int("count", len(ring.Addresses())))
	return ring, nil
}

func (s *Server) getMasterKey() ([]byte, error) {
	masterKeyStr := os.Getenv(s.cfg.Keys.MasterKeyEnv)
	if masterKeyStr == "" {
		return nil, fmt.Errorf(
			"master key not set: env=%s (hint: openssl rand -base64 32)",
			s.cfg.Keys.MasterKeyEnv,
		)
	}

	masterKey, err := keys.MasterKeyFromBase64(masterKeyStr)
	if err != nil {
		return nil, fmt.Errorf("invalid master key: %w", err)
	}
	return masterKey, nil
}

func (s *Server) openWallet(ctx context.Context, ring *keys.Ring) (signing.Wallet, func(), error) {
	if s.cfg.Wallet.Type != "rpc" {
		return signing.NewKeyWallet(ring), func() {}, nil
	}

	wallet, err := signing.DialRPCWallet(ctx, s.cfg.Wallet.RPCURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect wallet: %w", err)
	}
	return wallet, wallet.Close, nil
}

// openChain connects one chain, registers it for verification and registers
// its submitter with the router.
func (s *Server) openChain(
	ctx context.Context,
	chainCfg config.ChainConfig,
	registry *ethereum.Registry,
	router *finalizer.Router,
	logger *zap.Logger,
) (func(), error) {
	relayerKey, err := keyFromEnv(chainCfg.RelayerKeyEnv)
	if err != nil {
		return nil, fmt.Errorf("chain %d: %w", chainCfg.ChainID, err)
	}

	client, err := ethereum.NewClient(ctx, chainCfg, relayerKey, logger)
	if err != nil {
		return nil, err
	}
	registry.Register(client.ChainID(), client.Backend())

	head, err := client.GetLatestBlockNumber(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("chain %d: %w", chainCfg.ChainID, err)
	}
	logger.Info("Chain ready",
		zap.Uint64("chain_id", client.ChainID()),
		zap.Uint64("latest_block", head),
		zap.String("submission_mode", chainCfg.SubmissionMode),
		zap.Bool("direct_submissions", relayerKey != nil),
		zap.String("submitter_address", client.SubmitterAddress().Hex()),
	)

	if relayerKey != nil {
		store, err := client.AssociationStore()
		if err != nil {
			client.Close()
			return nil, err
		}
		router.Register(client.ChainID(), finalizer.ModeDirect, finalizer.NewDirectSubmitter(client, store))
	}

	if chainCfg.SubmissionMode != string(finalizer.ModeRelay) {
		return client.Close, nil
	}

	ownerKey, err := keyFromEnv(chainCfg.Relay.OwnerKeyEnv)
	if err != nil || ownerKey == nil {
		client.Close()
		return nil, fmt.Errorf("chain %d: relay owner key: %w", chainCfg.ChainID, orMissing(err, chainCfg.Relay.OwnerKeyEnv))
	}

	bundler, err := rpc.DialContext(ctx, chainCfg.Relay.BundlerURL)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("chain %d: failed to connect bundler: %w", chainCfg.ChainID, err)
	}

	relay := finalizer.NewRelaySubmitter(
		finalizer.RelayConfig{
			ChainID:          chainCfg.ChainID,
			EntryPoint:       common.HexToAddress(chainCfg.Relay.EntryPoint),
			Account:          common.HexToAddress(chainCfg.Relay.Account),
			AssociationStore: common.HexToAddress(chainCfg.AssociationStore),
			PaymasterAndData: common.FromHex(chainCfg.Relay.PaymasterAndData),
		},
		client.Backend(),
		bundler,
		finalizer.NewKeyOperationSigner(ownerKey),
		logger,
	)
	router.Register(chainCfg.ChainID, finalizer.ModeRelay, relay)

	logger.Info("Relay submissions enabled",
		zap.Uint64("chain_id", chainCfg.ChainID),
		zap.String("bundler_url", chainCfg.Relay.BundlerURL),
		zap.String("account", chainCfg.Relay.Account),
	)

	return func() {
		bundler.Close()
		client.Close()
	}, nil
}

func keyFromEnv(env string) (*ecdsa.PrivateKey, error) {
	if env == "" {
		return nil, nil
	}
	raw := strings.TrimPrefix(os.Getenv(env), "0x")
	if raw == "" {
		return nil, nil
	}
	key, err := crypto.HexToECDSA(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid private key in %s: %w", env, err)
	}
	return key, nil
}

func orMissing(err error, env string) error {
	if err != nil {
		return err
	}
	return fmt.Errorf("env %q not set", env)
}

func (s *Server) setupRouter(
	svc handshakeservice.Service,
	validator *auth.JWTValidator,
	logger *zap.Logger,
) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	if s.cfg.Monitoring.Enabled {
		r.Handle(s.cfg.Monitoring.MetricsPath, promhttp.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(time.Second * defaultRequestTimeout))
		r.Use(auth.Middleware(validator, logger))
		handshakeservice.RegisterRoutes(r, svc, logger)
	})

	return r
}
