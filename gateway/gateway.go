// Package gateway implements a mock confidential gateway serving the web3c JSON-RPC surface.
package gateway

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oasisprotocol/oasis-core/go/common/logging"

	"github.com/oasisprotocol/web3c-go/jsonrpc"
	"github.com/oasisprotocol/web3c-go/provider"
)

const (
	maxRequestSize         = 1 << 20
	defaultShutdownTimeout = 5 * time.Second
)

// errNoResponse makes the server reply with an empty body.
var errNoResponse = errors.New("gateway: no response")

type handlerFunc func(ctx context.Context, params []json.RawMessage) (interface{}, error)

type options struct {
	responses *Responses
	signer    *ecdsa.PrivateKey
	now       func() time.Time

	shutdownTimeout time.Duration
}

// Option is a gateway option.
type Option func(*options)

// WithResponses overrides the canned response table.
func WithResponses(rsp *Responses) Option {
	return func(o *options) {
		o.responses = rsp
	}
}

// WithAttestationKey sets the secp256k1 key used to sign handed out public keys.
//
// A fresh key is generated when none is given.
func WithAttestationKey(sk *ecdsa.PrivateKey) Option {
	return func(o *options) {
		o.signer = sk
	}
}

// WithClock overrides the clock used for attestation timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithShutdownTimeout bounds the graceful shutdown of ListenAndServe.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) {
		o.shutdownTimeout = d
	}
}

// Server is a mock confidential gateway.
type Server struct {
	logger *logging.Logger

	provider  *provider.Provider
	attestor  *attestor
	responses *Responses
	signer    common.Address

	registry *prometheus.Registry
	metrics  *metrics
	handlers map[jsonrpc.Method]handlerFunc

	shutdownTimeout time.Duration
}

// New creates a gateway serving the identity held by store.
func New(store provider.KeyStore, opts ...Option) (*Server, error) {
	o := options{
		now:             time.Now,
		shutdownTimeout: defaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	kp, err := store.OwnKeyPair()
	if err != nil {
		return nil, fmt.Errorf("gateway: failed to load identity: %w", err)
	}
	if o.responses == nil {
		o.responses = DefaultResponses()
	}
	if o.signer == nil {
		if o.signer, err = crypto.GenerateKey(); err != nil {
			return nil, fmt.Errorf("gateway: failed to generate attestation key: %w", err)
		}
	}

	registry := prometheus.NewRegistry()
	s := &Server{
		logger:   logging.GetLogger("web3c/gateway"),
		provider: provider.New(store),
		attestor: &attestor{
			publicKey: kp.PublicKey,
			signer:    o.signer,
			now:       o.now,
		},
		responses: o.responses,
		signer:    crypto.PubkeyToAddress(o.signer.PublicKey),
		registry:  registry,
		metrics:   newMetrics(registry),

		shutdownTimeout: o.shutdownTimeout,
	}
	s.handlers = map[jsonrpc.Method]handlerFunc{
		jsonrpc.MethodGetPublicKey:          s.getPublicKey,
		jsonrpc.MethodCallEnc:               s.callEnc,
		jsonrpc.MethodSendTransaction:       s.sendTransaction,
		jsonrpc.MethodGetTransactionReceipt: s.getTransactionReceipt,
		jsonrpc.MethodGetCode:               s.getCode,
		jsonrpc.MethodGetLogs:               s.getLogs,
		jsonrpc.MethodEstimateGas:           s.estimateGas,
	}

	s.logger.Info("gateway initialized",
		"public_key", kp.PublicKey,
		"attestation_address", s.signer.Hex(),
	)

	return s, nil
}

// AttestationAddress returns the address of the key signing handed out public keys.
func (s *Server) AttestationAddress() common.Address {
	return s.signer
}

// Gatherer returns the gateway's metrics.
func (s *Server) Gatherer() prometheus.Gatherer {
	return s.registry
}

// Handler returns the HTTP handler serving JSON-RPC on / and metrics on /metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", s)
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return mux
}

// ListenAndServe serves the gateway on addr until the context is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("gateway: failed to shut down: %w", err)
	}
	return nil
}

// ServeHTTP handles a single JSON-RPC request.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req jsonrpc.Request
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestSize)).Decode(&req); err != nil {
		s.metrics.observe("invalid", outcomeError)
		s.writeResponse(w, jsonrpc.NewError(nil, jsonrpc.CodeParseError, "malformed request: %v", err))
		return
	}

	method, ok := jsonrpc.ParseMethod(req.Method)
	if !ok {
		s.metrics.observe("unknown", outcomeError)
		s.writeResponse(w, jsonrpc.NewError(&req, jsonrpc.CodeMethodNotFound, "method '%s' not found", req.Method))
		return
	}

	rsp := s.dispatch(r.Context(), method, &req)
	switch {
	case rsp == nil:
		s.metrics.observe(method.String(), outcomeNoResponse)
		w.WriteHeader(http.StatusOK)
		return
	case rsp.Error != nil:
		s.metrics.observe(method.String(), outcomeError)
	default:
		s.metrics.observe(method.String(), outcomeOK)
	}
	s.writeResponse(w, rsp)
}

func (s *Server) dispatch(ctx context.Context, method jsonrpc.Method, req *jsonrpc.Request) *jsonrpc.Response {
	params, err := req.PositionalParams()
	if err != nil {
		return jsonrpc.NewError(req, jsonrpc.CodeInvalidParams, "%v", err)
	}

	result, err := s.handlers[method](ctx, params)
	var rpcErr *jsonrpc.Error
	switch {
	case err == nil:
	case errors.Is(err, errNoResponse):
		return nil
	case errors.As(err, &rpcErr):
		return jsonrpc.NewError(req, rpcErr.Code, "%s", rpcErr.Message)
	default:
		s.logger.Error("failed to handle request",
			"method", method,
			"err", err,
		)
		return jsonrpc.NewError(req, jsonrpc.CodeInternalError, "%v", err)
	}

	if result == nil {
		result = json.RawMessage("null")
	}
	return jsonrpc.NewResult(req, result)
}

func (s *Server) writeResponse(w http.ResponseWriter, rsp *jsonrpc.Response) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		s.logger.Error("failed to write response",
			"err", err,
		)
	}
}
