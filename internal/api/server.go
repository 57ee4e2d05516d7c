// Package api serves read-only queries over a host's committed state.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"exchangeLedger/internal/amount"
	"exchangeLedger/internal/exchange"
	"exchangeLedger/internal/host"
	"exchangeLedger/internal/pricing"
)

type Server struct {
	host   *host.Host
	logger *zap.Logger
	router *mux.Router
	http   *http.Server
}

// NewServer builds the router. metrics, when set, is mounted at /metrics.
func NewServer(h *host.Host, addr string, metrics http.Handler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{host: h, logger: logger}

	r := mux.NewRouter()
	r.HandleFunc("/pools", s.handlePools).Methods(http.MethodGet)
	r.HandleFunc("/pools/{pool}", s.handlePool).Methods(http.MethodGet)
	r.HandleFunc("/pools/{pool}/holders", s.handleHolders).Methods(http.MethodGet)
	r.HandleFunc("/pools/{pool}/quote/{kind}/{amount}", s.handleQuote).Methods(http.MethodGet)
	r.HandleFunc("/pools/{pool}/shares/{owner}", s.handleShares).Methods(http.MethodGet)
	r.HandleFunc("/pools/{pool}/allowance/{owner}/{spender}", s.handleAllowance).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if metrics != nil {
		r.Handle("/metrics", metrics).Methods(http.MethodGet)
	}
	s.router = r

	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

// Start blocks until the server stops. A clean Stop returns nil.
func (s *Server) Start() error {
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handlePools(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.host.Pools())
}

func (s *Server) handlePool(w http.ResponseWriter, r *http.Request) {
	pool, ok := s.poolVar(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, pool.summary)
}

type holder struct {
	Owner  string `json:"owner"`
	Shares string `json:"shares"`
}

func (s *Server) handleHolders(w http.ResponseWriter, r *http.Request) {
	pool, ok := s.poolVar(w, r)
	if !ok {
		return
	}
	entries := s.host.Holders(pool.addr)
	out := make([]holder, 0, len(entries))
	for _, e := range entries {
		out = append(out, holder{Owner: e.Key.Owner.Hex(), Shares: e.Value.Dec()})
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"pool":    pool.addr.Hex(),
		"holders": out,
	})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	pool, ok := s.poolVar(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	v, err := amount.Parse(vars["amount"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	out, err := s.host.Quote(pool.addr, vars["kind"], v)
	if err != nil {
		http.Error(w, err.Error(), quoteStatus(err))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"pool":   pool.addr.Hex(),
		"kind":   vars["kind"],
		"amount": v.Dec(),
		"quote":  out.Dec(),
	})
}

func quoteStatus(err error) int {
	switch {
	case errors.Is(err, pricing.ErrInvalidReserves):
		return http.StatusConflict
	case errors.Is(err, exchange.ErrInvalidInput), errors.Is(err, amount.ErrOverflow):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleShares(w http.ResponseWriter, r *http.Request) {
	pool, ok := s.poolVar(w, r)
	if !ok {
		return
	}
	owner, ok := addressVar(w, r, "owner")
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"pool":    pool.addr.Hex(),
		"owner":   owner.Hex(),
		"balance": s.host.ShareBalance(pool.addr, owner).Dec(),
	})
}

func (s *Server) handleAllowance(w http.ResponseWriter, r *http.Request) {
	pool, ok := s.poolVar(w, r)
	if !ok {
		return
	}
	owner, ok := addressVar(w, r, "owner")
	if !ok {
		return
	}
	spender, ok := addressVar(w, r, "spender")
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"pool":      pool.addr.Hex(),
		"owner":     owner.Hex(),
		"spender":   spender.Hex(),
		"allowance": s.host.ShareAllowance(pool.addr, owner, spender).Dec(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"pools":  len(s.host.Registry().Pools()),
	})
}
