package api

import (
	"encoding/json"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"exchangeLedger/internal/model"
)

type poolRef struct {
	addr    common.Address
	summary model.PoolSummary
}

// poolVar resolves the {pool} route variable, writing 400 or 404 on failure.
func (s *Server) poolVar(w http.ResponseWriter, r *http.Request) (poolRef, bool) {
	addr, ok := addressVar(w, r, "pool")
	if !ok {
		return poolRef{}, false
	}
	summary, ok := s.host.Pool(addr)
	if !ok {
		http.Error(w, "pool not found", http.StatusNotFound)
		return poolRef{}, false
	}
	return poolRef{addr: addr, summary: summary}, true
}

func addressVar(w http.ResponseWriter, r *http.Request, name string) (common.Address, bool) {
	raw := mux.Vars(r)[name]
	if !common.IsHexAddress(raw) {
		http.Error(w, "invalid "+name+" address", http.StatusBadRequest)
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("write response", zap.Error(err))
	}
}
