package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tallyhq/tally/internal/service"
)

type createGroupRequest struct {
	Name         string   `json:"name"`
	BaseCurrency string   `json:"base_currency"`
	Members      []string `json:"members"`
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	group, err := s.groups.CreateGroup(r.Context(), req.Name, req.BaseCurrency, req.Members)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, group)
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.groups.ListGroups(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, groups)
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	group, err := s.groups.GetGroup(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, group)
}

type addMembersRequest struct {
	Members []string `json:"members"`
}

func (s *Server) handleAddMembers(w http.ResponseWriter, r *http.Request) {
	var req addMembersRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	group, err := s.groups.AddMembers(r.Context(), chi.URLParam(r, "groupID"), req.Members)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, group)
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var in service.AddExpenseInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, err)
		return
	}
	in.GroupID = chi.URLParam(r, "groupID")
	expense, err := s.ledger.AddExpense(r.Context(), in)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, expense)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.ledger.ListExpenses(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	expense, err := s.ledger.GetExpense(r.Context(), chi.URLParam(r, "expenseID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, expense)
}

func (s *Server) handleReverseExpense(w http.ResponseWriter, r *http.Request) {
	expense, err := s.ledger.ReverseExpense(r.Context(), chi.URLParam(r, "expenseID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, expense)
}

func (s *Server) handleGetBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := s.ledger.GetBalances(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, balances)
}

func (s *Server) handleSuggestSettlements(w http.ResponseWriter, r *http.Request) {
	payments, err := s.ledger.SuggestSettlements(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, payments)
}

func (s *Server) handleCreateSettlement(w http.ResponseWriter, r *http.Request) {
	var in service.CreateSettlementInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, err)
		return
	}
	in.GroupID = chi.URLParam(r, "groupID")
	settlement, err := s.ledger.CreateSettlement(r.Context(), in)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, settlement)
}

func (s *Server) handleCompleteSettlement(w http.ResponseWriter, r *http.Request) {
	settlement, err := s.ledger.CompleteSettlement(r.Context(), chi.URLParam(r, "settlementID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, settlement)
}

func (s *Server) handleCancelSettlement(w http.ResponseWriter, r *http.Request) {
	settlement, err := s.ledger.CancelSettlement(r.Context(), chi.URLParam(r, "settlementID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, settlement)
}

func (s *Server) handleListSettlements(w http.ResponseWriter, r *http.Request) {
	settlements, err := s.ledger.ListSettlements(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, settlements)
}
