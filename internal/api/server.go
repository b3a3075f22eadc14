// Package api serves the account store and the ledger as a JSON HTTP API.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/pterm/pterm"
	"github.com/shopspring/decimal"

	"github.com/securebank/securebank/internal/accounts"
	"github.com/securebank/securebank/internal/ledger"
	"github.com/securebank/securebank/internal/logging"
	"github.com/securebank/securebank/internal/model"
)

// Server routes HTTP requests to the account and ledger services.
type Server struct {
	accounts *accounts.Service
	ledger   *ledger.Service
	logger   *pterm.Logger
	pageSize int
	router   *mux.Router
}

// NewServer builds the router. pageSize applies when a history request
// names a page without a size.
func NewServer(accts *accounts.Service, ldg *ledger.Service, logger *pterm.Logger, pageSize int) *Server {
	if pageSize <= 0 {
		pageSize = 20
	}
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Server{
		accounts: accts,
		ledger:   ldg,
		logger:   logger,
		pageSize: pageSize,
		router:   mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.logRequests)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	acct := r.PathPrefix("/api/accounts").Subrouter()
	acct.HandleFunc("", s.handleListAccounts).Methods(http.MethodGet)
	acct.HandleFunc("", s.handleCreateAccount).Methods(http.MethodPost)
	acct.HandleFunc("/{id}", s.handleGetAccount).Methods(http.MethodGet)
	acct.HandleFunc("/{id}/activate", s.handleSetActive(true)).Methods(http.MethodPut)
	acct.HandleFunc("/{id}/deactivate", s.handleSetActive(false)).Methods(http.MethodPut)

	txn := r.PathPrefix("/api/transactions").Subrouter()
	txn.HandleFunc("/account/{accountId}", s.handleHistory).Methods(http.MethodGet)
	txn.HandleFunc("/deposit", s.handleDeposit).Methods(http.MethodPost)
	txn.HandleFunc("/withdraw", s.handleWithdraw).Methods(http.MethodPost)
	txn.HandleFunc("/transfer", s.handleTransfer).Methods(http.MethodPost)
	txn.HandleFunc("/payment", s.handlePayment).Methods(http.MethodPost)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", s.logger.Args("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving on %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		return nil
	}
}

type createAccountRequest struct {
	AccountType string `json:"accountType"`
	UserID      string `json:"userId"`
}

type depositRequest struct {
	AccountID    string          `json:"accountId"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	MerchantName string          `json:"merchantName"`
}

type withdrawRequest struct {
	AccountID   string          `json:"accountId"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type transferRequest struct {
	SourceAccountID      string          `json:"sourceAccountId"`
	DestinationAccountID string          `json:"destinationAccountId"`
	Amount               decimal.Decimal `json:"amount"`
	Description          string          `json:"description"`
}

type paymentRequest struct {
	AccountID    string          `json:"accountId"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	MerchantName string          `json:"merchantName"`
	Category     string          `json:"category"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accts, err := s.accounts.List(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accts)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := s.accounts.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if !s.decode(w, r, &req) {
		return
	}
	acct, err := s.accounts.Create(r.Context(), accounts.CreateParams{
		UserID: req.UserID,
		Type:   model.AccountType(req.AccountType),
	})
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, acct)
}

func (s *Server) handleSetActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		set := s.accounts.Activate
		if !active {
			set = s.accounts.Deactivate
		}
		acct, err := set(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			s.writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, acct)
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	page, err := s.parsePage(r)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	txns, err := s.ledger.ListByAccount(r.Context(), mux.Vars(r)["accountId"], page)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txns)
}

// parsePage defaults missing parameters to page 0 and the configured size.
func (s *Server) parsePage(r *http.Request) (*ledger.Page, error) {
	page := &ledger.Page{Number: 0, Size: s.pageSize}
	q := r.URL.Query()
	for key, dst := range map[string]*int{"page": &page.Number, "size": &page.Size} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", key, raw, model.ErrInvalidPage)
		}
		*dst = n
	}
	return page, nil
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if !s.decode(w, r, &req) {
		return
	}
	txn, err := s.ledger.Deposit(r.Context(), ledger.DepositParams{
		AccountID:    req.AccountID,
		Amount:       req.Amount,
		Description:  req.Description,
		MerchantName: req.MerchantName,
	})
	s.writeTxn(w, txn, err)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if !s.decode(w, r, &req) {
		return
	}
	txn, err := s.ledger.Withdraw(r.Context(), ledger.WithdrawParams{
		AccountID:   req.AccountID,
		Amount:      req.Amount,
		Description: req.Description,
	})
	s.writeTxn(w, txn, err)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !s.decode(w, r, &req) {
		return
	}
	txn, err := s.ledger.Transfer(r.Context(), ledger.TransferParams{
		SourceAccountID:      req.SourceAccountID,
		DestinationAccountID: req.DestinationAccountID,
		Amount:               req.Amount,
		Description:          req.Description,
	})
	s.writeTxn(w, txn, err)
}

func (s *Server) handlePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if !s.decode(w, r, &req) {
		return
	}
	txn, err := s.ledger.Payment(r.Context(), ledger.PaymentParams{
		AccountID:    req.AccountID,
		Amount:       req.Amount,
		Description:  req.Description,
		MerchantName: req.MerchantName,
		Category:     req.Category,
	})
	s.writeTxn(w, txn, err)
}

func (s *Server) writeTxn(w http.ResponseWriter, txn model.Transaction, err error) {
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, txn)
}
