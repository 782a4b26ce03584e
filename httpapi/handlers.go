package httpapi

import (
	"errors"
	"net/http"
	"time"

	goBank "github.com/MrEthical07/goBank"
	bankmw "github.com/MrEthical07/goBank/middleware"
	"github.com/MrEthical07/goBank/money"
)

type registerRequest struct {
	Identity       string `json:"identity"`
	Password       string `json:"password"`
	InitialBalance string `json:"initial_balance"`
}

type loginRequest struct {
	Identity string `json:"identity"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	Balance   money.Money `json:"balance"`
}

// transactionRequest deliberately has no account field.
type transactionRequest struct {
	Amount string `json:"amount"`
}

type balanceResponse struct {
	Balance money.Money `json:"balance"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.engine.Register(r.Context(), req.Identity, req.Password, req.InitialBalance); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"identity": req.Identity})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.engine.Login(r.Context(), req.Identity, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt.UTC(),
		Balance:   res.Balance,
	})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	token, _ := bankmw.TokenFromContext(r.Context())

	bal, err := s.engine.Balance(r.Context(), token)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Balance: bal})
}

func (s *Server) handleTransaction(kind goBank.TransactionKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req transactionRequest
		if !s.decode(w, r, &req) {
			return
		}
		token, _ := bankmw.TokenFromContext(r.Context())

		bal, err := s.engine.Handle(r.Context(), kind, token, req.Amount)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, balanceResponse{Balance: bal})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "err", err)
	}
	writeError(w, status, code)
}

// statusFor maps engine errors to a status and a public error code. Login
// causes collapse into invalid_credentials.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, goBank.ErrInvalidFormat):
		return http.StatusBadRequest, "invalid_format"
	case errors.Is(err, goBank.ErrUsernameTaken):
		return http.StatusConflict, "username_taken"
	case errors.Is(err, goBank.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, goBank.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, goBank.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity, "insufficient_funds"
	case errors.Is(err, goBank.ErrOverflow):
		return http.StatusUnprocessableEntity, "overflow"
	case errors.Is(err, goBank.ErrLoginRateLimited),
		errors.Is(err, goBank.ErrRegistrationRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
