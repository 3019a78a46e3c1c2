package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/faitholopade/codegate/internal/codegen"
	"github.com/faitholopade/codegate/internal/llm"
)

// GenerateCodePath is the route the web client posts to.
const GenerateCodePath = "/functions/v1/generate-code"

const (
	msgRateLimited     = "Rate limit exceeded. Please try again later."
	msgPaymentRequired = "Payment required. Please add credits to continue."
	maxBodyBytes       = 1 << 20
)

// Action names accepted in generateRequest.Action.
const (
	ActionGenerate = "generate"
	ActionEvaluate = "evaluate"
	ActionQuestion = "question"
)

type generateRequest struct {
	Action              string `json:"action"`
	FeaturePrompt       string `json:"featurePrompt"`
	Code                string `json:"code"`
	Explanation         string `json:"explanation"`
	ExpectedExplanation string `json:"expectedExplanation"`
	UserExplanation     string `json:"userExplanation"`
}

type contentResponse struct {
	Content any `json:"content"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.Handle(GenerateCodePath, s.cors(s.authorize(http.HandlerFunc(s.handleGenerateCode))))
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// cors answers preflight requests and decorates every other response.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", s.cfg.AllowOrigin)
		h.Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
		h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authorize(next http.Handler) http.Handler {
	if s.cfg.Token == "" {
		return next
	}
	want := []byte(s.cfg.Token)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), want) != 1 {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleGenerateCode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var req generateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	log := s.log.With(zap.String("action", req.Action))
	log.Info("processing request")

	ctx := r.Context()
	var (
		content any
		err     error
	)
	switch req.Action {
	case ActionGenerate:
		content, err = s.cfg.Generator.Generate(ctx, req.FeaturePrompt)
	case ActionEvaluate:
		content, err = s.cfg.Evaluator.Evaluate(ctx, codegen.EvaluateInput{
			Code:                req.Code,
			ExpectedExplanation: req.ExpectedExplanation,
			UserExplanation:     req.UserExplanation,
		})
	case ActionQuestion:
		content, err = s.cfg.Evaluator.SuggestQuestion(ctx, req.Code, req.Explanation)
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid action"})
		return
	}

	if err != nil {
		status, msg := statusFor(err)
		log.Error("request failed", zap.Int("status", status), zap.Error(err))
		writeJSON(w, status, errorResponse{Error: msg})
		return
	}

	log.Info("request completed")
	writeJSON(w, http.StatusOK, contentResponse{Content: content})
}

// statusFor maps upstream quota failures to their HTTP equivalents. Other
// failures are 500 with the error text.
func statusFor(err error) (int, string) {
	if errors.Is(err, codegen.ErrEmptyPrompt) {
		return http.StatusBadRequest, err.Error()
	}
	var rateLimit *llm.ErrRateLimit
	if errors.As(err, &rateLimit) {
		return http.StatusTooManyRequests, msgRateLimited
	}
	var payment *llm.ErrPaymentRequired
	if errors.As(err, &payment) {
		return http.StatusPaymentRequired, msgPaymentRequired
	}
	return http.StatusInternalServerError, err.Error()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
