package user

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-registration/internal/identity"
	"github.com/ovaphlow/pitchfork/service-registration/pkg/metrics"
)

const maxBodyBytes = 1 << 20

// Handler exposes the /user resource: POST registers, GET reads.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{svc: svc, logger: logger}
}

type errorResponse struct {
	Message string `json:"message"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	args, err := readArgs(r)
	if err != nil {
		h.logger.Debugw("invalid signup payload", "err", err)
		h.fail(w, "create", http.StatusBadRequest, "invalid_request", "invalid payload")
		return
	}
	p, err := h.svc.Create(r.Context(), CreateInput{
		Token:     args["token"],
		FirstName: args["first_name"],
		LastName:  args["last_name"],
		Group:     args["group"],
	})
	if err != nil {
		h.writeError(w, "create", err)
		return
	}
	metrics.RegistrationRequests.WithLabelValues("create", "created").Inc()
	h.writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	args, err := readArgs(r)
	if err != nil {
		h.logger.Debugw("invalid lookup payload", "err", err)
		h.fail(w, "read", http.StatusBadRequest, "invalid_request", "invalid payload")
		return
	}
	p, err := h.svc.Get(r.Context(), args["token"])
	if err != nil {
		h.writeError(w, "read", err)
		return
	}
	metrics.RegistrationRequests.WithLabelValues("read", "success").Inc()
	h.writeJSON(w, http.StatusOK, p)
}

// writeError is the single place domain errors become status codes.
func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	var verr *ValidationError
	var terr *identity.TokenError
	switch {
	case errors.As(err, &verr):
		h.fail(w, op, http.StatusBadRequest, "invalid_request", verr.Error())
	case errors.As(err, &terr):
		h.logger.Debugw("token rejected", "op", op, "kind", terr.Kind.String(), "err", terr.Err)
		metrics.TokenRejections.WithLabelValues(terr.Kind.String()).Inc()
		h.fail(w, op, http.StatusForbidden, "token_rejected", terr.Kind.Message())
	case errors.Is(err, ErrConflict):
		h.fail(w, op, http.StatusConflict, "conflict", "This user already exists")
	case errors.Is(err, ErrNotFound):
		h.fail(w, op, http.StatusNotFound, "not_found", "This user does not exist")
	case errors.Is(err, ErrInvalidGroup):
		h.fail(w, op, http.StatusForbidden, "invalid_group", "The provided group is not valid")
	default:
		h.logger.Errorw("request failed", "op", op, "err", err)
		h.fail(w, op, http.StatusInternalServerError, "error", "internal server error")
	}
}

func (h *Handler) fail(w http.ResponseWriter, op string, status int, outcome, msg string) {
	metrics.RegistrationRequests.WithLabelValues(op, outcome).Inc()
	h.writeJSON(w, status, errorResponse{Message: msg})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// readArgs collects request fields from a JSON body, then the form body and
// query string. The token may also arrive as a bearer Authorization header.
func readArgs(r *http.Request) (map[string]string, error) {
	args := map[string]string{}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") && r.Body != nil {
		var body map[string]any
		err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		for k, v := range body {
			switch val := v.(type) {
			case string:
				args[k] = val
			case float64:
				args[k] = strconv.FormatFloat(val, 'f', -1, 64)
			}
		}
	}
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(maxBodyBytes)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return nil, err
	}
	for k := range r.Form {
		if _, ok := args[k]; !ok {
			args[k] = r.Form.Get(k)
		}
	}
	if strings.TrimSpace(args["token"]) == "" {
		if tok := bearerToken(r); tok != "" {
			args["token"] = tok
		}
	}
	return args, nil
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) < len("bearer ") || !strings.EqualFold(auth[:len("bearer ")], "bearer ") {
		return ""
	}
	return strings.TrimSpace(auth[len("bearer "):])
}
