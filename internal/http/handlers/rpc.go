package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ngeni/portal/internal/actorctx"
	"github.com/ngeni/portal/internal/apperr"
	"github.com/ngeni/portal/internal/observability"
	"github.com/ngeni/portal/internal/rpc"
)

// SessionCookie is the cookie that carries the session token.
const SessionCookie = "session"

// sessionSetter is implemented by results that open a session.
type sessionSetter interface {
	SessionCookie() (token string, expiresAt time.Time)
}

// sessionEnder is implemented by results that close the caller's session.
type sessionEnder interface {
	EndsSession() bool
}

type RPCHandler struct {
	procs        *rpc.Router
	prom         *observability.Prom
	secureCookie bool
	now          func() time.Time
}

func NewRPCHandler(procs *rpc.Router, prom *observability.Prom, secureCookie bool) *RPCHandler {
	return &RPCHandler{procs: procs, prom: prom, secureCookie: secureCookie, now: time.Now}
}

// Call serves POST /api/rpc/:procedure and, for queries, GET with ?input=<json>.
func (h *RPCHandler) Call(ctx *gin.Context) {
	name := ctx.Param("procedure")
	ctx.Set("rpc.procedure", name)

	p, ok := h.procs.Lookup(name)
	if !ok {
		// unknown names share one label
		h.fail(ctx, "unknown", apperr.NotFound("No procedure named \""+name+"\"."), 0)
		return
	}

	var raw []byte
	if ctx.Request.Method == http.MethodGet {
		if p.Kind() == rpc.Mutation {
			h.fail(ctx, name, apperr.New(apperr.KindMethodNotSupported, "Mutations must be sent with POST."), 0)
			return
		}
		raw = []byte(ctx.Query("input"))
	} else {
		body, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				h.fail(ctx, name, apperr.BadRequest("Request body too large."), 0)
				return
			}
			h.fail(ctx, name, apperr.BadRequest("Could not read request body."), 0)
			return
		}
		raw = body
	}

	reqCtx := ctx.Request.Context()
	start := time.Now()
	out, err := h.procs.Call(reqCtx, actorctx.CallerFrom(reqCtx), name, raw)
	took := time.Since(start)
	if err != nil {
		h.fail(ctx, name, err, took)
		return
	}
	h.prom.ObserveProcedure(name, "OK", took)

	if s, ok := out.(sessionSetter); ok {
		token, expires := s.SessionCookie()
		h.setSession(ctx, token, int(expires.Sub(h.now()).Seconds()))
	}
	if e, ok := out.(sessionEnder); ok && e.EndsSession() {
		h.setSession(ctx, "", -1)
	}

	if p.Kind() == rpc.Query {
		RespondJSONWithETag(ctx, http.StatusOK, result{Result: out})
		return
	}
	ctx.JSON(http.StatusOK, result{Result: out})
}

func (h *RPCHandler) fail(ctx *gin.Context, name string, err error, took time.Duration) {
	h.prom.ObserveProcedure(name, apperr.KindOf(err).Code(), took)
	RespondError(ctx, err)
}

// setSession writes the session cookie; maxAge < 0 deletes it.
func (h *RPCHandler) setSession(ctx *gin.Context, token string, maxAge int) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(SessionCookie, token, maxAge, "/", "", h.secureCookie, true)
}

type procedureInfo struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Access string `json:"access"`
}

// List serves GET /api/rpc: every procedure with its kind and access tag.
func (h *RPCHandler) List(ctx *gin.Context) {
	procs := h.procs.Procedures()
	out := make([]procedureInfo, 0, len(procs))
	for _, p := range procs {
		out = append(out, procedureInfo{Name: p.Name(), Kind: p.Kind().String(), Access: p.Access().String()})
	}
	RespondJSONWithETag(ctx, http.StatusOK, result{Result: out})
}
