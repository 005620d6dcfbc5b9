package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-cbt/internal/exam"
	"github.com/stemsi/exstem-cbt/internal/middleware"
	"github.com/stemsi/exstem-cbt/internal/model"
	"github.com/stemsi/exstem-cbt/internal/report"
	"github.com/stemsi/exstem-cbt/internal/response"
	"github.com/stemsi/exstem-cbt/internal/service"
	ws "github.com/stemsi/exstem-cbt/internal/websocket"
)

const tickInterval = time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams the exam clock and accepts exam actions over a WebSocket.
type WSHandler struct {
	examService *service.ExamService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(examService *service.ExamService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		examService: examService,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// AttemptStream godoc
// WS /ws/v1/exam/attempts/:id/stream?token=
// Pushes a tick every second and the graded result when the attempt closes,
// whether by the candidate or by the clock.
func (h *WSHandler) AttemptStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	id, ok := attemptID(c)
	if !ok {
		return
	}

	a, err := h.examService.Get(claims.CandidateID, id)
	if err != nil {
		failErr(c, err)
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer raw.Close()
	conn := ws.Wrap(raw)

	wsLog := h.log.With().
		Str("candidate_id", claims.CandidateID).
		Str("attempt_id", id.String()).
		Logger()
	wsLog.Info().Msg("candidate connected")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_ = conn.WriteTyped(ws.StateResponse{Event: ws.EventState, State: h.examService.Snapshot(a)})
	go h.push(ctx, conn, a)

	for {
		var msg ws.RequestPayload
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("unexpected close")
			} else {
				wsLog.Debug().Msg("connection closed")
			}
			return
		}
		h.dispatch(conn, wsLog, claims.CandidateID, a, &msg)
	}
}

// push sends the clock until the attempt is scored, then the graded event.
func (h *WSHandler) push(ctx context.Context, conn *ws.Conn, a *service.Attempt) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-a.Done():
			out, err := h.examService.Result(a.CandidateID, a.ID)
			if err == nil {
				_ = conn.WriteTyped(ws.Graded(out))
			}
			return
		case <-ticker.C:
			st := h.examService.Snapshot(a)
			if err := conn.WriteTyped(ws.TickResponse{
				Event:                ws.EventTick,
				TimeRemainingSeconds: st.TimeRemainingSeconds,
				Clock:                report.FormatClock(st.TimeRemainingSeconds),
				FinalMinute:          st.FinalMinute,
			}); err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) dispatch(conn *ws.Conn, log zerolog.Logger, candidateID string, a *service.Attempt, msg *ws.RequestPayload) {
	switch msg.Action {
	case ws.ActionAnswer:
		if msg.QuestionID == "" || msg.Option == "" {
			_ = conn.WriteError("q_id and option are required")
			return
		}
		st, err := h.examService.Answer(candidateID, a.ID, msg.QuestionID, strings.ToUpper(msg.Option))
		h.writeState(conn, st, err)
	case ws.ActionNavigate:
		st, err := h.examService.Navigate(candidateID, a.ID, msg.Delta)
		h.writeState(conn, st, err)
	case ws.ActionJump:
		if msg.Index == nil {
			_ = conn.WriteError("index is required")
			return
		}
		st, err := h.examService.Jump(candidateID, a.ID, *msg.Index)
		h.writeState(conn, st, err)
	case ws.ActionSubmit:
		// The push goroutine reports the graded event once Done closes.
		if _, err := h.examService.Submit(candidateID, a.ID); err != nil {
			_ = conn.WriteError(wsMessage(err))
		}
	case ws.ActionPing:
		_ = conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
	default:
		log.Warn().Str("action", string(msg.Action)).Msg("unknown action")
		_ = conn.WriteError("unknown action: " + string(msg.Action))
	}
}

func (h *WSHandler) writeState(conn *ws.Conn, st model.AttemptState, err error) {
	if err != nil {
		_ = conn.WriteError(wsMessage(err))
		return
	}
	_ = conn.WriteTyped(ws.StateResponse{Event: ws.EventState, State: st})
}

// wsMessage maps an action error to the message the client sees.
func wsMessage(err error) string {
	switch {
	case errors.Is(err, exam.ErrSessionClosed):
		return response.GetMessage(response.ErrAttemptClosed)
	case errors.Is(err, exam.ErrUnknownQuestion):
		return response.GetMessage(response.ErrUnknownQuestion)
	case errors.Is(err, exam.ErrInvalidOption):
		return response.GetMessage(response.ErrInvalidOption)
	case errors.Is(err, service.ErrAttemptNotFound):
		return response.GetMessage(response.ErrAttemptNotFound)
	default:
		return response.GetMessage(response.ErrInternal)
	}
}
