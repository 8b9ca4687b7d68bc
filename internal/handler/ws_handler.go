package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/openexam/cbe-backend/internal/examcore"
	"github.com/openexam/cbe-backend/internal/middleware"
	"github.com/openexam/cbe-backend/internal/service"
	ws "github.com/openexam/cbe-backend/internal/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
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

// WSHandler streams a live exam session over WebSocket: countdown ticks out,
// answers and submit in. One connection attaches to one session.
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

// ExamStream godoc
// WS /ws/v1/student/exams/:subject_id/stream
// Upgrades to WebSocket. Server pushes one tick per second with the
// remaining time and a graded event when the session is submitted, whether
// by the client or by timer expiry.
func (h *WSHandler) ExamStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	subjectID, err := strconv.ParseInt(c.Param("subject_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subject ID"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	studentID := claims.UserID

	coord, err := h.examService.Coordinator(subjectID, studentID)
	if err != nil {
		ws.WriteError(conn, "no active session for this subject")
		return
	}

	wsLog := h.log.With().
		Int("student_id", studentID).
		Int64("subject_id", subjectID).
		Logger()
	wsLog.Info().Msg("Student connected")

	stream := &examStream{
		conn:        conn,
		coord:       coord,
		examService: h.examService,
		subjectID:   subjectID,
		studentID:   studentID,
		log:         wsLog,
		out:         make(chan interface{}, 8),
		closed:      make(chan struct{}),
	}

	go stream.writeLoop()
	stream.readLoop()
}

// examStream is the per-connection state. The write loop is the only
// goroutine touching conn for writes; the read loop funnels its responses
// through the out channel.
type examStream struct {
	conn        *websocket.Conn
	coord       *examcore.Coordinator
	examService *service.ExamService
	subjectID   int64
	studentID   int
	log         zerolog.Logger

	out    chan interface{}
	closed chan struct{}
}

// writeLoop is the sole writer on the connection. It multiplexes countdown
// ticks, the graded event, and responses queued by the read loop.
func (s *examStream) writeLoop() {
	var ticks <-chan int
	if cd := s.coord.Countdown(); cd != nil {
		ticks = cd.Ticks()
	}

	done := s.coord.Done()
	for {
		select {
		case <-s.closed:
			return
		case remaining := <-ticks:
			if err := ws.WriteTyped(s.conn, ws.TickResponse{Event: ws.EventTick, RemainingSeconds: remaining}); err != nil {
				return
			}
		case <-done:
			result := s.coord.Result()
			if result != nil {
				ws.WriteTyped(s.conn, ws.GradedResponse{
					Event:      ws.EventGraded,
					Score:      result.Score,
					Total:      result.Total,
					Percentage: result.Percentage,
					Passed:     result.Passed,
				})
			}
			// Keep draining queued responses, but the graded event is final.
			done = nil
		case v := <-s.out:
			if err := ws.WriteTyped(s.conn, v); err != nil {
				return
			}
		}
	}
}

// readLoop consumes client actions until the connection drops.
func (s *examStream) readLoop() {
	defer close(s.closed)

	for {
		raw, err := ws.ReadRaw(s.conn)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn().Err(err).Msg("Unexpected close")
			} else {
				s.log.Debug().Msg("Connection closed")
			}
			return
		}

		var envelope ws.RequestEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			s.send(ws.ErrorResponse{Event: ws.EventError, Error: "invalid message"})
			continue
		}

		switch envelope.Action {
		case ws.ActionAnswer:
			s.handleAnswer(raw)
		case ws.ActionSubmit:
			s.handleSubmit()
		case ws.ActionPing:
			s.send(ws.PongResponse{Event: ws.EventPong})
		default:
			s.log.Warn().Str("action", string(envelope.Action)).Msg("Unknown action")
			s.send(ws.ErrorResponse{Event: ws.EventError, Error: "unknown action: " + string(envelope.Action)})
		}
	}
}

func (s *examStream) handleAnswer(raw []byte) {
	var msg ws.AnswerRequest
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.send(ws.ErrorResponse{Event: ws.EventError, Error: "invalid answer payload"})
		return
	}

	questionID, err := strconv.ParseInt(msg.QuestionID, 10, 64)
	if err != nil {
		s.send(ws.ErrorResponse{Event: ws.EventError, Error: "invalid question_id format"})
		return
	}

	if err := s.examService.RecordAnswer(s.subjectID, s.studentID, questionID, msg.OptionIndex); err != nil {
		s.send(ws.ErrorResponse{Event: ws.EventError, Error: "save failed"})
		return
	}

	s.send(ws.AnswerResponse{Event: ws.EventSuccess, Status: "saved"})
}

func (s *examStream) handleSubmit() {
	outcome, err := s.examService.Submit(context.Background(), s.subjectID, s.studentID)
	if err != nil {
		s.log.Error().Err(err).Msg("Submit over WebSocket failed")
		s.send(ws.ErrorResponse{Event: ws.EventError, Error: "submission failed, retry with submit"})
		return
	}

	if outcome.InFlight {
		s.send(ws.AnswerResponse{Event: ws.EventSuccess, Status: "submitting"})
	}
	// On success the graded event is pushed by the write loop when the
	// coordinator's done channel closes, covering manual and timer
	// submissions with a single path.
}

// send queues a response for the write loop. If the queue is full the
// connection is already wedged; drop rather than block the reader.
func (s *examStream) send(v interface{}) {
	select {
	case s.out <- v:
	default:
		s.log.Debug().Msg("Outbound queue full, dropping response")
	}
}
