package handlers

import (
	"net/http"
	"strings"
	"sync"

	"greenguile/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"golang.org/x/time/rate"
)

// maxTrackedSenders bounds the limiter table; it is reset when exceeded.
const maxTrackedSenders = 1024

// smsRequest is the gateway callback payload.
type smsRequest struct {
	From string `json:"from" binding:"required" example:"+1234567890"`
	Text string `json:"text" example:"SEASON summer"`
}

type smsReply struct {
	Reply string `json:"reply" example:"Season set to summer"`
}

// senderLimiter keeps one token bucket per sender number.
type senderLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	senders map[string]*rate.Limiter
}

func newSenderLimiter(perMinute float64) *senderLimiter {
	if perMinute <= 0 {
		return nil
	}
	burst := int(perMinute)
	if burst < 1 {
		burst = 1
	}
	return &senderLimiter{
		limit:   rate.Limit(perMinute / 60),
		burst:   burst,
		senders: map[string]*rate.Limiter{},
	}
}

func (l *senderLimiter) Allow(sender string) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.senders[sender]
	if !ok {
		if len(l.senders) >= maxTrackedSenders {
			l.senders = map[string]*rate.Limiter{}
		}
		lim = rate.NewLimiter(l.limit, l.burst)
		l.senders[sender] = lim
	}
	return lim.Allow()
}

// normalizeNumber drops formatting so "+1 (234) 567-890" matches "+1234567890".
func normalizeNumber(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '+' || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// @Summary      SMS gateway callback
// @Description  Runs the text as a device command and returns the reply to send back. Only the configured phone_number is accepted when one is set.
// @Tags         sms
// @Accept       json
// @Produce      json
// @Param        body  body      smsRequest  true  "Incoming message"
// @Success      200   {object}  smsReply
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /sms [post]
func (h *Handler) receiveSMS(c *gin.Context) {
	var req smsRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}

	from := normalizeNumber(req.From)
	allowed := normalizeNumber(cast.ToString(h.services.Get(models.KeyPhoneNumber, "")))
	if allowed != "" && from != allowed {
		h.log.Warnw("sms_rejected_sender", "from", req.From)
		c.JSON(http.StatusForbidden, gin.H{"error": "unknown sender"})
		return
	}
	if !h.limiter.Allow(from) {
		h.log.Warnw("sms_rate_limited", "from", req.From)
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many commands, try again later"})
		return
	}

	reply := h.services.Process(c.Request.Context(), req.Text)
	h.log.Infow("sms_processed", "from", req.From, "text", req.Text)
	c.JSON(http.StatusOK, smsReply{Reply: reply})
}
