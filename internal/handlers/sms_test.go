package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"greenguile/internal/models"
	"greenguile/internal/service"
)

func newSMSService(phone string) (*service.Service, *mockDispatcher) {
	set := models.DefaultSettings()
	set.PhoneNumber = phone
	d := &mockDispatcher{reply: "System activated"}
	return &service.Service{Dispatcher: d, Settings: &mockSettings{snap: set}}, d
}

func TestReceiveSMS_ProcessesKnownSender(t *testing.T) {
	s, d := newSMSService("+1234567890")
	r := newTestRouter(s, Config{})

	w := postJSON(r, "/sms", `{"from":"+1 (234) 567-890","text":"activate"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var out smsReply
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Reply != "System activated" {
		t.Fatalf("reply = %q", out.Reply)
	}
	if len(d.texts) != 1 || d.texts[0] != "activate" {
		t.Fatalf("dispatcher saw %v", d.texts)
	}
}

func TestReceiveSMS_RejectsOtherSenders(t *testing.T) {
	s, d := newSMSService("+1234567890")
	r := newTestRouter(s, Config{})

	if w := postJSON(r, "/sms", `{"from":"+1999","text":"DEACTIVATE"}`, nil); w.Code != http.StatusForbidden {
		t.Fatalf("status=%d", w.Code)
	}
	if len(d.texts) != 0 {
		t.Fatal("command from unknown sender was processed")
	}
}

func TestReceiveSMS_EmptyPhoneAcceptsAnyone(t *testing.T) {
	s, _ := newSMSService("")
	r := newTestRouter(s, Config{})

	if w := postJSON(r, "/sms", `{"from":"+1999","text":"STATUS"}`, nil); w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestReceiveSMS_MissingSender(t *testing.T) {
	s, _ := newSMSService("")
	r := newTestRouter(s, Config{})

	if w := postJSON(r, "/sms", `{"text":"STATUS"}`, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestReceiveSMS_RateLimited(t *testing.T) {
	s, d := newSMSService("+1234567890")
	r := newTestRouter(s, Config{SMSRatePerMin: 2})

	for i := 0; i < 2; i++ {
		if w := postJSON(r, "/sms", `{"from":"+1234567890","text":"STATUS"}`, nil); w.Code != http.StatusOK {
			t.Fatalf("request %d status=%d", i, w.Code)
		}
	}
	if w := postJSON(r, "/sms", `{"from":"+1234567890","text":"STATUS"}`, nil); w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status=%d", w.Code)
	}
	if len(d.texts) != 2 {
		t.Fatalf("dispatcher saw %d commands", len(d.texts))
	}
}

func TestSenderLimiter_DisabledAndReset(t *testing.T) {
	off := newSenderLimiter(0)
	for i := 0; i < 100; i++ {
		if !off.Allow("x") {
			t.Fatal("disabled limiter rejected")
		}
	}

	l := newSenderLimiter(1)
	for i := 0; i <= maxTrackedSenders; i++ {
		l.Allow(strconv.Itoa(i))
	}
	if len(l.senders) > maxTrackedSenders {
		t.Fatalf("limiter tracks %d senders", len(l.senders))
	}
}

func TestNormalizeNumber(t *testing.T) {
	if got := normalizeNumber(" +44 (0)20-7946 0018 "); got != "+4402079460018" {
		t.Fatalf("got %q", got)
	}
}
