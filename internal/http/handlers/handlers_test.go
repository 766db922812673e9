package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	types "github.com/kon-rad/juego-sub000/internal/domain"
	"github.com/kon-rad/juego-sub000/internal/platform/apierr"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
	"github.com/kon-rad/juego-sub000/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func doJSON(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

type fakeVoice struct {
	services.VoiceService
	body []byte
	err  error
}

func (f *fakeVoice) HandleWebhook(_ context.Context, body []byte) error {
	f.body = body
	return f.err
}

func TestWebhookAlwaysAnswers200(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"processed", nil, false},
		{"processing error", errors.New("unexpected end of JSON input"), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			voice := &fakeVoice{err: tc.err}
			h := NewVapiHandler(logger.Nop(), voice)
			r := gin.New()
			r.POST("/api/vapi/webhook", h.Webhook)

			rec := doJSON(t, r, http.MethodPost, "/api/vapi/webhook", `{"message":`)
			if rec.Code != http.StatusOK {
				t.Fatalf("status=%d, want 200", rec.Code)
			}
			if string(voice.body) != `{"message":` {
				t.Fatalf("service saw body %q", voice.body)
			}
			out := decode(t, rec)
			if out["received"] != true {
				t.Fatalf("received=%v, want true", out["received"])
			}
			if got, ok := out["error"]; ok != tc.wantErr || (ok && got != "Processing error") {
				t.Fatalf("error field=%v present=%v, want present=%v", got, ok, tc.wantErr)
			}
		})
	}
}

type fakeTeachers struct {
	services.TeacherService
	gotX, gotY float64
	check      *services.PositionCheck
	getErr     error
}

func (f *fakeTeachers) CheckPosition(_ context.Context, x, y float64) (*services.PositionCheck, error) {
	f.gotX, f.gotY = x, y
	return f.check, nil
}

func (f *fakeTeachers) Get(_ context.Context, id string) (*types.Teacher, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &types.Teacher{Topic: "python", Name: "Python Master"}, nil
}

func teacherRouter(svc services.TeacherService) *gin.Engine {
	h := NewTeacherHandler(svc)
	r := gin.New()
	r.POST("/api/teacher/check-position", h.CheckPosition)
	r.GET("/api/teacher/:id", h.Get)
	return r
}

func TestCheckPositionRequiresBothCoordinates(t *testing.T) {
	svc := &fakeTeachers{check: &services.PositionCheck{Available: true}}
	r := teacherRouter(svc)

	for _, body := range []string{`{}`, `{"x":10}`, `{"y":10}`, `not json`} {
		rec := doJSON(t, r, http.MethodPost, "/api/teacher/check-position", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("CheckPosition(%q) status=%d, want 400", body, rec.Code)
		}
	}

	rec := doJSON(t, r, http.MethodPost, "/api/teacher/check-position", `{"x":0,"y":250.5}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200: %s", rec.Code, rec.Body.String())
	}
	if svc.gotX != 0 || svc.gotY != 250.5 {
		t.Fatalf("service got (%v,%v), want (0,250.5)", svc.gotX, svc.gotY)
	}
	if out := decode(t, rec); out["available"] != true {
		t.Fatalf("available=%v, want true", out["available"])
	}
}

func TestGetTeacherMapsServiceErrors(t *testing.T) {
	svc := &fakeTeachers{getErr: apierr.NotFound("teacher_not_found", "teacher not found")}
	r := teacherRouter(svc)

	rec := doJSON(t, r, http.MethodGet, "/api/teacher/abc", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d, want 404", rec.Code)
	}
	out := decode(t, rec)
	env, _ := out["error"].(map[string]any)
	if env["code"] != "teacher_not_found" {
		t.Fatalf("code=%v, want teacher_not_found", env["code"])
	}

	svc.getErr = nil
	rec = doJSON(t, r, http.MethodGet, "/api/teacher/abc", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", rec.Code)
	}
	teacher, _ := decode(t, rec)["teacher"].(map[string]any)
	if teacher == nil {
		t.Fatalf("missing teacher in %s", rec.Body.String())
	}
}

type fakeChat struct {
	services.ChatService
}

func TestCreateConversationNeedsTwoParticipants(t *testing.T) {
	h := NewChatHandler(&fakeChat{})
	r := gin.New()
	r.POST("/api/chat/conversation", h.CreateConversation)

	rec := doJSON(t, r, http.MethodPost, "/api/chat/conversation", `{"participants":["alice"]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	h := NewHealthHandler(nil)
	r := gin.New()
	r.GET("/healthcheck", h.HealthCheck)
	r.GET("/metrics", h.Metrics)

	if rec := doJSON(t, r, http.MethodGet, "/healthcheck", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthcheck status=%d, want 200", rec.Code)
	}
	if rec := doJSON(t, r, http.MethodGet, "/metrics", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("metrics status=%d without metrics, want 404", rec.Code)
	}
}
