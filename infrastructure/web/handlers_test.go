package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"board-chat/domain"
	boarderrors "board-chat/errors"
	"board-chat/mocks"
	"board-chat/observability"
	"board-chat/projection"
	"board-chat/search"
	"board-chat/sink"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestHandler(t *testing.T) (*Handler, *mocks.MockIChatService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	svc := mocks.NewMockIChatService(ctrl)
	handler := NewHandler(log, svc, observability.NewMonitor(log), sink.NewLanguageStats(), projection.NewActivity(5))
	return handler, svc
}

func doRequest(handler *Handler, method, target, body string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, target, strings.NewReader(body))
	recorder := httptest.NewRecorder()
	handler.Routes().ServeHTTP(recorder, request)
	return recorder
}

func TestHandleRegister(t *testing.T) {
	req := require.New(t)
	handler, svc := newTestHandler(t)

	svc.EXPECT().Register("Alice").Return(domain.Identity{
		ID: "u-000001", DisplayName: "Alice", AvatarTag: "AL",
	}).Times(1)

	recorder := doRequest(handler, http.MethodPost, "/api/register", `{"displayName":"Alice"}`)
	req.Equal(http.StatusOK, recorder.Code)

	var identity domain.Identity
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &identity))
	req.Equal("u-000001", identity.ID)
	req.Equal("AL", identity.AvatarTag)
}

func TestHandleRegister_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing name", body: `{}`},
		{name: "empty name", body: `{"displayName":""}`},
		{name: "garbage body", body: `{nope`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _ := newTestHandler(t)
			recorder := doRequest(handler, http.MethodPost, "/api/register", tt.body)
			require.Equal(t, http.StatusBadRequest, recorder.Code)
		})
	}
}

func TestHandleBoards(t *testing.T) {
	req := require.New(t)
	handler, svc := newTestHandler(t)

	svc.EXPECT().Boards().Return(domain.DefaultCatalog()).Times(1)

	recorder := doRequest(handler, http.MethodGet, "/api/boards", "")
	req.Equal(http.StatusOK, recorder.Code)

	var boards []domain.Board
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &boards))
	req.Len(boards, 3)
}

func TestHandleHistory(t *testing.T) {
	req := require.New(t)
	handler, svc := newTestHandler(t)

	svc.EXPECT().History(domain.BoardID("general"), 5).
		Return([]domain.Message{{ID: "m1", Text: "hello"}}, nil).Times(1)

	recorder := doRequest(handler, http.MethodGet, "/api/boards/general/messages?limit=5", "")
	req.Equal(http.StatusOK, recorder.Code)

	var messages []domain.Message
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &messages))
	req.Len(messages, 1)
	req.Equal("m1", messages[0].ID)
}

func TestHandleHistory_EmptyBoardIsEmptyArray(t *testing.T) {
	req := require.New(t)
	handler, svc := newTestHandler(t)

	svc.EXPECT().History(domain.BoardID("general"), 0).Return(nil, nil).Times(1)

	recorder := doRequest(handler, http.MethodGet, "/api/boards/general/messages", "")
	req.Equal(http.StatusOK, recorder.Code)
	req.JSONEq(`[]`, recorder.Body.String(), "clients expect an array, never null")
}

func TestHandleHistory_UnknownBoard(t *testing.T) {
	req := require.New(t)
	handler, svc := newTestHandler(t)

	svc.EXPECT().History(domain.BoardID("atlantis"), 0).
		Return(nil, boarderrors.ErrUnknownBoard).Times(1)

	recorder := doRequest(handler, http.MethodGet, "/api/boards/atlantis/messages", "")
	req.Equal(http.StatusNotFound, recorder.Code)
}

func TestHandleSearch(t *testing.T) {
	req := require.New(t)
	handler, svc := newTestHandler(t)

	svc.EXPECT().Search(gomock.Any(), domain.BoardID("general"), "deploy", 0).
		Return([]search.Result{{MessageID: "m1", Text: "deploy went fine"}}, nil).Times(1)

	recorder := doRequest(handler, http.MethodGet, "/api/boards/general/search?q=deploy", "")
	req.Equal(http.StatusOK, recorder.Code)

	var results []search.Result
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &results))
	req.Len(results, 1)
}

func TestHandleSearch_MissingQuery(t *testing.T) {
	req := require.New(t)
	handler, _ := newTestHandler(t)

	recorder := doRequest(handler, http.MethodGet, "/api/boards/general/search", "")
	req.Equal(http.StatusBadRequest, recorder.Code)
}

func TestHandleHealth(t *testing.T) {
	req := require.New(t)
	handler, _ := newTestHandler(t)

	recorder := doRequest(handler, http.MethodGet, "/api/health", "")
	req.Equal(http.StatusOK, recorder.Code)
	req.JSONEq(`{"status":"ok"}`, recorder.Body.String())
}

func TestHandleStats(t *testing.T) {
	req := require.New(t)
	handler, _ := newTestHandler(t)

	recorder := doRequest(handler, http.MethodGet, "/api/stats", "")
	req.Equal(http.StatusOK, recorder.Code)

	var payload map[string]json.RawMessage
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &payload))
	req.Contains(payload, "runtime")
	req.Contains(payload, "languages")
	req.Contains(payload, "recent_activity")
}

func TestOriginFrom(t *testing.T) {
	tests := []struct {
		name      string
		remote    string
		forwarded string
		want      string
	}{
		{name: "plain peer address", remote: "192.168.1.10:54321", want: "192.168.1.10"},
		{name: "behind one proxy", remote: "10.0.0.1:80", forwarded: "203.0.113.7", want: "203.0.113.7"},
		{name: "proxy chain keeps first hop", remote: "10.0.0.1:80", forwarded: "203.0.113.7, 10.0.0.2", want: "203.0.113.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/ws", nil)
			request.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				request.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			require.Equal(t, tt.want, originFrom(request))
		})
	}
}
