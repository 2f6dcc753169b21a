package delivery

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	emaildomain "mail-assistant-backend/internal/email/domain"
	"mail-assistant-backend/internal/email/usecase"
)

// streamingEmailUsecase emits a fixed number of progress events and
// records the refresh arguments. done closes when Refresh returns.
type streamingEmailUsecase struct {
	events    int
	done      chan struct{}
	gotFolder string
	gotDays   int
}

func newStreamingUsecase(events int) *streamingEmailUsecase {
	return &streamingEmailUsecase{events: events, done: make(chan struct{})}
}

func (s *streamingEmailUsecase) Refresh(_ context.Context, folder string, lookbackDays int, onProgress func(usecase.RefreshProgress)) (int, int, error) {
	defer close(s.done)
	s.gotFolder = folder
	s.gotDays = lookbackDays
	for i := 0; i < s.events; i++ {
		if onProgress != nil {
			onProgress(usecase.RefreshProgress{Processed: i + 1, Subject: "邮件"})
		}
	}
	return s.events, 0, nil
}

func (s *streamingEmailUsecase) ListEmails(string, int, int) ([]*emaildomain.Email, error) {
	return nil, nil
}

func (s *streamingEmailUsecase) SendEmail([]string, string, string, bool) error { return nil }

func newRefreshServer(t *testing.T, uc usecase.EmailUsecase, lookbackDays int) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	handler := NewEmailHandler(uc, nil, nil, nil, lookbackDays)
	r := gin.New()
	r.POST("/api/emails/refresh", handler.Refresh)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestRefreshStreamSurvivesClientDisconnect(t *testing.T) {
	uc := newStreamingUsecase(500)
	srv := newRefreshServer(t, uc, 1)

	resp, err := http.Post(srv.URL+"/api/emails/refresh", "", nil)
	require.NoError(t, err)

	// Read one event, then drop the connection mid-stream.
	reader := bufio.NewReader(resp.Body)
	_, err = reader.ReadString('\n')
	require.NoError(t, err)
	resp.Body.Close()

	// The refresh must still run to completion instead of blocking
	// forever on a progress send nobody drains.
	select {
	case <-uc.done:
	case <-time.After(3 * time.Second):
		t.Fatal("refresh still blocked sending progress after the client disconnected")
	}
}

func TestRefreshStreamCompletes(t *testing.T) {
	uc := newStreamingUsecase(2)
	srv := newRefreshServer(t, uc, 1)

	resp, err := http.Post(srv.URL+"/api/emails/refresh", "", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "邮件处理中")
	assert.Contains(t, string(body), "邮件刷新成功")
	assert.Contains(t, string(body), "[DONE]")
}

func TestRefreshUsesConfiguredLookbackDefault(t *testing.T) {
	uc := newStreamingUsecase(0)
	srv := newRefreshServer(t, uc, 3)

	resp, err := http.Post(srv.URL+"/api/emails/refresh", "", nil)
	require.NoError(t, err)
	_, _ = io.ReadAll(resp.Body)
	resp.Body.Close()

	<-uc.done
	assert.Equal(t, "INBOX", uc.gotFolder)
	assert.Equal(t, 3, uc.gotDays, "absent days parameter falls back to the configured lookback")
}

func TestRefreshQueryOverridesLookback(t *testing.T) {
	uc := newStreamingUsecase(0)
	srv := newRefreshServer(t, uc, 3)

	resp, err := http.Post(srv.URL+"/api/emails/refresh?days=7&folder=Sent", "", nil)
	require.NoError(t, err)
	_, _ = io.ReadAll(resp.Body)
	resp.Body.Close()

	<-uc.done
	assert.Equal(t, "Sent", uc.gotFolder)
	assert.Equal(t, 7, uc.gotDays)
}
