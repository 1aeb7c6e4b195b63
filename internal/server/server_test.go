package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thywilljoshua/pdfcheck/internal/check"
	"github.com/thywilljoshua/pdfcheck/internal/pdflib"
	"github.com/thywilljoshua/pdfcheck/internal/source"
	"github.com/thywilljoshua/pdfcheck/internal/status"
)

// textLib treats a document's bytes (or its URL) as the text of its only
// page.
type textLib struct {
	mu   sync.Mutex
	urls []string
}

func (*textLib) Name() string { return "text" }

func (l *textLib) Open(_ context.Context, src pdflib.Source) (pdflib.Document, error) {
	if src.URL != "" {
		l.mu.Lock()
		l.urls = append(l.urls, src.URL)
		l.mu.Unlock()
		return textDoc(src.URL), nil
	}
	return textDoc(src.Data), nil
}

type textDoc string

func (textDoc) NumPages() int { return 1 }

func (d textDoc) PageText(context.Context, int) ([]string, error) { return []string{string(d)}, nil }

type staticLoader struct{ lib pdflib.Library }

func (l staticLoader) Get(context.Context, string) (pdflib.Library, error) { return l.lib, nil }

func newTestServer(t *testing.T) (*Server, *httptest.Server, *textLib) {
	t.Helper()
	lib := &textLib{}
	s := New(t.Context(), check.Config{ProxyPrefix: source.DefaultProxyPrefix, Loader: staticLoader{lib: lib}}, 0)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts, lib
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

type statusBody struct {
	Invocation uint64 `json:"invocation"`
	State      string `json:"state"`
	Message    string `json:"message"`
}

func getStatus(t *testing.T, ts *httptest.Server) statusBody {
	t.Helper()
	resp, err := ts.Client().Get(ts.URL + "/api/status")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[statusBody](t, resp)
}

func TestServer_Index(t *testing.T) {
	t.Parallel()
	_, ts, _ := newTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, string(body), `id="checkPdfForm"`)
	assert.Contains(t, string(body), `id="status"`)
	assert.Contains(t, string(body), `id="requestError"`)
}

func TestServer_CheckURL(t *testing.T) {
	t.Parallel()
	s, ts, lib := newTestServer(t)

	resp, err := ts.Client().PostForm(ts.URL+"/api/check", url.Values{"url": {"https://example.com/report.pdf"}})
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	rid := resp.Header.Get(echo.HeaderXRequestID)
	got := decode[checkResponse](t, resp)
	assert.Equal(t, []uint64{1}, got.Invocations)
	_, err = uuid.Parse(rid)
	require.NoError(t, err, "request id %q", rid)
	assert.Equal(t, rid, got.RequestID)

	s.Wait()

	snap := getStatus(t, ts)
	assert.Equal(t, uint64(1), snap.Invocation)
	assert.Equal(t, status.Success.String(), snap.State)
	assert.Equal(t, check.MsgHasText, snap.Message)
	assert.Equal(t, []string{"https://cors-anywhere.herokuapp.com/https://example.com/report.pdf"}, lib.urls)
}

func TestServer_CheckURL_JSON(t *testing.T) {
	t.Parallel()
	s, ts, _ := newTestServer(t)

	resp, err := ts.Client().Post(ts.URL+"/api/check", "application/json", strings.NewReader(`{"url":"https://example.com/a.pdf"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	s.Wait()
}

func TestServer_CheckURL_CallerRequestID(t *testing.T) {
	t.Parallel()
	s, ts, _ := newTestServer(t)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, ts.URL+"/api/check", strings.NewReader(`{"url":"https://example.com/a.pdf"}`))
	require.NoError(t, err)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderXRequestID, "upload-42")

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "upload-42", resp.Header.Get(echo.HeaderXRequestID))
	assert.Equal(t, "upload-42", decode[checkResponse](t, resp).RequestID)
	s.Wait()
}

func TestServer_CheckURL_Missing(t *testing.T) {
	t.Parallel()
	_, ts, _ := newTestServer(t)

	resp, err := ts.Client().PostForm(ts.URL+"/api/check", url.Values{"url": {"  "}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	// The page shows this message next to, not in place of, the status line.
	assert.Equal(t, "missing url", decode[map[string]string](t, resp)["message"])

	snap := getStatus(t, ts)
	assert.Equal(t, uint64(0), snap.Invocation)
}

func TestServer_CheckFiles(t *testing.T) {
	t.Parallel()
	s, ts, _ := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("files", "scan.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("tiny"))
	require.NoError(t, err)
	fw, err = mw.CreateFormFile("files", "text.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("plenty of extractable text here"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := ts.Client().Post(ts.URL+"/api/check/files", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	got := decode[checkResponse](t, resp)
	assert.Equal(t, []uint64{1, 2}, got.Invocations)
	assert.NotEmpty(t, got.RequestID)

	s.Wait()

	snap := getStatus(t, ts)
	assert.Equal(t, uint64(2), snap.Invocation)
	assert.Equal(t, check.MsgHasText, snap.Message)
}

func TestServer_CheckFiles_Empty(t *testing.T) {
	t.Parallel()
	_, ts, _ := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("url", "ignored"))
	require.NoError(t, mw.Close())

	resp, err := ts.Client().Post(ts.URL+"/api/check/files", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_StatusBeforeAnyCheck(t *testing.T) {
	t.Parallel()
	_, ts, _ := newTestServer(t)

	snap := getStatus(t, ts)
	assert.Equal(t, uint64(0), snap.Invocation)
	assert.Empty(t, snap.Message)
}

func TestServe_Shutdown(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(t.Context())
	s := New(ctx, check.Config{Loader: staticLoader{lib: &textLib{}}}, 0)

	ln, err := Listen(ctx, "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/status")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	require.NoError(t, <-done)
}
