package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tmarden/textbookd/internal/assistant"
	"github.com/tmarden/textbookd/internal/config"
	"github.com/tmarden/textbookd/internal/kvstore"
	"github.com/tmarden/textbookd/internal/session"
	"github.com/tmarden/textbookd/internal/vocab"
)

const testAPIKey = "test-key"

func testServer(t *testing.T) *Server {
	t.Helper()
	state, err := kvstore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("kvstore.Open: %v", err)
	}
	cfg := config.Config{
		Port:           "0",
		APIKey:         testAPIKey,
		MaxUploadBytes: 1 << 20,
	}
	stats := assistant.NewLLMStats(time.Minute)
	remote := assistant.NewGeminiClient(func() string { return "" }, "", stats)
	index := vocab.Build([]vocab.Entry{
		{Term: "scarcity", Definition: "limited resources, unlimited wants"},
	})
	return NewServer(session.NewStore(time.Hour), state, remote, nil, stats, index, nil,
		slog.New(slog.NewTextHandler(io.Discard, nil)), cfg)
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func uploadText(t *testing.T, s *Server, filename, content string) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	fw.Write([]byte(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/books", &buf)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	return resp
}

// bookText builds enough paragraphs to span several pages.
func bookText() string {
	para := strings.Repeat("Scarcity shapes every economic decision people make. ", 10)
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		sb.WriteString(para)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func TestAuthRequired(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/stats/llm", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/stats/llm", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	w = httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("health: status = %d, want 200", w.Code)
	}
}

func TestUploadAndRead(t *testing.T) {
	s := testServer(t)
	resp := uploadText(t, s, "econ.txt", bookText())

	id, _ := resp["session_id"].(string)
	if id == "" {
		t.Fatalf("no session_id in %v", resp)
	}
	total := int(resp["total_pages"].(float64))
	if total < 2 {
		t.Fatalf("total_pages = %d, want multi-page book", total)
	}

	t.Run("page render with vocabulary marks", func(t *testing.T) {
		w := doJSON(t, s, http.MethodGet, "/api/sessions/"+id+"/page", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}
		var page struct {
			Page  int `json:"page"`
			Nodes []struct {
				Text string `json:"text"`
			} `json:"nodes"`
			Marks []struct {
				Term string `json:"term"`
			} `json:"marks"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if page.Page != 1 || len(page.Nodes) == 0 {
			t.Errorf("page = %d with %d nodes", page.Page, len(page.Nodes))
		}
		if len(page.Marks) != 1 || page.Marks[0].Term != "scarcity" {
			t.Errorf("marks = %+v, want one scarcity mark", page.Marks)
		}
	})

	t.Run("term marked once per session", func(t *testing.T) {
		doJSON(t, s, http.MethodPost, "/api/sessions/"+id+"/goto", map[string]int{"page": 2})
		w := doJSON(t, s, http.MethodGet, "/api/sessions/"+id+"/page", nil)
		var page struct {
			Marks []any `json:"marks"`
		}
		json.Unmarshal(w.Body.Bytes(), &page)
		if len(page.Marks) != 0 {
			t.Errorf("marks on second page = %d, want 0", len(page.Marks))
		}
	})

	t.Run("goto out of range leaves page", func(t *testing.T) {
		w := doJSON(t, s, http.MethodPost, "/api/sessions/"+id+"/goto", map[string]int{"page": total + 5})
		var resp struct {
			Moved       bool `json:"moved"`
			CurrentPage int  `json:"current_page"`
		}
		json.Unmarshal(w.Body.Bytes(), &resp)
		if resp.Moved || resp.CurrentPage != 2 {
			t.Errorf("moved=%v page=%d, want unchanged page 2", resp.Moved, resp.CurrentPage)
		}
	})

	t.Run("bookmark lifecycle", func(t *testing.T) {
		w := doJSON(t, s, http.MethodPut, "/api/sessions/"+id+"/bookmark", map[string]int{"page": 2})
		if w.Code != http.StatusOK {
			t.Fatalf("set bookmark status = %d", w.Code)
		}
		w = doJSON(t, s, http.MethodGet, "/api/sessions/"+id, nil)
		var snap session.Snapshot
		json.Unmarshal(w.Body.Bytes(), &snap)
		if snap.BookmarkedPage != 2 {
			t.Errorf("bookmarked_page = %d, want 2", snap.BookmarkedPage)
		}

		w = doJSON(t, s, http.MethodDelete, "/api/sessions/"+id+"/bookmark", nil)
		if w.Code != http.StatusNoContent {
			t.Fatalf("clear bookmark status = %d", w.Code)
		}
	})

	t.Run("chapters flag active entry", func(t *testing.T) {
		w := doJSON(t, s, http.MethodGet, "/api/sessions/"+id+"/chapters", nil)
		var resp struct {
			Chapters []struct {
				Title  string `json:"title"`
				Active bool   `json:"active"`
			} `json:"chapters"`
		}
		json.Unmarshal(w.Body.Bytes(), &resp)
		if len(resp.Chapters) == 0 {
			t.Fatal("no chapters")
		}
		active := 0
		for _, c := range resp.Chapters {
			if c.Active {
				active++
			}
		}
		if active != 1 {
			t.Errorf("active chapters = %d, want 1", active)
		}
	})
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	s := testServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "book.exe")
	fw.Write([]byte("MZ"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/books", &buf)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAskWithoutCredential(t *testing.T) {
	s := testServer(t)
	resp := uploadText(t, s, "econ.txt", bookText())
	id := resp["session_id"].(string)

	doJSON(t, s, http.MethodGet, "/api/sessions/"+id+"/page", nil)

	w := doJSON(t, s, http.MethodPost, "/api/sessions/"+id+"/ask", map[string]string{"query": "what is scarcity?"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401, body %s", w.Code, w.Body.String())
	}
	var body map[string]string
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["hint"] == "" {
		t.Error("error response has no hint")
	}
}

func TestCredentialRoundTrip(t *testing.T) {
	s := testServer(t)

	w := doJSON(t, s, http.MethodPut, "/api/credentials/gemini", map[string]string{"api_key": "sekrit"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if v, ok := s.state.Get(assistant.CredentialKey); !ok || v != "sekrit" {
		t.Errorf("stored key = %q, %v", v, ok)
	}

	w = doJSON(t, s, http.MethodPut, "/api/credentials/gemini", map[string]string{"api_key": ""})
	if w.Code != http.StatusOK {
		t.Fatalf("clear status = %d", w.Code)
	}
	if _, ok := s.state.Get(assistant.CredentialKey); ok {
		t.Error("key still stored after clear")
	}
}

func TestSessionNotFound(t *testing.T) {
	s := testServer(t)
	w := doJSON(t, s, http.MethodGet, "/api/sessions/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
