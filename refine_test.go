package deckgen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

// refineServer scripts the three call shapes the quality/refine loop makes:
// the initial generation (string content), judge calls (text begins with the
// review instruction) and refinement calls (text mentions the rejection).
type refineServer struct {
	t       *testing.T
	img     []byte
	verdict func(call int) string

	judgeCalls  atomic.Int64
	refineCalls atomic.Int64
}

func (s *refineServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/img.png" {
			_, _ = w.Write(s.img)
			return
		}

		var req struct {
			Messages []struct {
				Content json.RawMessage `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.t.Fatal(err)
		}

		var parts []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}
		if json.Unmarshal(req.Messages[0].Content, &parts) != nil {
			// initial generation: plain string content
			writeChatReply(w, fmt.Sprintf("![slide](http://%s/img.png)", r.Host))
			return
		}

		var text string
		for _, p := range parts {
			if p.Type == "text" {
				text = p.Text
			}
		}
		switch {
		case strings.HasPrefix(text, "Review the attached image"):
			writeChatReply(w, s.verdict(int(s.judgeCalls.Add(1))))
		case strings.Contains(text, "rejected for this reason"):
			s.refineCalls.Add(1)
			writeChatReply(w, fmt.Sprintf("![fixed](http://%s/img.png)", r.Host))
		default:
			s.t.Errorf("unexpected completion text: %q", text)
		}
	}
}

func TestRefine_AlwaysFailingGateRunsExactBudget(t *testing.T) {
	rs := &refineServer{t: t, img: testPNG(t), verdict: func(int) string { return "FAIL: garbled text" }}
	srv := httptest.NewServer(rs.handler())
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "slide.png")
	c := newTestClient(srv.URL)
	res := c.GenerateSlide(context.Background(), GenerationRequest{
		Prompt:       "a slide",
		QualityCheck: true,
		MaxRefine:    3,
		OutputPath:   out,
	})
	if !res.OK {
		t.Fatalf("generation should succeed, got %+v", res)
	}
	if res.RefineRounds != 3 {
		t.Fatalf("rounds=%d, want 3", res.RefineRounds)
	}
	if rs.judgeCalls.Load() != 3 || rs.refineCalls.Load() != 3 {
		t.Fatalf("judge=%d refine=%d, want 3/3", rs.judgeCalls.Load(), rs.refineCalls.Load())
	}
	// the artifact survives an exhausted budget
	if fi, err := os.Stat(out); err != nil || fi.Size() <= MinArtifactSize {
		t.Fatalf("artifact must be retained: err=%v", err)
	}
}

func TestRefine_StopsOnPass(t *testing.T) {
	rs := &refineServer{t: t, img: testPNG(t), verdict: func(call int) string {
		if call == 1 {
			return "FAIL: subject deformed"
		}
		return "PASS"
	}}
	srv := httptest.NewServer(rs.handler())
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "slide.png")
	c := newTestClient(srv.URL)
	res := c.GenerateSlide(context.Background(), GenerationRequest{
		Prompt:       "a slide",
		QualityCheck: true,
		MaxRefine:    5,
		OutputPath:   out,
	})
	if !res.OK {
		t.Fatalf("got %+v", res)
	}
	if res.RefineRounds != 1 {
		t.Fatalf("rounds=%d, want 1", res.RefineRounds)
	}
	if rs.judgeCalls.Load() != 2 {
		t.Fatalf("judge calls=%d, want 2", rs.judgeCalls.Load())
	}
}

func TestRefine_CleanFirstVerdictSkipsRefinement(t *testing.T) {
	rs := &refineServer{t: t, img: testPNG(t), verdict: func(int) string { return "PASS" }}
	srv := httptest.NewServer(rs.handler())
	defer srv.Close()

	c := newTestClient(srv.URL)
	res := c.GenerateSlide(context.Background(), GenerationRequest{
		Prompt:       "a slide",
		QualityCheck: true,
		OutputPath:   filepath.Join(t.TempDir(), "slide.png"),
	})
	if !res.OK || res.RefineRounds != 0 {
		t.Fatalf("got %+v", res)
	}
	if rs.refineCalls.Load() != 0 {
		t.Fatalf("refine calls=%d, want 0", rs.refineCalls.Load())
	}
}

func TestRefine_FailedRefinementKeepsArtifact(t *testing.T) {
	img := testPNG(t)
	var judged atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/img.png" {
			_, _ = w.Write(img)
			return
		}
		var req struct {
			Messages []struct {
				Content json.RawMessage `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		var parts []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}
		if json.Unmarshal(req.Messages[0].Content, &parts) != nil {
			writeChatReply(w, fmt.Sprintf("![slide](http://%s/img.png)", r.Host))
			return
		}
		var text string
		for _, p := range parts {
			if p.Type == "text" {
				text = p.Text
			}
		}
		if strings.HasPrefix(text, "Review the attached image") {
			judged.Add(1)
			writeChatReply(w, "FAIL: broken layout")
			return
		}
		// refinement reply carries no locator -> refinement failure
		writeChatReply(w, "I could not produce a corrected image.")
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "slide.png")
	c := newTestClient(srv.URL)
	res := c.GenerateSlide(context.Background(), GenerationRequest{
		Prompt:       "a slide",
		QualityCheck: true,
		MaxRefine:    4,
		OutputPath:   out,
	})
	if !res.OK {
		t.Fatalf("got %+v", res)
	}
	// one failed round ends the loop early
	if res.RefineRounds != 1 || judged.Load() != 1 {
		t.Fatalf("rounds=%d judged=%d, want 1/1", res.RefineRounds, judged.Load())
	}
	data, err := os.ReadFile(out)
	if err != nil || len(data) != len(img) {
		t.Fatalf("last good artifact must remain: err=%v len=%d", err, len(data))
	}
}
