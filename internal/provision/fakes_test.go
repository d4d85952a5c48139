package provision

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/plex2emby/plex2emby/internal/avatar"
	"github.com/plex2emby/plex2emby/internal/emby"
)

// fakeEmby is an in-process stand-in for the Emby admin API, recording
// every request it serves.
type fakeEmby struct {
	t   *testing.T
	srv *httptest.Server

	mu             sync.Mutex
	requests       []string
	postedPolicies []emby.Policy
	uploadedImages []map[string]string

	failCreate    bool
	emptyCreate   bool
	failPolicyGet bool
	fetchedPolicy emby.Policy
}

func newFakeEmby(t *testing.T) *fakeEmby {
	t.Helper()
	f := &fakeEmby{t: t}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /emby/Users/New", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		if f.failCreate {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("boom"))
			return
		}
		if f.emptyCreate {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"Id": "42"})
	})
	mux.HandleFunc("GET /emby/Users", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		json.NewEncoder(w).Encode([]map[string]string{{"Id": "42", "Name": "alice"}})
	})
	mux.HandleFunc("GET /emby/Users/{id}/Policy", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		if f.failPolicyGet {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		pol := f.fetchedPolicy
		if pol == nil {
			pol = emby.Policy{}
		}
		json.NewEncoder(w).Encode(pol)
	})
	mux.HandleFunc("POST /emby/Users/{id}/Policy", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		var pol emby.Policy
		json.NewDecoder(r.Body).Decode(&pol)
		f.mu.Lock()
		f.postedPolicies = append(f.postedPolicies, pol)
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /emby/Users/{id}/Images/Primary", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.uploadedImages = append(f.uploadedImages, body)
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /avatar.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeEmby) record(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
}

func (f *fakeEmby) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeEmby) policyPosts() []emby.Policy {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]emby.Policy(nil), f.postedPolicies...)
}

func (f *fakeEmby) sawRequest(methodAndPath string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, req := range f.requests {
		if strings.HasPrefix(req, methodAndPath) {
			return true
		}
	}
	return false
}

func (f *fakeEmby) avatarURL() string { return f.srv.URL + "/avatar.png" }

func (f *fakeEmby) provisioner(strategy avatar.Fallback) *Provisioner {
	logger := zap.NewNop().Sugar()
	client := emby.New(f.srv.URL, "test-token", logger)
	p := NewProvisioner(client, avatar.NewFetcher(strategy, logger), logger)
	p.StepDelay = 0
	return p
}
