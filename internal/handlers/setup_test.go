package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"schedule_controller/internal/service"
)

func onAP(req *http.Request) *http.Request {
	req.Host = apIP.String()
	return req
}

func TestSetup_ForeignHostRedirected(t *testing.T) {
	r := newTestRouter(&service.Service{Control: &mockControl{}, Provisioning: setupMode()})

	for _, p := range []string{"/", "/some/page", "/api"} {
		req := httptest.NewRequest(http.MethodGet, p, nil)
		req.Host = "connectivitycheck.gstatic.com"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusFound {
			t.Fatalf("%s: code=%d want 302", p, w.Code)
		}
		if loc := w.Header().Get("Location"); loc != "http://192.168.4.1/" {
			t.Fatalf("%s: Location=%q", p, loc)
		}
	}
}

func TestSetup_ProbePathsRedirectOnOwnHost(t *testing.T) {
	r := newTestRouter(&service.Service{Control: &mockControl{}, Provisioning: setupMode()})

	for _, p := range captiveProbePaths {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, onAP(httptest.NewRequest(http.MethodGet, p, nil)))
		if w.Code != http.StatusFound {
			t.Fatalf("%s: code=%d want 302", p, w.Code)
		}
	}
}

func TestSetup_IndexServesForm(t *testing.T) {
	r := newTestRouter(&service.Service{Control: &mockControl{}, Provisioning: setupMode()})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, onAP(httptest.NewRequest(http.MethodGet, "/", nil)))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `action="/connect"`) {
		t.Fatalf("index: %d %s", w.Code, w.Body.String())
	}
}

func TestSetup_Connect(t *testing.T) {
	prov := setupMode()
	r := newTestRouter(&service.Service{Control: &mockControl{}, Provisioning: prov})

	form := url.Values{"ssid": {"home"}, "pass": {"secret"}}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, onAP(postForm("/connect", form)))
	if w.Code != http.StatusOK {
		t.Fatalf("connect: %d %s", w.Code, w.Body.String())
	}
	if prov.provisionCalls != 1 || prov.lastSSID != "home" || prov.lastPassword != "secret" {
		t.Fatalf("provision call: %+v", prov)
	}
}

func TestSetup_ConnectErrors(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"too long", service.ErrCredentialsTooLong, http.StatusBadRequest},
		{"empty ssid", service.ErrEmptySSID, http.StatusBadRequest},
		{"store failure", errors.New("flash"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			prov := setupMode()
			prov.provisionErr = tc.err
			r := newTestRouter(&service.Service{Control: &mockControl{}, Provisioning: prov})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, onAP(postForm("/connect", url.Values{"ssid": {"x"}})))
			if w.Code != tc.wantCode {
				t.Fatalf("code=%d want %d", w.Code, tc.wantCode)
			}
		})
	}
}

func TestSetup_ConnectUnavailableWhenProvisioned(t *testing.T) {
	prov := provisioned()
	r := newTestRouter(&service.Service{Control: &mockControl{}, Provisioning: prov})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, postForm("/connect", url.Values{"ssid": {"x"}}))
	if w.Code != http.StatusNotFound {
		t.Fatalf("code=%d want 404", w.Code)
	}
	if prov.provisionCalls != 0 {
		t.Fatalf("provision must not run when provisioned")
	}
}

func TestIsBrowserNoise(t *testing.T) {
	cases := map[string]bool{
		"/apple-touch-icon.png":         true,
		"/apple-touch-icon-120x120.png": true,
		"/manifest.json":                true,
		"/robots.txt":                   true,
		"/js/app.js.map":                true,
		"/apple-touch-icon.jpg":         false,
		"/setSchedule":                  false,
		"/deep/manifest.json":           false,
		"/favicon.svg":                  false,
	}
	for p, want := range cases {
		if got := isBrowserNoise(p); got != want {
			t.Fatalf("isBrowserNoise(%q) = %v; want %v", p, got, want)
		}
	}
}
