package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/joeblew999/plat-osm/internal/query"
)

const mapJSON = `{"From":[[10],[20]],"To":[[30],[40]],"Icons":[["Latitude",[15]],["Longitude",[25]],["Path",[""]],["Link",[""]],["Description",["hello"]]]}`

func TestFunctionCall(t *testing.T) {
	var gotForm map[string]string
	var gotCookie string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		gotForm = map[string]string{}
		for k := range r.PostForm {
			gotForm[k] = r.PostForm.Get(k)
		}
		gotCookie = r.Header.Get("Cookie")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(mapJSON))
	}))
	defer srv.Close()

	c := New(Config{Baselink: srv.URL + "/otrs/index.pl?"})
	resp, err := c.FunctionCall(context.Background(), query.Parse("Action=AgentTicketZoom;TicketID=3"),
		WithCookie("OTRSAgentInterface=abc"), WithChallengeToken("tok"))
	if err != nil {
		t.Fatalf("FunctionCall: %v", err)
	}

	if len(resp.Markers) != 1 || resp.Markers[0].Description != "hello" {
		t.Errorf("markers = %+v", resp.Markers)
	}

	want := map[string]string{
		"Action":         "OpenStreetMap",
		"OriginalAction": "AgentTicketZoom",
		"TicketID":       "3",
		"ChallengeToken": "tok",
	}
	for k, v := range want {
		if gotForm[k] != v {
			t.Errorf("form[%s] = %q, want %q", k, gotForm[k], v)
		}
	}
	if gotCookie != "OTRSAgentInterface=abc" {
		t.Errorf("cookie = %q", gotCookie)
	}
	if got := c.LinkBase(); got != srv.URL+"/otrs/index.pl?" {
		t.Errorf("LinkBase() = %q", got)
	}
}

func TestLinkBaseOverride(t *testing.T) {
	c := New(Config{Baselink: "https://tickets.example.com/otrs/index.pl", LinkBase: "/otrs/index.pl?"})
	if got := c.LinkBase(); got != "/otrs/index.pl?" {
		t.Errorf("LinkBase() = %q", got)
	}
}

func TestFunctionCallErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"not json", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>please log in</html>"))
		}},
		{"timeout", func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			w.Write([]byte(mapJSON))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := New(Config{Baselink: srv.URL, Timeout: 50 * time.Millisecond})
			if _, err := c.FunctionCall(context.Background(), query.Parse("")); err == nil {
				t.Fatal("want error")
			}
		})
	}
}

func TestFunctionCallRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(mapJSON))
	}))
	defer srv.Close()

	c := New(Config{Baselink: srv.URL, RequestsPerSecond: 0.001, Burst: 1})
	if _, err := c.FunctionCall(context.Background(), query.Parse("")); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := c.FunctionCall(context.Background(), query.Parse("")); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("second call: err = %v, want ErrRateLimited", err)
	}
}

func TestFunctionCallNoBaselink(t *testing.T) {
	if _, err := New(Config{}).FunctionCall(context.Background(), query.Parse("")); err == nil {
		t.Fatal("want error without baselink")
	}
}
