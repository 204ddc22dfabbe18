package envelope

import (
	"encoding/json"
	"net/http"
	"reflect"
	"testing"
)

func TestParse_ExplicitEnvelope(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantOK     bool
		wantMsg    string
		wantNext   string
	}{
		{
			name:       "success with data",
			statusCode: 200,
			body:       `{"status":"success","message":"fetched","data":{"id":1}}`,
			wantOK:     true,
			wantMsg:    "fetched",
		},
		{
			name:       "success with pagination",
			statusCode: 200,
			body:       `{"status":"success","data":[],"pagination":{"next":"https://api.example.com/posts/?cursor=abc","previous":"","page_size":10}}`,
			wantOK:     true,
			wantNext:   "https://api.example.com/posts/?cursor=abc",
		},
		{
			name:       "error status field",
			statusCode: 400,
			body:       `{"status":"error","message":"nope"}`,
			wantOK:     false,
			wantMsg:    "nope",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := Parse(tt.statusCode, []byte(tt.body))
			if env.OK() != tt.wantOK {
				t.Fatalf("OK() = %v, want %v", env.OK(), tt.wantOK)
			}
			if tt.wantOK && tt.wantMsg != "" && env.Success.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", env.Success.Message, tt.wantMsg)
			}
			if !tt.wantOK && tt.wantMsg != "" && env.Failure.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", env.Failure.Message, tt.wantMsg)
			}
			if tt.wantNext != "" {
				if env.Success.Pagination == nil {
					t.Fatal("Pagination is nil")
				}
				if env.Success.Pagination.Next != tt.wantNext {
					t.Errorf("Next = %q, want %q", env.Success.Pagination.Next, tt.wantNext)
				}
			}
		})
	}
}

func TestParse_ExactlyOneVariant(t *testing.T) {
	bodies := []struct {
		statusCode int
		body       string
	}{
		{200, `{"status":"success"}`},
		{200, `[1,2,3]`},
		{200, `"just a string"`},
		{200, ``},
		{400, `{"username":["taken"]}`},
		{401, `{"code":"token_not_valid"}`},
		{403, `{"detail":"CSRF Failed: CSRF token missing"}`},
		{500, `not json at all`},
		{503, ``},
	}

	for _, tt := range bodies {
		env := Parse(tt.statusCode, []byte(tt.body))
		if (env.Success == nil) == (env.Failure == nil) {
			t.Errorf("Parse(%d, %q): want exactly one variant, got Success=%v Failure=%v",
				tt.statusCode, tt.body, env.Success, env.Failure)
		}
	}
}

func TestParse_BareSuccessWrapsBody(t *testing.T) {
	// Endpoints that predate the envelope reply with arbitrary JSON.
	body := `[{"id":1},{"id":2}]`
	env := Parse(200, []byte(body))

	if !env.OK() {
		t.Fatalf("expected success, got %v", env.Failure)
	}
	if string(env.Success.Data) != body {
		t.Errorf("Data = %s, want %s", env.Success.Data, body)
	}

	// Even a non-JSON 200 body is wrapped, never dropped.
	env = Parse(200, []byte("plain text"))
	if !env.OK() {
		t.Fatalf("expected success for non-JSON 200 body, got %v", env.Failure)
	}
}

func TestParse_AuthAndCSRFMarkers(t *testing.T) {
	env := Parse(401, []byte(`{"detail":"Token is invalid","code":"token_not_valid"}`))
	if env.OK() || env.Failure.Kind != KindAuth {
		t.Fatalf("want auth failure, got %+v", env)
	}
	if env.Failure.Message != "Token is invalid" {
		t.Errorf("Message = %q", env.Failure.Message)
	}

	env = Parse(403, []byte(`{"detail":"CSRF Failed: Origin checking failed"}`))
	if env.OK() || env.Failure.Kind != KindCSRF {
		t.Fatalf("want csrf failure, got %+v", env)
	}

	// Auth marker wins over a 400 validation shape.
	env = Parse(400, []byte(`{"code":"token_not_valid","username":["x"]}`))
	if env.Failure.Kind != KindAuth {
		t.Errorf("Kind = %q, want auth", env.Failure.Kind)
	}
}

func TestParse_ValidationFieldErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want map[string][]string
	}{
		{
			name: "order and values preserved",
			body: `{"username":["required","too short"],"email":["invalid"]}`,
			want: map[string][]string{
				"username": {"required", "too short"},
				"email":    {"invalid"},
			},
		},
		{
			name: "scalar wraps to one entry",
			body: `{"age":"must be a number"}`,
			want: map[string][]string{"age": {"must be a number"}},
		},
		{
			name: "nested object collapses",
			body: `{"profile":{"bio":["too long"]}}`,
			want: map[string][]string{"profile": {"Invalid data"}},
		},
		{
			name: "empty object synthesizes form error",
			body: `{}`,
			want: map[string][]string{"form": {"Form validation failed"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := Parse(400, []byte(tt.body))
			if env.OK() {
				t.Fatal("expected failure")
			}
			if env.Failure.Kind != KindValidation {
				t.Fatalf("Kind = %q, want validation", env.Failure.Kind)
			}
			if !reflect.DeepEqual(env.Failure.FieldErrors, tt.want) {
				t.Errorf("FieldErrors = %v, want %v", env.Failure.FieldErrors, tt.want)
			}
		})
	}
}

func TestParse_GenericFallback(t *testing.T) {
	env := Parse(500, []byte(`{"detail":"server exploded"}`))
	if env.Failure.Kind != KindGeneric || env.Failure.Message != "server exploded" {
		t.Errorf("got %+v", env.Failure)
	}

	env = Parse(502, []byte(`garbage`))
	if env.Failure.Kind != KindGeneric {
		t.Errorf("Kind = %q, want generic", env.Failure.Kind)
	}
	if env.Failure.Message != http.StatusText(502) {
		t.Errorf("Message = %q, want status text", env.Failure.Message)
	}
}

func TestParse_EmptyBody(t *testing.T) {
	env := Parse(204, nil)
	if !env.OK() {
		t.Fatalf("expected success for empty 204, got %v", env.Failure)
	}

	env = Parse(503, nil)
	if env.OK() || env.Failure.Kind != KindGeneric {
		t.Fatalf("want generic failure, got %+v", env)
	}
}

func TestFailure_Error(t *testing.T) {
	f := &Failure{StatusCode: 401, Kind: KindAuth, Message: "token expired"}
	want := "scribe auth error (status 401): token expired"
	if f.Error() != want {
		t.Errorf("Error() = %q, want %q", f.Error(), want)
	}
}

func TestNetworkFailure(t *testing.T) {
	env := NetworkFailure(errExample{})
	if env.OK() || env.Failure.Kind != KindNetwork {
		t.Fatalf("want network failure, got %+v", env)
	}
	if env.Failure.Message != "connection refused" {
		t.Errorf("Message = %q", env.Failure.Message)
	}
}

type errExample struct{}

func (errExample) Error() string { return "connection refused" }

func TestSuccessDataRoundTrip(t *testing.T) {
	env := Parse(200, []byte(`{"status":"success","data":{"user":{"id":7,"username":"ada"}}}`))
	if !env.OK() {
		t.Fatal("expected success")
	}

	var payload struct {
		User struct {
			ID       int    `json:"id"`
			Username string `json:"username"`
		} `json:"user"`
	}
	if err := json.Unmarshal(env.Success.Data, &payload); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if payload.User.Username != "ada" {
		t.Errorf("Username = %q, want ada", payload.User.Username)
	}
}
