package bind

import (
	"net/http/httptest"
	"strings"
	"testing"

	perr "postlens/internal/platform/errors"
)

type importBody struct {
	URL    string `json:"url" validate:"required,url,max=40"`
	Handle string `json:"authorHandle,omitempty" validate:"omitempty,handle"`
}

func parse(body string) (importBody, error) {
	r := httptest.NewRequest("POST", "/posts/import", strings.NewReader(body))
	return ParseJSON[importBody](r)
}

func TestParseJSON_OK(t *testing.T) {
	got, err := parse(`{"url":"https://x.com/a/status/1","authorHandle":"@go_lang"}`)
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if got.URL != "https://x.com/a/status/1" || got.Handle != "@go_lang" {
		t.Fatalf("got %+v", got)
	}
}

func TestParseJSON_DecodeErrors(t *testing.T) {
	for name, body := range map[string]string{
		"empty":    ``,
		"broken":   `{"url":`,
		"unknown":  `{"url":"https://x.com/a/status/1","extra":1}`,
		"trailing": `{"url":"https://x.com/a/status/1"} {}`,
		"too big":  `{"url":"` + strings.Repeat("a", MaxBody) + `"}`,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := parse(body); !perr.IsCode(err, perr.ErrorCodeJSON) {
				t.Fatalf("err = %v, want JSON code", err)
			}
		})
	}
}

func TestParseJSON_Validation(t *testing.T) {
	cases := []struct {
		name, body, field, msg string
	}{
		{"missing url", `{}`, "url", "url is a required field"},
		{"relative url", `{"url":"/status/1"}`, "url", "url must be an absolute URL"},
		{"long url", `{"url":"https://x.com/` + strings.Repeat("a", 40) + `"}`, "url", "url must be at most 40"},
		{"bad handle", `{"url":"https://x.com/a/status/1","authorHandle":"not a handle"}`, "authorHandle", "authorHandle must be an X handle"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := parse(c.body)
			if !perr.IsCode(err, perr.ErrorCodeValidation) {
				t.Fatalf("err = %v, want Validation", err)
			}
			e, _ := perr.As(err)
			if e.Field() != c.field {
				t.Fatalf("field = %q, want %q", e.Field(), c.field)
			}
			if !strings.Contains(err.Error(), c.msg) {
				t.Fatalf("message = %q, want %q", err.Error(), c.msg)
			}
		})
	}
}

func TestValidate_NonStruct(t *testing.T) {
	if err := Validate(42); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("err = %v", err)
	}
}
