package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type queueCaller struct {
	responses []string
	errs      []error
	requests  []Request
}

func (q *queueCaller) Complete(_ context.Context, req Request) (string, error) {
	q.requests = append(q.requests, req)
	if len(q.errs) > 0 {
		err := q.errs[0]
		q.errs = q.errs[1:]
		if err != nil {
			return "", err
		}
	}
	if len(q.responses) == 0 {
		return "{}", nil
	}
	out := q.responses[0]
	q.responses = q.responses[1:]
	return out, nil
}

func TestRunJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	t.Run("happy", func(t *testing.T) {
		q := &queueCaller{responses: []string{`{"name":"Orrefors"}`}}
		var out payload
		m, err := NewExecutor(q).RunJSON(context.Background(), "brand-check", Request{Prompt: "p"}, &out, nil)
		if err != nil {
			t.Fatalf("RunJSON: %v", err)
		}
		if m.Attempts != 1 || out.Name != "Orrefors" {
			t.Fatalf("unexpected result: %+v %+v", m, out)
		}
	})

	t.Run("fenced prose response", func(t *testing.T) {
		q := &queueCaller{responses: []string{"Here you go:\n```json\n{\"name\":\"Kosta Boda\"}\n```"}}
		var out payload
		if _, err := NewExecutor(q).RunJSON(context.Background(), "brand-check", Request{}, &out, nil); err != nil {
			t.Fatalf("RunJSON: %v", err)
		}
		if out.Name != "Kosta Boda" {
			t.Fatalf("got %q", out.Name)
		}
	})

	t.Run("content retry with feedback", func(t *testing.T) {
		q := &queueCaller{responses: []string{"not-json", `{"name":"x"}`}}
		var out payload
		m, err := NewExecutor(q).RunJSON(context.Background(), "brand-check", Request{}, &out, nil)
		if err != nil {
			t.Fatalf("RunJSON: %v", err)
		}
		if m.Attempts != 2 || m.ContentRetries != 1 {
			t.Fatalf("metrics: %+v", m)
		}
		if !strings.Contains(q.requests[1].Prompt, "was not valid JSON") {
			t.Fatal("second prompt should carry corrective feedback")
		}
	})

	t.Run("validation retry then failure", func(t *testing.T) {
		q := &queueCaller{responses: []string{`{"name":""}`, `{"name":""}`, `{"name":""}`}}
		var out payload
		_, err := NewExecutor(q).RunJSON(context.Background(), "brand-check", Request{}, &out, func() error {
			if out.Name == "" {
				return errors.New("name required")
			}
			return nil
		})
		if err == nil || !strings.Contains(err.Error(), "failed validation") {
			t.Fatalf("expected validation failure, got %v", err)
		}
	})

	t.Run("client error does not retry", func(t *testing.T) {
		q := &queueCaller{errs: []error{errors.New("status code: 401")}}
		var out payload
		_, err := NewExecutor(q).RunJSON(context.Background(), "brand-check", Request{}, &out, nil)
		if err == nil {
			t.Fatal("expected transport failure")
		}
		if len(q.requests) != 1 {
			t.Fatalf("client errors must not retry, got %d calls", len(q.requests))
		}
	})
}

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"prose around", `Sure! {"a":{"b":2}} Hope that helps.`, `{"a":{"b":2}}`},
		{"brace in string", `{"a":"}"}`, `{"a":"}"}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"no object", "nothing here", "nothing here"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractJSONObject(tc.in); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}
