package security

import (
	"net/http/httptest"
	"testing"
)

func TestTokenFromRequest(t *testing.T) {
	cases := []struct {
		name   string
		header string
		query  string
		want   string
		ok     bool
	}{
		{name: "header only", header: "Bearer abc.def.ghi", want: "abc.def.ghi", ok: true},
		{name: "query only", query: "abc.def.ghi", want: "abc.def.ghi", ok: true},
		{name: "header wins over query", header: "Bearer from-header", query: "from-query", want: "from-header", ok: true},
		{name: "header with stray quotes", header: `Bearer "abc.def"`, want: "abc.def", ok: true},
		{name: "query with single quotes", query: "'abc.def'", want: "abc.def", ok: true},
		{name: "surrounding whitespace", header: "Bearer   abc.def  ", want: "abc.def", ok: true},
		{name: "quotes then whitespace", query: `" abc.def "`, want: "abc.def", ok: true},
		{name: "case insensitive scheme", header: "bearer abc", want: "abc", ok: true},
		{name: "missing", ok: false},
		{name: "empty bearer", header: "Bearer ", ok: false},
		{name: "quotes only", query: `""`, ok: false},
		{name: "wrong scheme falls back to query", header: "Basic dXNlcg==", query: "abc", want: "abc", ok: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			target := "/ws"
			if tc.query != "" {
				q := httptest.NewRequest("GET", "/ws", nil).URL.Query()
				q.Set("token", tc.query)
				target = "/ws?" + q.Encode()
			}
			r := httptest.NewRequest("GET", target, nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}

			got, ok := TokenFromRequest(r)
			if ok != tc.ok {
				t.Fatalf("ok: got %v want %v", ok, tc.ok)
			}
			if got != tc.want {
				t.Fatalf("token: got %q want %q", got, tc.want)
			}
		})
	}
}
